package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dronershare/mobility/config"
	"github.com/dronershare/mobility/core/geo"
	coremetrics "github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/core/model"
	"github.com/dronershare/mobility/infra/logger"
	infmqtt "github.com/dronershare/mobility/infra/mqtt"
)

// FleetUpdater receives decoded telemetry for the fleet repository.
type FleetUpdater interface {
	UpdateTelemetry(droneID string, battery float64, loc geo.Point) error
}

// Manager collects drone telemetry either via push or polling.
type Manager struct {
	cfg     config.TelemetryConfig
	cli     paho.Client
	store   FleetUpdater
	sink    coremetrics.VehicleStateRecorder
	log     logger.Logger
	history *History

	respCh chan telemetryMessage

	pollReq     prometheus.Counter
	pollResp    prometheus.Counter
	pollTimeout prometheus.Counter
	decodeErr   prometheus.Counter
	lastCollect prometheus.Gauge
}

type telemetryMessage struct {
	DroneID string
	Payload []byte
	Arrived time.Time
}

// NewManager connects to MQTT and prepares telemetry collection. Metrics are
// registered on reg; a nil registerer uses the Prometheus default.
func NewManager(mqttCfg infmqtt.Config, cfg config.TelemetryConfig, store FleetUpdater, sink coremetrics.VehicleStateRecorder, reg prometheus.Registerer) (*Manager, error) {
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Manager{
		cfg:         cfg,
		cli:         cli,
		store:       store,
		sink:        sink,
		log:         logger.New("telemetry"),
		history:     NewHistory(cfg.History()),
		respCh:      make(chan telemetryMessage, 100),
		pollReq:     prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_requests_total", Help: "Number of telemetry poll requests"}),
		pollResp:    prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_responses_total", Help: "Number of telemetry poll responses"}),
		pollTimeout: prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_timeout_total", Help: "Number of telemetry poll timeouts"}),
		decodeErr:   prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_decode_errors_total", Help: "Number of undecodable telemetry payloads"}),
		lastCollect: prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_collect_timestamp_seconds", Help: "Unix timestamp of last telemetry collection"}),
	}
	reg.MustRegister(m.pollReq, m.pollResp, m.pollTimeout, m.decodeErr, m.lastCollect)
	return m, nil
}

// History exposes the bounded per-drone record history.
func (m *Manager) History() *History { return m.history }

// Start runs telemetry collection until context is done.
func (m *Manager) Start(ctx context.Context) {
	mode := strings.ToLower(m.cfg.Mode)
	if mode == "" {
		mode = "push"
	}
	if mode == "push" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.StatePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onPush); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe state: %v", token.Error())
		}
	}
	if mode == "pull" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.ResponsePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onResponse); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe response: %v", token.Error())
		}
		go m.pollLoop(ctx)
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(msg.Payload(), msg.Topic()); err != nil {
		m.decodeErr.Inc()
		m.log.Errorf("push decode: %v", err)
	}
}

func (m *Manager) onResponse(_ paho.Client, msg paho.Message) {
	m.respCh <- telemetryMessage{DroneID: extractID(msg.Topic()), Payload: msg.Payload(), Arrived: time.Now()}
}

func extractID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.Interval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.doPoll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) doPoll(ctx context.Context) {
	m.pollReq.Inc()
	token := m.cli.Publish(m.cfg.RequestTopic, 0, false, []byte("poll"))
	token.Wait()
	timeout := time.NewTimer(time.Duration(m.cfg.Timeout()) * time.Second)
	defer timeout.Stop()
	for {
		select {
		case resp := <-m.respCh:
			if err := m.process(resp.Payload, ""); err != nil {
				m.decodeErr.Inc()
				m.log.Errorf("poll decode: %v", err)
			} else {
				m.pollResp.Inc()
				m.lastCollect.SetToCurrentTime()
			}
		case <-timeout.C:
			m.pollTimeout.Inc()
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) process(payload []byte, topic string) error {
	var msg struct {
		DroneID   string  `json:"drone_id"`
		Battery   float64 `json:"battery"`
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		AltitudeM float64 `json:"altitude_m"`
		Status    string  `json:"status"`
		TS        *int64  `json:"ts"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.DroneID == "" {
		msg.DroneID = extractID(topic)
	}
	ts := time.Now()
	if msg.TS != nil {
		ts = time.Unix(*msg.TS, 0)
	}
	// Field reports are clamped rather than rejected.
	if msg.Battery < 0 {
		msg.Battery = 0
	} else if msg.Battery > 100 {
		msg.Battery = 100
	}
	loc := geo.Point{Lat: msg.Lat, Lng: msg.Lng, AltitudeM: msg.AltitudeM}

	m.history.Append(Record{DroneID: msg.DroneID, Battery: msg.Battery, Location: loc, Status: msg.Status, Time: ts})
	if m.store != nil {
		if err := m.store.UpdateTelemetry(msg.DroneID, msg.Battery, loc); err != nil {
			m.log.Warnf("fleet update %s: %v", msg.DroneID, err)
		}
	}
	if m.sink != nil {
		v := model.Vehicle{ID: msg.DroneID, BatteryLevel: msg.Battery, Location: loc, Status: model.VehicleStatus(msg.Status)}
		_ = m.sink.RecordVehicleState(coremetrics.VehicleStateEvent{Vehicle: v, Component: "telemetry", Time: ts})
	}
	return nil
}
