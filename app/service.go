package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dronershare/mobility/config"
	"github.com/dronershare/mobility/core/charging"
	"github.com/dronershare/mobility/core/fleet"
	coremetrics "github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/core/monitoring"
	"github.com/dronershare/mobility/core/model"
	coremqtt "github.com/dronershare/mobility/core/mqtt"
	"github.com/dronershare/mobility/core/routing"
	"github.com/dronershare/mobility/core/trip"
	triplog "github.com/dronershare/mobility/core/trip/logging"
	"github.com/dronershare/mobility/infra/logger"
	"github.com/dronershare/mobility/infra/metrics"
	inframon "github.com/dronershare/mobility/infra/monitoring"
	"github.com/dronershare/mobility/infra/mqtt"
	"github.com/dronershare/mobility/infra/telemetry"
	"github.com/dronershare/mobility/internal/eventbus"
)

// Service wires the trip coordinator, fleet store and adapters together.
type Service struct {
	Coordinator *trip.Coordinator
	Store       *fleet.MemoryStore

	bus         *eventbus.Bus[any]
	allocator   charging.PowerAllocator
	log         logger.Logger
	tripLog     triplog.LogStore
	telemetry   *telemetry.Manager
	orders      coremqtt.Client
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	store := fleet.NewMemoryStore()
	if cfg.Fleet.VehiclesFile != "" {
		n, err := store.LoadVehicles(cfg.Fleet.VehiclesFile)
		if err != nil {
			return nil, fmt.Errorf("seed vehicles: %w", err)
		}
		logg.Infof("loaded %d vehicles", n)
	}
	if cfg.Fleet.StationsFile != "" {
		n, err := store.LoadStations(cfg.Fleet.StationsFile)
		if err != nil {
			return nil, fmt.Errorf("seed stations: %w", err)
		}
		logg.Infof("loaded %d stations", n)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[any]()
	planner := routing.NewPlanner(nil, cfg.Planner)
	coord, err := trip.NewCoordinator(planner, routing.StaticChecker{}, store, sink, bus, logg)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	coord.MaxStationDistanceKm = cfg.Charging.MaxStationDistanceKm

	var logStore triplog.LogStore
	switch cfg.TripLog.Backend {
	case "sqlite":
		logStore, err = triplog.NewSQLiteStore(cfg.TripLog.Path)
	default:
		logStore, err = triplog.NewJSONLStore(cfg.TripLog.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("trip log: %w", err)
	}

	svc := &Service{
		Coordinator: coord,
		Store:       store,
		bus:         bus,
		allocator:   charging.PowerAllocator{MaxIntakeKw: cfg.Charging.MaxIntakeKw},
		log:         logg,
		tripLog:     logStore,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.orders = client
	}
	if cfg.Telemetry.Enabled {
		mgr, err := telemetry.NewManager(cfg.MQTT, cfg.Telemetry, store, sink, nil)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		svc.telemetry = mgr
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	events := s.bus.Subscribe()
	go s.consume(ctx, events)
	if s.telemetry != nil {
		go s.telemetry.Start(ctx)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// consume persists planned trips and forwards orders to the drones.
func (s *Service) consume(ctx context.Context, events <-chan any) {
	defer monitoring.Recover()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case trip.TripPlanned:
				rec := triplog.LogRecord{
					Timestamp:    e.Time,
					TripID:       e.Result.TripID,
					VehicleID:    e.Result.Vehicle.ID,
					ServiceLevel: e.Result.Vehicle.ServiceLevel,
					Route:        e.Result.Route,
					CostCZK:      e.Result.CostCZK,
				}
				if err := s.tripLog.Append(ctx, rec); err != nil {
					s.log.Errorf("trip log append: %v", err)
					monitoring.CaptureException(err, map[string]string{"trip_id": rec.TripID})
				}
				s.sendOrder(e.Result.Vehicle.ID, e.Result.TripID)
			case trip.ChargingScheduled:
				s.log.Infof("charging scheduled %s at %s", e.Schedule.VehicleID, e.Schedule.StationID)
				s.allocatePower(e.Schedule.StationID)
			}
		case <-ctx.Done():
			return
		}
	}
}

// allocatePower re-splits a station's live output across every drone
// charging on its pads after a new claim lands.
func (s *Service) allocatePower(stationID string) map[string]float64 {
	st, err := s.Store.Station(stationID)
	if err != nil {
		s.log.Errorf("allocate power: %v", err)
		return nil
	}
	var docked []model.Vehicle
	for _, v := range s.Store.Vehicles(fleet.VehicleQuery{Status: model.StatusCharging}) {
		if v.CurrentStation == stationID {
			docked = append(docked, v)
		}
	}
	split := s.allocator.Allocate(st, docked)
	for id, kw := range split {
		s.log.Infof("station %s: %.1f kW to %s", stationID, kw, id)
	}
	return split
}

func (s *Service) sendOrder(droneID, tripID string) {
	if s.orders == nil {
		return
	}
	cmdID, err := s.orders.SendTripOrder(droneID, tripID)
	if err != nil {
		s.log.Errorf("send order %s: %v", tripID, err)
		monitoring.CaptureException(err, map[string]string{"trip_id": tripID})
		return
	}
	go func() {
		if ok, err := s.orders.WaitForAck(cmdID, 5*time.Second); !ok {
			s.log.Warnf("order %s not acknowledged: %v", cmdID, err)
		}
	}()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	monitoring.Flush(2 * time.Second)
	if pc, ok := s.orders.(*mqtt.PahoClient); ok {
		pc.Disconnect()
	}
	return s.tripLog.Close()
}
