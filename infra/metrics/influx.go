package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/infra/logger"
)

// InfluxSink writes trip and charging events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying InfluxDB client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordTrip writes the planned trip as a line protocol event.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_planned").
		AddTag("trip_id", ev.TripID).
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("service_level", string(ev.ServiceLevel)).
		AddTag("component", "trip_coordinator").
		AddField("distance_km", round3(ev.Route.DistanceKm)).
		AddField("direct_distance_km", round3(ev.Route.DirectDistanceKm)).
		AddField("energy_percent", round3(ev.Route.EnergyRequiredPercent)).
		AddField("duration_minutes", round3(ev.Route.DurationMinutes)).
		AddField("safety_score", round3(ev.Route.SafetyScore)).
		AddField("cost_czk", round3(ev.CostCZK)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCharging persists a committed charging schedule.
func (s *InfluxSink) RecordCharging(ev coremetrics.ChargingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	minutes := ev.EstimatedMinutes
	if math.IsInf(minutes, 1) {
		minutes = -1
	}
	p := write.NewPointWithMeasurement("charging_scheduled").
		AddTag("schedule_id", ev.ScheduleID).
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("station_id", ev.StationID).
		AddTag("component", "trip_coordinator").
		AddField("start_battery", round3(ev.StartBattery)).
		AddField("target_battery", round3(ev.TargetBattery)).
		AddField("estimated_minutes", round3(minutes)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleState writes a snapshot of a vehicle.
func (s *InfluxSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v := ev.Vehicle
	p := write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle_id", v.ID).
		AddTag("status", string(v.Status))
	if ev.Component != "" {
		p = p.AddTag("component", ev.Component)
	}
	p = p.AddField("battery_percent", round3(v.BatteryLevel)).
		AddField("lat", v.Location.Lat).
		AddField("lng", v.Location.Lng).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection records a turned-down request.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_rejected").
		AddTag("operation", ev.Operation).
		AddTag("reason", ev.Reason).
		AddTag("component", "trip_coordinator").
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

var _ coremetrics.Sink = (*InfluxSink)(nil)

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
