package metrics

import (
	"time"

	"github.com/dronershare/mobility/core/model"
)

// TripEvent captures one completed trip-planning decision.
type TripEvent struct {
	TripID       string
	VehicleID    string
	ServiceLevel model.ServiceLevel
	Route        model.Route
	CostCZK      float64
	Time         time.Time
}

// TripRecorder records trip-planning outcomes.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// ChargingEvent captures one committed charging schedule.
type ChargingEvent struct {
	ScheduleID       string
	VehicleID        string
	StationID        string
	StartBattery     float64
	TargetBattery    float64
	EstimatedMinutes float64
	Unbounded        bool
	Time             time.Time
}

// ChargingRecorder records charging schedules.
type ChargingRecorder interface {
	RecordCharging(ev ChargingEvent) error
}

// VehicleStateEvent is a snapshot of a vehicle, typically from telemetry.
type VehicleStateEvent struct {
	Vehicle   model.Vehicle
	Component string
	Time      time.Time
}

// VehicleStateRecorder records vehicle state snapshots.
type VehicleStateRecorder interface {
	RecordVehicleState(ev VehicleStateEvent) error
}

// RejectionEvent captures a trip or charge request the engine turned down,
// together with the taxonomy reason (no_vehicle, no_station, restricted,
// invalid_input, conflict).
type RejectionEvent struct {
	Operation string
	Reason    string
	Time      time.Time
}

// RejectionRecorder records turned-down requests.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// Sink aggregates the recorders a coordinator needs.
type Sink interface {
	TripRecorder
	ChargingRecorder
	VehicleStateRecorder
	RejectionRecorder
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTrip(TripEvent) error                 { return nil }
func (NopSink) RecordCharging(ChargingEvent) error         { return nil }
func (NopSink) RecordVehicleState(VehicleStateEvent) error { return nil }
func (NopSink) RecordRejection(RejectionEvent) error       { return nil }

var _ Sink = NopSink{}
