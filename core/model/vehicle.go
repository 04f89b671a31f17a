package model

import (
	"errors"
	"fmt"

	"github.com/dronershare/mobility/core/geo"
)

// ErrInvalidInput marks malformed snapshots or parameters. Inputs are never
// silently clamped; callers get the wrapped detail via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// VehicleStatus enumerates the lifecycle states of a fleet drone.
type VehicleStatus string

const (
	StatusAvailable   VehicleStatus = "available"
	StatusInUse       VehicleStatus = "in_use"
	StatusCharging    VehicleStatus = "charging"
	StatusMaintenance VehicleStatus = "maintenance"
	StatusOffline     VehicleStatus = "offline"
)

// ServiceLevel classifies which tier of trips a vehicle may serve.
type ServiceLevel string

const (
	Level1 ServiceLevel = "level1"
	Level2 ServiceLevel = "level2"
	Level3 ServiceLevel = "level3"
)

// Vehicle is an immutable snapshot of a fleet drone at a call boundary.
// The engine never mutates or persists it; decisions are returned for the
// caller to apply through its own commit step.
type Vehicle struct {
	ID             string        `json:"id"`
	Model          string        `json:"model,omitempty"`
	BatteryLevel   float64       `json:"battery_level"` // percent, 0-100
	MaxRangeKm     float64       `json:"max_range_km"`
	MaxPayloadKg   float64       `json:"max_payload_kg"`
	MaxSpeedKmh    float64       `json:"max_speed_kmh"`
	HasSolarPanels bool          `json:"has_solar_panels"`
	ServiceLevel   ServiceLevel  `json:"service_level,omitempty"`
	Status         VehicleStatus `json:"status"`
	Location       geo.Point     `json:"location"`
	CurrentStation string        `json:"current_station,omitempty"`
	TotalFlights   int           `json:"total_flights,omitempty"`
	FlightHours    float64       `json:"flight_hours,omitempty"`
}

// Validate fails fast on a snapshot the engine must not reason about.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: vehicle id is empty", ErrInvalidInput)
	}
	if v.BatteryLevel < 0 || v.BatteryLevel > 100 {
		return fmt.Errorf("%w: battery level %v outside [0,100]", ErrInvalidInput, v.BatteryLevel)
	}
	if v.MaxRangeKm < 0 {
		return fmt.Errorf("%w: negative max range %v", ErrInvalidInput, v.MaxRangeKm)
	}
	if err := v.Location.Validate(); err != nil {
		return fmt.Errorf("%w: location: %v", ErrInvalidInput, err)
	}
	return nil
}

// IsAvailable reports whether the vehicle can be assigned to a new trip.
func (v Vehicle) IsAvailable() bool { return v.Status == StatusAvailable }
