package model

import (
	"fmt"

	"github.com/dronershare/mobility/core/geo"
)

// PowerSource describes one generation source installed at a dock station.
type PowerSource struct {
	Count           int     `json:"count"`
	TotalPowerKw    float64 `json:"total_power_kw"`
	CurrentOutputKw float64 `json:"current_output_kw"`
}

// GridSource is the fixed grid connection of a station.
type GridSource struct {
	TotalPowerKw float64 `json:"total_power_kw"`
}

// Station is an immutable snapshot of a dock station. Capacity transitions
// (claiming a slot) are committed by the caller, never by the engine.
type Station struct {
	ID                string      `json:"id"`
	Name              string      `json:"name,omitempty"`
	Location          geo.Point   `json:"location"`
	CapacityTotal     int         `json:"capacity_total"`
	CapacityAvailable int         `json:"capacity_available"`
	Solar             PowerSource `json:"solar"`
	Wind              PowerSource `json:"wind"`
	Grid              GridSource  `json:"grid"`
	IsActive          bool        `json:"is_active"`
}

// TotalChargingPowerKw sums the live output of every source feeding the
// charging pads.
func (s Station) TotalChargingPowerKw() float64 {
	return s.Solar.CurrentOutputKw + s.Wind.CurrentOutputKw + s.Grid.TotalPowerKw
}

// Validate fails fast on a malformed station snapshot.
func (s Station) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: station id is empty", ErrInvalidInput)
	}
	if s.CapacityAvailable < 0 || s.CapacityAvailable > s.CapacityTotal {
		return fmt.Errorf("%w: capacity available %d outside [0,%d]", ErrInvalidInput, s.CapacityAvailable, s.CapacityTotal)
	}
	if err := s.Location.Validate(); err != nil {
		return fmt.Errorf("%w: location: %v", ErrInvalidInput, err)
	}
	return nil
}
