package config

import "github.com/dronershare/mobility/core/charging"

// ChargingConfig tunes station selection and power allocation.
type ChargingConfig struct {
	// MaxStationDistanceKm limits how far a drone may be sent to charge.
	MaxStationDistanceKm float64 `json:"max_station_distance_km"`
	// MaxIntakeKw caps the charging power a single drone can draw.
	MaxIntakeKw float64 `json:"max_intake_kw"`
}

// SetDefaults applies sane defaults.
func (c *ChargingConfig) SetDefaults() {
	if c.MaxStationDistanceKm <= 0 {
		c.MaxStationDistanceKm = charging.DefaultMaxDistanceKm
	}
	if c.MaxIntakeKw <= 0 {
		c.MaxIntakeKw = 11
	}
}
