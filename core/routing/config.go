package routing

import "fmt"

// Config defines the tunables of the route planner. Zero values are replaced
// with the reference defaults by SetDefaults.
type Config struct {
	// SegmentKm is the spacing of intermediate waypoints on a clear corridor.
	SegmentKm float64 `json:"segment_km"`
	// PruneDetourKm drops an interior waypoint when routing through it adds
	// at most this many kilometers of detour.
	PruneDetourKm float64 `json:"prune_detour_km"`
	// BaseSpeedKmh is the cruise speed of an unloaded drone.
	BaseSpeedKmh float64 `json:"base_speed_kmh"`
	// ConsumptionPerKm is the battery percentage drained per kilometer
	// without payload.
	ConsumptionPerKm float64 `json:"consumption_per_km"`
	// DefaultAvoidRadiusKm offsets avoidance waypoints for obstacles that
	// carry no radius of their own.
	DefaultAvoidRadiusKm float64 `json:"default_avoid_radius_km"`
}

// SetDefaults applies the reference planner parameters.
func (c *Config) SetDefaults() {
	if c.SegmentKm == 0 {
		c.SegmentKm = 5
	}
	if c.PruneDetourKm == 0 {
		c.PruneDetourKm = 0.5
	}
	if c.BaseSpeedKmh == 0 {
		c.BaseSpeedKmh = 60
	}
	if c.ConsumptionPerKm == 0 {
		c.ConsumptionPerKm = 2
	}
	if c.DefaultAvoidRadiusKm == 0 {
		c.DefaultAvoidRadiusKm = 1
	}
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.SegmentKm < 0 {
		return fmt.Errorf("segment_km must not be negative")
	}
	if c.BaseSpeedKmh < 0 {
		return fmt.Errorf("base_speed_kmh must not be negative")
	}
	if c.ConsumptionPerKm < 0 {
		return fmt.Errorf("consumption_per_km must not be negative")
	}
	return nil
}
