package model

import "github.com/dronershare/mobility/core/geo"

// Obstacle is a circular no-fly zone crossing the corridor of a trip.
type Obstacle struct {
	Center   geo.Point `json:"center"`
	RadiusKm float64   `json:"radius_km"`
}

// Route is the planned flight path between two points together with its
// derived metrics. A route is created fresh per planning call, never mutated
// afterwards and owned exclusively by the caller that requested it.
type Route struct {
	Waypoints             []geo.Point `json:"waypoints"`
	DistanceKm            float64     `json:"distance_km"`
	DirectDistanceKm      float64     `json:"direct_distance_km"`
	DurationMinutes       float64     `json:"duration_minutes"`
	EnergyRequiredPercent float64     `json:"energy_required_percent"`
	PathEfficiencyPercent float64     `json:"path_efficiency_percent"`
	SafetyScore           float64     `json:"safety_score"`
}

// Start returns the first waypoint. A planned route always has at least two.
func (r Route) Start() geo.Point { return r.Waypoints[0] }

// End returns the last waypoint.
func (r Route) End() geo.Point { return r.Waypoints[len(r.Waypoints)-1] }
