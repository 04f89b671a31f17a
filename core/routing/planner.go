package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/model"
)

// ObstacleLookup supplies the no-fly zones crossing the corridor between two
// points. An empty result means the corridor is clear.
type ObstacleLookup interface {
	Obstacles(ctx context.Context, start, end geo.Point) ([]model.Obstacle, error)
}

// NoObstacles is an ObstacleLookup that always reports a clear corridor.
type NoObstacles struct{}

func (NoObstacles) Obstacles(context.Context, geo.Point, geo.Point) ([]model.Obstacle, error) {
	return nil, nil
}

// StaticObstacles serves a fixed obstacle list regardless of the corridor.
type StaticObstacles []model.Obstacle

func (s StaticObstacles) Obstacles(context.Context, geo.Point, geo.Point) ([]model.Obstacle, error) {
	return s, nil
}

// Options carries the per-trip parameters affecting route metrics.
type Options struct {
	PayloadKg        float64 `json:"payload_kg"`
	DroneType        string  `json:"drone_type,omitempty"`
	WeatherSensitive bool    `json:"weather_sensitive"`
}

// Planner builds routes between two points while avoiding known obstacles.
// It is stateless apart from its configuration and safe for concurrent use.
type Planner struct {
	obstacles ObstacleLookup
	cfg       Config
}

// NewPlanner returns a Planner with defaults applied to the configuration.
// A nil lookup plans over a clear corridor.
func NewPlanner(lookup ObstacleLookup, cfg Config) *Planner {
	cfg.SetDefaults()
	if lookup == nil {
		lookup = NoObstacles{}
	}
	return &Planner{obstacles: lookup, cfg: cfg}
}

// PlanRoute computes the waypoint path from start to end and its metrics.
// Planning itself has no failure modes; an error means invalid input or a
// failing obstacle collaborator. Identical inputs yield identical routes.
func (p *Planner) PlanRoute(ctx context.Context, start, end geo.Point, opts Options) (model.Route, error) {
	if err := start.Validate(); err != nil {
		return model.Route{}, fmt.Errorf("%w: start: %v", model.ErrInvalidInput, err)
	}
	if err := end.Validate(); err != nil {
		return model.Route{}, fmt.Errorf("%w: end: %v", model.ErrInvalidInput, err)
	}
	if opts.PayloadKg < 0 {
		return model.Route{}, fmt.Errorf("%w: negative payload %v", model.ErrInvalidInput, opts.PayloadKg)
	}

	direct := geo.Distance(start, end)

	obstacles, err := p.obstacles.Obstacles(ctx, start, end)
	if err != nil {
		return model.Route{}, fmt.Errorf("obstacle lookup: %w", err)
	}

	waypoints := p.generateWaypoints(start, end, direct, obstacles)
	waypoints = p.pruneWaypoints(waypoints)

	distance := routeDistance(waypoints)
	efficiency := 100.0
	if distance > 0 {
		efficiency = direct / distance * 100
	}

	return model.Route{
		Waypoints:             waypoints,
		DistanceKm:            distance,
		DirectDistanceKm:      direct,
		DurationMinutes:       p.flightMinutes(distance, opts.PayloadKg),
		EnergyRequiredPercent: p.energyRequired(distance, opts.PayloadKg),
		PathEfficiencyPercent: efficiency,
		SafetyScore:           safetyScore(len(waypoints)),
	}, nil
}

// generateWaypoints applies one of two strategies. A clear corridor is
// subdivided every SegmentKm by linear interpolation. With obstacles present
// a single avoidance waypoint per obstacle replaces the interpolation; the
// offset point is not re-checked against the zone it avoids. The two
// strategies are intentionally exclusive, matching the reference behavior.
func (p *Planner) generateWaypoints(start, end geo.Point, direct float64, obstacles []model.Obstacle) []geo.Point {
	waypoints := []geo.Point{start}
	if len(obstacles) == 0 {
		segments := int(math.Ceil(direct / p.cfg.SegmentKm))
		for i := 1; i < segments; i++ {
			waypoints = append(waypoints, geo.Interpolate(start, end, float64(i)/float64(segments)))
		}
	} else {
		mid := geo.Midpoint(start, end)
		for _, ob := range obstacles {
			radius := ob.RadiusKm
			if radius <= 0 {
				radius = p.cfg.DefaultAvoidRadiusKm
			}
			waypoints = append(waypoints, geo.Offset(mid, radius))
		}
	}
	return append(waypoints, end)
}

// pruneWaypoints drops interior waypoints whose detour over the direct line
// between their neighbors is within PruneDetourKm. Endpoints always survive.
func (p *Planner) pruneWaypoints(waypoints []geo.Point) []geo.Point {
	if len(waypoints) <= 2 {
		return waypoints
	}
	kept := []geo.Point{waypoints[0]}
	for i := 1; i < len(waypoints)-1; i++ {
		prev := kept[len(kept)-1]
		next := waypoints[i+1]
		directDist := geo.Distance(prev, next)
		viaDist := geo.Distance(prev, waypoints[i]) + geo.Distance(waypoints[i], next)
		if viaDist-directDist > p.cfg.PruneDetourKm {
			kept = append(kept, waypoints[i])
		}
	}
	return append(kept, waypoints[len(waypoints)-1])
}

func routeDistance(waypoints []geo.Point) float64 {
	var total float64
	for i := 0; i < len(waypoints)-1; i++ {
		total += geo.Distance(waypoints[i], waypoints[i+1])
	}
	return total
}

// flightMinutes derates cruise speed linearly with payload, up to 20% at the
// reference payload of 100 kg.
func (p *Planner) flightMinutes(distance, payloadKg float64) float64 {
	effectiveSpeed := p.cfg.BaseSpeedKmh / (1 + (payloadKg/100)*0.2)
	return distance / effectiveSpeed * 60
}

// energyRequired scales base consumption with payload, up to 50% extra at
// the reference payload of 100 kg.
func (p *Planner) energyRequired(distance, payloadKg float64) float64 {
	return distance * p.cfg.ConsumptionPerKm * (1 + (payloadKg/100)*0.5)
}

// safetyScore penalizes route complexity: 2 points per waypoint beyond 5,
// clamped to [0,100].
func safetyScore(waypointCount int) float64 {
	score := 100 - math.Max(0, float64(waypointCount-5)*2)
	return math.Max(0, math.Min(100, score))
}
