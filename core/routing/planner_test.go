package routing

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/model"
)

var (
	cityCenter = geo.Point{Lat: 50.0755, Lng: 14.4378}
	oldTown    = geo.Point{Lat: 50.0875, Lng: 14.4214}
	suburb     = geo.Point{Lat: 50.2, Lng: 14.6}
)

func TestPlanRouteShortHop(t *testing.T) {
	p := NewPlanner(nil, Config{})
	route, err := p.PlanRoute(context.Background(), cityCenter, oldTown, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.DirectDistanceKm < 1 || route.DirectDistanceKm > 2 {
		t.Errorf("expected direct distance 1-2 km, got %v", route.DirectDistanceKm)
	}
	if len(route.Waypoints) < 2 {
		t.Errorf("expected at least 2 waypoints, got %d", len(route.Waypoints))
	}
	if route.EnergyRequiredPercent <= 0 {
		t.Errorf("expected positive energy requirement, got %v", route.EnergyRequiredPercent)
	}
	if route.Start() != cityCenter || route.End() != oldTown {
		t.Errorf("route endpoints do not match request")
	}
}

func TestPlanRouteInvariants(t *testing.T) {
	p := NewPlanner(nil, Config{})
	pairs := []struct{ a, b geo.Point }{
		{cityCenter, oldTown},
		{cityCenter, suburb},
		{suburb, oldTown},
	}
	for _, pair := range pairs {
		route, err := p.PlanRoute(context.Background(), pair.a, pair.b, Options{PayloadKg: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if route.DistanceKm < route.DirectDistanceKm-1e-9 {
			t.Errorf("route distance %v shorter than direct %v", route.DistanceKm, route.DirectDistanceKm)
		}
		if route.PathEfficiencyPercent > 100+1e-9 {
			t.Errorf("path efficiency %v above 100", route.PathEfficiencyPercent)
		}
		if route.SafetyScore < 0 || route.SafetyScore > 100 {
			t.Errorf("safety score %v outside [0,100]", route.SafetyScore)
		}
	}
}

func TestPlanRouteDeterministic(t *testing.T) {
	p := NewPlanner(nil, Config{})
	first, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{PayloadKg: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{PayloadKg: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different routes")
	}
}

func TestPlanRouteSegmentSpacing(t *testing.T) {
	p := NewPlanner(nil, Config{})
	route, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Long clear corridor gets an interpolated waypoint roughly every 5 km.
	// Pruning may drop collinear points, but spacing between surviving
	// neighbors can never exceed the corridor itself.
	for i := 0; i < len(route.Waypoints)-1; i++ {
		leg := geo.Distance(route.Waypoints[i], route.Waypoints[i+1])
		if leg > route.DirectDistanceKm+1e-9 {
			t.Errorf("leg %d longer than corridor: %v", i, leg)
		}
	}
}

func TestPlanRouteDegenerate(t *testing.T) {
	p := NewPlanner(nil, Config{})
	route, err := p.PlanRoute(context.Background(), cityCenter, cityCenter, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.DistanceKm != 0 {
		t.Errorf("expected zero distance, got %v", route.DistanceKm)
	}
	if len(route.Waypoints) != 2 {
		t.Errorf("expected start and end waypoints, got %d", len(route.Waypoints))
	}
	if route.PathEfficiencyPercent != 100 {
		t.Errorf("expected efficiency 100 for degenerate route, got %v", route.PathEfficiencyPercent)
	}
}

func TestPlanRouteObstacleAvoidance(t *testing.T) {
	mid := geo.Midpoint(cityCenter, suburb)
	lookup := StaticObstacles{{Center: mid, RadiusKm: 2}}
	p := NewPlanner(lookup, Config{})

	route, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Waypoints) != 3 {
		t.Fatalf("expected one avoidance waypoint, got %d total", len(route.Waypoints))
	}
	avoid := route.Waypoints[1]
	// The avoidance point sits outward of the corridor midpoint by the
	// obstacle radius in each axis.
	if avoid.Lat <= mid.Lat || avoid.Lng <= mid.Lng {
		t.Errorf("avoidance waypoint %+v not offset outward from midpoint %+v", avoid, mid)
	}
	if route.DistanceKm <= route.DirectDistanceKm {
		t.Errorf("detour should exceed direct distance")
	}
}

func TestPlanRoutePayloadDeratesSpeedAndEnergy(t *testing.T) {
	p := NewPlanner(nil, Config{})
	empty, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{PayloadKg: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.DurationMinutes <= empty.DurationMinutes {
		t.Errorf("payload should slow the flight: %v vs %v", loaded.DurationMinutes, empty.DurationMinutes)
	}
	if loaded.EnergyRequiredPercent <= empty.EnergyRequiredPercent {
		t.Errorf("payload should raise consumption: %v vs %v", loaded.EnergyRequiredPercent, empty.EnergyRequiredPercent)
	}
	// At 100 kg the derate factors are exactly 1.2 and 1.5.
	wantDuration := empty.DurationMinutes * 1.2
	if math.Abs(loaded.DurationMinutes-wantDuration) > 1e-9 {
		t.Errorf("expected duration %v, got %v", wantDuration, loaded.DurationMinutes)
	}
	wantEnergy := empty.EnergyRequiredPercent * 1.5
	if math.Abs(loaded.EnergyRequiredPercent-wantEnergy) > 1e-9 {
		t.Errorf("expected energy %v, got %v", wantEnergy, loaded.EnergyRequiredPercent)
	}
}

func TestPlanRouteInvalidInput(t *testing.T) {
	p := NewPlanner(nil, Config{})
	if _, err := p.PlanRoute(context.Background(), geo.Point{Lat: 99}, suburb, Options{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("bad start should be invalid, got %v", err)
	}
	if _, err := p.PlanRoute(context.Background(), cityCenter, geo.Point{Lng: 999}, Options{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("bad end should be invalid, got %v", err)
	}
	if _, err := p.PlanRoute(context.Background(), cityCenter, suburb, Options{PayloadKg: -1}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative payload should be invalid, got %v", err)
	}
}

func TestSafetyScorePenalty(t *testing.T) {
	cases := []struct {
		waypoints int
		want      float64
	}{
		{2, 100},
		{5, 100},
		{6, 98},
		{10, 90},
		{60, 0},
	}
	for _, c := range cases {
		if got := safetyScore(c.waypoints); got != c.want {
			t.Errorf("safetyScore(%d) = %v, want %v", c.waypoints, got, c.want)
		}
	}
}

func TestStaticCheckerClearance(t *testing.T) {
	cl, err := StaticChecker{}.CheckRestrictions(context.Background(), cityCenter, suburb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cl.Allowed {
		t.Errorf("static checker should allow the corridor")
	}
	if len(cl.Restrictions) == 0 {
		t.Errorf("expected standing restrictions to be listed")
	}
	if cl.RequiresPermit {
		t.Errorf("no permit expected")
	}
}
