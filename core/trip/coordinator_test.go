package trip

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dronershare/mobility/core/charging"
	"github.com/dronershare/mobility/core/energy"
	"github.com/dronershare/mobility/core/fleet"
	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/core/model"
	"github.com/dronershare/mobility/core/routing"
	"github.com/dronershare/mobility/internal/eventbus"
)

var (
	start = geo.Point{Lat: 50.0755, Lng: 14.4378}
	end   = geo.Point{Lat: 50.0875, Lng: 14.4214}
)

type denyAllChecker struct{}

func (denyAllChecker) CheckRestrictions(context.Context, geo.Point, geo.Point) (routing.Clearance, error) {
	return routing.Clearance{Allowed: false, Restrictions: []string{"restricted military area"}}, nil
}

type recordingSink struct {
	metrics.NopSink
	mu         sync.Mutex
	trips      []metrics.TripEvent
	charges    []metrics.ChargingEvent
	rejections []metrics.RejectionEvent
}

func (s *recordingSink) RecordTrip(ev metrics.TripEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, ev)
	return nil
}

func (s *recordingSink) RecordCharging(ev metrics.ChargingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges = append(s.charges, ev)
	return nil
}

func (s *recordingSink) RecordRejection(ev metrics.RejectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections = append(s.rejections, ev)
	return nil
}

func testStore(t *testing.T, vehicles []model.Vehicle, stations []model.Station) *fleet.MemoryStore {
	t.Helper()
	s := fleet.NewMemoryStore()
	for _, v := range vehicles {
		if err := s.PutVehicle(v); err != nil {
			t.Fatalf("put vehicle: %v", err)
		}
	}
	for _, st := range stations {
		if err := s.PutStation(st); err != nil {
			t.Fatalf("put station: %v", err)
		}
	}
	return s
}

func fleetVehicle(id string, battery float64) model.Vehicle {
	return model.Vehicle{
		ID:           id,
		BatteryLevel: battery,
		MaxRangeKm:   100,
		MaxPayloadKg: 20,
		MaxSpeedKmh:  80,
		ServiceLevel: model.Level1,
		Status:       model.StatusAvailable,
		Location:     start,
	}
}

func gridStation(id string, power float64, available int) model.Station {
	return model.Station{
		ID:                id,
		Location:          start,
		CapacityTotal:     4,
		CapacityAvailable: available,
		Grid:              model.GridSource{TotalPowerKw: power},
		IsActive:          true,
	}
}

func newTestCoordinator(t *testing.T, store *fleet.MemoryStore, checker routing.LegislativeChecker, sink metrics.Sink) *Coordinator {
	t.Helper()
	if checker == nil {
		checker = routing.StaticChecker{}
	}
	c, err := NewCoordinator(routing.NewPlanner(nil, routing.Config{}), checker, store, sink, nil, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c
}

func TestPlanTrip(t *testing.T) {
	store := testStore(t, []model.Vehicle{
		fleetVehicle("full", 95),
		fleetVehicle("close", 60),
		fleetVehicle("high", 85),
	}, nil)
	sink := &recordingSink{}
	c := newTestCoordinator(t, store, nil, sink)

	res, err := c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TripID == "" {
		t.Errorf("trip should carry an id")
	}
	if res.Route.DirectDistanceKm < 1 || res.Route.DirectDistanceKm > 2 {
		t.Errorf("unexpected direct distance %v", res.Route.DirectDistanceKm)
	}
	if !res.Assessment.HasSufficient {
		t.Errorf("selected vehicle should clear the requirement")
	}
	if res.CostCZK <= 0 {
		t.Errorf("expected positive cost, got %v", res.CostCZK)
	}

	// Short route needs little energy, so the vehicle closest to the ideal
	// surplus wins, and the commit locks it.
	v, err := store.Vehicle(res.Vehicle.ID)
	if err != nil {
		t.Fatalf("vehicle lookup: %v", err)
	}
	if v.Status != model.StatusInUse {
		t.Errorf("committed vehicle should be in_use, got %s", v.Status)
	}
	if len(sink.trips) != 1 || sink.trips[0].TripID != res.TripID {
		t.Errorf("trip not recorded: %+v", sink.trips)
	}
}

func TestPlanTripRestricted(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("d1", 90)}, nil)
	sink := &recordingSink{}
	c := newTestCoordinator(t, store, denyAllChecker{}, sink)

	_, err := c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
	if !errors.Is(err, ErrRestrictedRoute) {
		t.Fatalf("expected restricted route, got %v", err)
	}
	var rerr *RestrictedRouteError
	if !errors.As(err, &rerr) || len(rerr.Restrictions) == 0 {
		t.Fatalf("restrictions should travel with the error")
	}
	// The vehicle must remain untouched.
	v, _ := store.Vehicle("d1")
	if v.Status != model.StatusAvailable {
		t.Errorf("vehicle should stay available, got %s", v.Status)
	}
	if len(sink.rejections) != 1 || sink.rejections[0].Reason != "restricted" {
		t.Errorf("rejection not recorded: %+v", sink.rejections)
	}
}

func TestPlanTripNoSuitableVehicle(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("flat", 5)}, nil)
	sink := &recordingSink{}
	c := newTestCoordinator(t, store, nil, sink)

	_, err := c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
	if !errors.Is(err, energy.ErrNoSuitableVehicle) {
		t.Fatalf("expected no suitable vehicle, got %v", err)
	}
	if len(sink.rejections) != 1 || sink.rejections[0].Reason != "no_vehicle" {
		t.Errorf("rejection not recorded: %+v", sink.rejections)
	}
}

func TestPlanTripInvalidInput(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("d1", 90)}, nil)
	sink := &recordingSink{}
	c := newTestCoordinator(t, store, nil, sink)

	_, err := c.PlanTrip(context.Background(), Request{Start: geo.Point{Lat: 95}, End: end, ServiceLevel: model.Level1})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(sink.rejections) != 1 || sink.rejections[0].Reason != "invalid_input" {
		t.Errorf("rejection not recorded: %+v", sink.rejections)
	}
}

type failingObstacles struct{}

func (failingObstacles) Obstacles(context.Context, geo.Point, geo.Point) ([]model.Obstacle, error) {
	return nil, errors.New("airspace service unavailable")
}

func TestPlanTripObstacleLookupFailure(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("d1", 90)}, nil)
	sink := &recordingSink{}
	c, err := NewCoordinator(routing.NewPlanner(failingObstacles{}, routing.Config{}), routing.StaticChecker{}, store, sink, nil, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	_, err = c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
	if err == nil {
		t.Fatal("expected planner error")
	}
	if errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("collaborator failure reported as invalid input: %v", err)
	}
	if len(sink.rejections) != 1 || sink.rejections[0].Reason != "route_failed" {
		t.Errorf("rejection not recorded as route_failed: %+v", sink.rejections)
	}
}

func TestPlanTripFiltersRange(t *testing.T) {
	shortRange := fleetVehicle("short", 90)
	shortRange.MaxRangeKm = 0.5
	store := testStore(t, []model.Vehicle{shortRange}, nil)
	c := newTestCoordinator(t, store, nil, &recordingSink{})

	_, err := c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
	if !errors.Is(err, energy.ErrNoSuitableVehicle) {
		t.Fatalf("vehicle below route range should be filtered, got %v", err)
	}
}

func TestPlanTripConcurrentRequestsNeverDoubleBook(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("only", 80)}, nil)
	c := newTestCoordinator(t, store, nil, &recordingSink{})

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = c.PlanTrip(context.Background(), Request{Start: start, End: end, ServiceLevel: model.Level1})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, energy.ErrNoSuitableVehicle) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one request may win the only vehicle, got %d", wins)
	}
}

func TestRequestCharge(t *testing.T) {
	store := testStore(t,
		[]model.Vehicle{fleetVehicle("d1", 30)},
		[]model.Station{gridStation("weak", 20, 2), gridStation("strong", 80, 1)},
	)
	sink := &recordingSink{}
	bus := eventbus.New[any]()
	c, err := NewCoordinator(routing.NewPlanner(nil, routing.Config{}), routing.StaticChecker{}, store, sink, bus, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	sub := bus.Subscribe()

	sched, err := c.RequestCharge(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.StationID != "strong" {
		t.Errorf("expected the strongest station, got %s", sched.StationID)
	}
	if sched.TargetBattery != energy.OptimalChargeLevel {
		t.Errorf("expected target %v, got %v", energy.OptimalChargeLevel, sched.TargetBattery)
	}

	v, _ := store.Vehicle("d1")
	if v.Status != model.StatusCharging || v.CurrentStation != "strong" {
		t.Errorf("claim not committed: %+v", v)
	}
	st, _ := store.Station("strong")
	if st.CapacityAvailable != 0 {
		t.Errorf("slot not taken: %d", st.CapacityAvailable)
	}

	select {
	case ev := <-sub:
		if _, ok := ev.(ChargingScheduled); !ok {
			t.Errorf("expected ChargingScheduled event, got %T", ev)
		}
	default:
		t.Errorf("expected event on the bus")
	}
	if len(sink.charges) != 1 {
		t.Errorf("charging not recorded: %+v", sink.charges)
	} else if sink.charges[0].Unbounded {
		t.Errorf("committed schedule should never be unbounded: %+v", sink.charges[0])
	}
}

func TestRequestChargeSkipsUnpoweredStation(t *testing.T) {
	store := testStore(t,
		[]model.Vehicle{fleetVehicle("d1", 30)},
		[]model.Station{gridStation("dead", 0, 2), gridStation("live", 40, 1)},
	)
	c := newTestCoordinator(t, store, nil, &recordingSink{})

	sched, err := c.RequestCharge(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.StationID != "live" {
		t.Fatalf("unpowered station must be skipped, got %s", sched.StationID)
	}
}

func TestRequestChargeNoStation(t *testing.T) {
	store := testStore(t, []model.Vehicle{fleetVehicle("d1", 30)}, nil)
	sink := &recordingSink{}
	c := newTestCoordinator(t, store, nil, sink)

	_, err := c.RequestCharge(context.Background(), "d1")
	if !errors.Is(err, charging.ErrNoStationAvailable) {
		t.Fatalf("expected no station, got %v", err)
	}
	if len(sink.rejections) != 1 || sink.rejections[0].Reason != "no_station" {
		t.Errorf("rejection not recorded: %+v", sink.rejections)
	}
}

func TestRequestChargeUnknownVehicle(t *testing.T) {
	store := testStore(t, nil, nil)
	c := newTestCoordinator(t, store, nil, &recordingSink{})
	if _, err := c.RequestCharge(context.Background(), "ghost"); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEstimateCost(t *testing.T) {
	cases := []struct {
		distance float64
		level    model.ServiceLevel
		want     float64
	}{
		{10, model.Level1, 500},
		{10, model.Level2, 650},
		{10, model.Level3, 750},
		{1.01, model.Level1, 51},
		{10, "", 500}, // unknown levels fall back to the base tariff
	}
	for _, c := range cases {
		if got := EstimateCost(c.distance, c.level); got != c.want {
			t.Errorf("EstimateCost(%v, %q) = %v, want %v", c.distance, c.level, got, c.want)
		}
	}
}
