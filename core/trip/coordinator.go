package trip

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dronershare/mobility/core/charging"
	"github.com/dronershare/mobility/core/energy"
	"github.com/dronershare/mobility/core/fleet"
	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/logger"
	"github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/core/model"
	"github.com/dronershare/mobility/core/routing"
	"github.com/dronershare/mobility/internal/eventbus"
)

// ErrRestrictedRoute means the legislative check disallowed the corridor.
// The trip must not proceed; the restriction list travels with the error for
// verbatim display.
var ErrRestrictedRoute = errors.New("route not allowed by legislative restrictions")

// RestrictedRouteError carries the restrictions that blocked the corridor.
type RestrictedRouteError struct {
	Restrictions []string
}

func (e *RestrictedRouteError) Error() string {
	return fmt.Sprintf("route not allowed, %d restrictions apply", len(e.Restrictions))
}

func (e *RestrictedRouteError) Unwrap() error { return ErrRestrictedRoute }

// Pricing constants from the reference tariff.
const baseCostPerKm = 50.0 // CZK

var levelMultiplier = map[model.ServiceLevel]float64{
	model.Level1: 1,
	model.Level2: 1.3,
	model.Level3: 1.5,
}

// Request describes a trip to be planned and staffed with a vehicle.
type Request struct {
	Start            geo.Point          `json:"start"`
	End              geo.Point          `json:"end"`
	ServiceLevel     model.ServiceLevel `json:"service_level"`
	PayloadKg        float64            `json:"payload_kg"`
	DroneType        string             `json:"drone_type,omitempty"`
	WeatherSensitive bool               `json:"weather_sensitive"`
}

// Result is a committed trip: the route, the clearance it flew under, the
// vehicle locked for it and the estimated price.
type Result struct {
	TripID     string            `json:"trip_id"`
	Route      model.Route       `json:"route"`
	Clearance  routing.Clearance `json:"clearance"`
	Vehicle    model.Vehicle     `json:"vehicle"`
	Assessment energy.Assessment `json:"assessment"`
	CostCZK    float64           `json:"cost_czk"`
}

// TripPlanned is published on the bus after a successful commit.
type TripPlanned struct {
	Result Result
	Time   time.Time
}

// ChargingScheduled is published after a charging claim is committed.
type ChargingScheduled struct {
	Schedule charging.Schedule
	Time     time.Time
}

// Coordinator drives the full trip and recharge flows: plan, clear, select,
// re-validate and commit. The underlying engines stay pure; all state
// transitions go through the repository's check-and-set commits, so
// concurrent requests can never double-book a vehicle or the last station
// slot.
type Coordinator struct {
	planner *routing.Planner
	checker routing.LegislativeChecker
	repo    fleet.Repository
	sink    metrics.Sink
	bus     *eventbus.Bus[any]
	log     logger.Logger
	now     func() time.Time

	// MaxStationDistanceKm bounds the recharge station search.
	MaxStationDistanceKm float64
}

// NewCoordinator wires a coordinator. Planner, checker and repository are
// mandatory; sink, bus and logger may be nil.
func NewCoordinator(planner *routing.Planner, checker routing.LegislativeChecker, repo fleet.Repository, sink metrics.Sink, bus *eventbus.Bus[any], log logger.Logger) (*Coordinator, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if checker == nil {
		return nil, errors.New("legislative checker is required")
	}
	if repo == nil {
		return nil, errors.New("fleet repository is required")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	c := &Coordinator{
		planner:              planner,
		checker:              checker,
		repo:                 repo,
		sink:                 sink,
		bus:                  bus,
		log:                  log,
		now:                  time.Now,
		MaxStationDistanceKm: charging.DefaultMaxDistanceKm,
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	return c, nil
}

// PlanTrip plans the route, verifies the corridor is allowed, selects the
// best-suited vehicle and commits the assignment. The returned result is
// final: the vehicle is locked until the caller releases it.
func (c *Coordinator) PlanTrip(ctx context.Context, req Request) (Result, error) {
	route, err := c.planner.PlanRoute(ctx, req.Start, req.End, routing.Options{
		PayloadKg:        req.PayloadKg,
		DroneType:        req.DroneType,
		WeatherSensitive: req.WeatherSensitive,
	})
	if err != nil {
		reason := "route_failed"
		if errors.Is(err, model.ErrInvalidInput) {
			reason = "invalid_input"
		}
		c.reject("plan_trip", reason)
		return Result{}, err
	}

	clearance, err := c.checker.CheckRestrictions(ctx, req.Start, req.End)
	if err != nil {
		return Result{}, fmt.Errorf("legislative check: %w", err)
	}
	if !clearance.Allowed {
		c.reject("plan_trip", "restricted")
		return Result{}, &RestrictedRouteError{Restrictions: clearance.Restrictions}
	}

	candidates := c.repo.Vehicles(fleet.VehicleQuery{
		Status:       model.StatusAvailable,
		ServiceLevel: req.ServiceLevel,
		MinRangeKm:   route.DistanceKm,
	})

	vehicle, err := c.selectAndCommit(candidates, route.EnergyRequiredPercent)
	if err != nil {
		c.reject("plan_trip", "no_vehicle")
		return Result{}, err
	}

	assessment, err := energy.AssessBattery(vehicle, route.EnergyRequiredPercent)
	if err != nil {
		// The commit already went through; free the vehicle again.
		if relErr := c.repo.ReleaseVehicle(vehicle.ID); relErr != nil {
			c.log.Errorf("release after failed assessment: %v", relErr)
		}
		return Result{}, err
	}

	res := Result{
		TripID:     uuid.NewString(),
		Route:      route,
		Clearance:  clearance,
		Vehicle:    vehicle,
		Assessment: assessment,
		CostCZK:    EstimateCost(route.DistanceKm, req.ServiceLevel),
	}
	now := c.now()
	c.publish(TripPlanned{Result: res, Time: now})
	if err := c.sink.RecordTrip(metrics.TripEvent{
		TripID:       res.TripID,
		VehicleID:    vehicle.ID,
		ServiceLevel: req.ServiceLevel,
		Route:        route,
		CostCZK:      res.CostCZK,
		Time:         now,
	}); err != nil {
		c.log.Errorf("record trip: %v", err)
	}
	c.log.Infof("trip %s: %.2f km on %s, %.1f%% energy", res.TripID, route.DistanceKm, vehicle.ID, route.EnergyRequiredPercent)
	return res, nil
}

// selectAndCommit re-validates the recommendation with a check-and-set
// commit. Losing the race drops the contested vehicle from the candidate set
// and selects again; exhaustion surfaces as ErrNoSuitableVehicle.
func (c *Coordinator) selectAndCommit(candidates []model.Vehicle, requiredEnergy float64) (model.Vehicle, error) {
	remaining := candidates
	for len(remaining) > 0 {
		selected, err := energy.SelectOptimalVehicle(remaining, requiredEnergy)
		if err != nil {
			return model.Vehicle{}, err
		}
		err = c.repo.CommitAssignment(selected.ID)
		if err == nil {
			return selected, nil
		}
		if !errors.Is(err, fleet.ErrConflict) {
			return model.Vehicle{}, err
		}
		c.log.Warnf("vehicle %s taken concurrently, reselecting", selected.ID)
		filtered := remaining[:0:0]
		for _, v := range remaining {
			if v.ID != selected.ID {
				filtered = append(filtered, v)
			}
		}
		remaining = filtered
	}
	return model.Vehicle{}, energy.ErrNoSuitableVehicle
}

// RequestCharge finds the best charging station near the vehicle, builds the
// schedule and commits the claim. Stations whose estimate is unboundedly
// slow are skipped as charging targets.
func (c *Coordinator) RequestCharge(ctx context.Context, vehicleID string) (charging.Schedule, error) {
	vehicle, err := c.repo.Vehicle(vehicleID)
	if err != nil {
		return charging.Schedule{}, err
	}

	remaining := c.repo.StationsNear(vehicle.Location, c.MaxStationDistanceKm)
	for {
		station, err := charging.FindNearestStation(remaining)
		if err != nil {
			c.reject("request_charge", "no_station")
			return charging.Schedule{}, err
		}

		sched, err := charging.NewSchedule(vehicle, station, c.now())
		if err != nil {
			return charging.Schedule{}, err
		}
		if charging.Unbounded(sched.EstimatedMinutes) {
			c.log.Warnf("station %s has no charging power, skipping", station.ID)
			remaining = without(remaining, station.ID)
			continue
		}

		if err := c.repo.CommitChargingClaim(vehicle.ID, station.ID); err != nil {
			if errors.Is(err, fleet.ErrConflict) {
				c.log.Warnf("station %s claimed concurrently, reselecting", station.ID)
				remaining = without(remaining, station.ID)
				continue
			}
			return charging.Schedule{}, err
		}

		now := c.now()
		c.publish(ChargingScheduled{Schedule: sched, Time: now})
		if err := c.sink.RecordCharging(metrics.ChargingEvent{
			ScheduleID:       sched.ID,
			VehicleID:        sched.VehicleID,
			StationID:        sched.StationID,
			StartBattery:     sched.CurrentBattery,
			TargetBattery:    sched.TargetBattery,
			EstimatedMinutes: sched.EstimatedMinutes,
			Unbounded:        charging.Unbounded(sched.EstimatedMinutes),
			Time:             now,
		}); err != nil {
			c.log.Errorf("record charging: %v", err)
		}
		c.log.Infof("charging %s at %s for %.0f min", sched.VehicleID, sched.StationID, sched.EstimatedMinutes)
		return sched, nil
	}
}

// EstimateCost prices a trip from its distance and service level, rounded up
// to whole CZK.
func EstimateCost(distanceKm float64, level model.ServiceLevel) float64 {
	mult, ok := levelMultiplier[level]
	if !ok {
		mult = 1
	}
	return math.Ceil(distanceKm * baseCostPerKm * mult)
}

func (c *Coordinator) publish(ev any) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func (c *Coordinator) reject(op, reason string) {
	if err := c.sink.RecordRejection(metrics.RejectionEvent{Operation: op, Reason: reason, Time: c.now()}); err != nil {
		c.log.Errorf("record rejection: %v", err)
	}
}

func without(stations []model.Station, id string) []model.Station {
	out := stations[:0:0]
	for _, st := range stations {
		if st.ID != id {
			out = append(out, st)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
