package charging

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dronershare/mobility/core/energy"
	"github.com/dronershare/mobility/core/model"
)

const (
	// DefaultMaxDistanceKm bounds the station search radius.
	DefaultMaxDistanceKm = 50.0
	// candidateCap limits how many repository candidates are ranked.
	candidateCap = 5
	// packCapacityKwh is the assumed drone battery pack size.
	packCapacityKwh = 50.0
	// chargingEfficiency is the fraction of station output reaching the pack.
	chargingEfficiency = 0.85
)

// ErrNoStationAvailable is returned when no active station with free
// capacity exists within the search radius.
var ErrNoStationAvailable = errors.New("no charging station available")

// FindNearestStation ranks the candidate stations supplied by the repository
// (already filtered by proximity) and returns the one with the highest total
// charging power among active stations with a free slot. At most the first
// five candidates are considered, mirroring the repository query cap.
func FindNearestStation(candidates []model.Station) (model.Station, error) {
	var best model.Station
	found := false
	ranked := 0
	for _, st := range candidates {
		if !st.IsActive || st.CapacityAvailable <= 0 {
			continue
		}
		if ranked >= candidateCap {
			break
		}
		ranked++
		if !found || st.TotalChargingPowerKw() > best.TotalChargingPowerKw() {
			best = st
			found = true
		}
	}
	if !found {
		return model.Station{}, ErrNoStationAvailable
	}
	return best, nil
}

// EstimateChargingMinutes returns the time to charge from current to target
// percent at the given station. A station with zero total power yields
// +Inf: an explicitly unbounded result, not an error, so callers can reject
// it as a charging target without branching on a sentinel number.
func EstimateChargingMinutes(currentBattery, targetBattery float64, st model.Station) (float64, error) {
	if currentBattery < 0 || currentBattery > 100 {
		return 0, fmt.Errorf("%w: current battery %v outside [0,100]", model.ErrInvalidInput, currentBattery)
	}
	if targetBattery < 0 || targetBattery > 100 {
		return 0, fmt.Errorf("%w: target battery %v outside [0,100]", model.ErrInvalidInput, targetBattery)
	}
	power := st.TotalChargingPowerKw()
	if power == 0 {
		return math.Inf(1), nil
	}
	requiredKwh := (targetBattery - currentBattery) / 100 * packCapacityKwh
	hours := requiredKwh / (power * chargingEfficiency)
	return hours * 60, nil
}

// Unbounded reports whether a charging estimate is unboundedly slow.
func Unbounded(minutes float64) bool { return math.IsInf(minutes, 1) }

// Schedule is the intent to charge one vehicle at one station. The caller
// must apply the corresponding state transitions (vehicle to charging,
// station capacity minus one) through its own commit step; the allocator is
// stateless and side-effect-free.
type Schedule struct {
	ID                      string    `json:"id"`
	VehicleID               string    `json:"vehicle_id"`
	StationID               string    `json:"station_id"`
	CurrentBattery          float64   `json:"current_battery"`
	TargetBattery           float64   `json:"target_battery"`
	EstimatedMinutes        float64   `json:"estimated_minutes"`
	EstimatedCompletionTime time.Time `json:"estimated_completion_time"`
}

// NewSchedule builds a charging schedule targeting the optimal charge level.
func NewSchedule(v model.Vehicle, st model.Station, now time.Time) (Schedule, error) {
	if err := v.Validate(); err != nil {
		return Schedule{}, err
	}
	if err := st.Validate(); err != nil {
		return Schedule{}, err
	}
	minutes, err := EstimateChargingMinutes(v.BatteryLevel, energy.OptimalChargeLevel, st)
	if err != nil {
		return Schedule{}, err
	}
	// A vehicle already at or above the target needs no charging time.
	if minutes < 0 {
		minutes = 0
	}
	sched := Schedule{
		ID:               uuid.NewString(),
		VehicleID:        v.ID,
		StationID:        st.ID,
		CurrentBattery:   v.BatteryLevel,
		TargetBattery:    energy.OptimalChargeLevel,
		EstimatedMinutes: minutes,
	}
	if !Unbounded(minutes) {
		sched.EstimatedCompletionTime = now.Add(time.Duration(minutes * float64(time.Minute)))
	}
	return sched, nil
}
