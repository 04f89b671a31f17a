package energy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dronershare/mobility/core/model"
)

// Battery management thresholds, in percent of battery.
const (
	// ChargingThreshold is the level below which a vehicle must recharge
	// before serving any trip.
	ChargingThreshold = 20.0
	// OptimalChargeLevel is the target state of charge for a charging session.
	OptimalChargeLevel = 90.0
	// SafetyMargin is the reserve required beyond a route's estimated
	// consumption.
	SafetyMargin = 15.0
	// PreferredSurplus is the ideal headroom above the requirement when
	// ranking candidates, balancing battery wear across the fleet.
	PreferredSurplus = 25.0
)

// ErrNoSuitableVehicle is returned when no candidate clears the battery plus
// safety-margin threshold. Surfaced to the user as "try again later or choose
// a shorter route"; never retried internally.
var ErrNoSuitableVehicle = errors.New("no vehicle with sufficient battery")

// Recommendation summarizes a battery assessment.
type Recommendation string

const (
	ChargeRequired       Recommendation = "CHARGE_REQUIRED"
	InsufficientForRoute Recommendation = "INSUFFICIENT_FOR_ROUTE"
	ChargeRecommended    Recommendation = "CHARGE_RECOMMENDED"
	Sufficient           Recommendation = "SUFFICIENT"
)

// Assessment is the outcome of checking one vehicle against one route's
// energy requirement. Pure computed value with no identity.
type Assessment struct {
	HasSufficient                 bool           `json:"has_sufficient"`
	CurrentLevel                  float64        `json:"current_level"`
	RequiredEnergy                float64        `json:"required_energy"`
	SafetyMarginPercent           float64        `json:"safety_margin_percent"`
	TotalRequired                 float64        `json:"total_required"`
	EstimatedRemainingAfterFlight float64        `json:"estimated_remaining_after_flight"`
	NeedsCharging                 bool           `json:"needs_charging"`
	Recommendation                Recommendation `json:"recommendation"`
}

// AssessBattery evaluates whether the vehicle's battery covers the route's
// energy requirement plus the fixed safety margin.
func AssessBattery(v model.Vehicle, requiredEnergy float64) (Assessment, error) {
	if err := validateLevel(v.BatteryLevel); err != nil {
		return Assessment{}, err
	}
	if requiredEnergy < 0 || math.IsNaN(requiredEnergy) {
		return Assessment{}, fmt.Errorf("%w: required energy %v", model.ErrInvalidInput, requiredEnergy)
	}

	total := requiredEnergy + SafetyMargin
	return Assessment{
		HasSufficient:                 v.BatteryLevel >= total,
		CurrentLevel:                  v.BatteryLevel,
		RequiredEnergy:                requiredEnergy,
		SafetyMarginPercent:           SafetyMargin,
		TotalRequired:                 total,
		EstimatedRemainingAfterFlight: v.BatteryLevel - requiredEnergy,
		NeedsCharging:                 v.BatteryLevel < ChargingThreshold,
		Recommendation:                recommend(v.BatteryLevel, total),
	}, nil
}

// recommend applies the threshold ladder in precedence order: a vehicle below
// the hard charging threshold is always CHARGE_REQUIRED, even when the total
// requirement alone would classify it as merely insufficient.
func recommend(level, totalRequired float64) Recommendation {
	switch {
	case level < ChargingThreshold:
		return ChargeRequired
	case level < totalRequired:
		return InsufficientForRoute
	case level < totalRequired+20:
		return ChargeRecommended
	default:
		return Sufficient
	}
}

// SelectOptimalVehicle picks the candidate whose battery sits closest to the
// requirement plus PreferredSurplus, among those clearing the requirement
// plus SafetyMargin. Ties keep input order. Preferring the closest rather
// than the fullest vehicle balances battery usage across the fleet.
func SelectOptimalVehicle(candidates []model.Vehicle, requiredEnergy float64) (model.Vehicle, error) {
	if requiredEnergy < 0 || math.IsNaN(requiredEnergy) {
		return model.Vehicle{}, fmt.Errorf("%w: required energy %v", model.ErrInvalidInput, requiredEnergy)
	}

	suitable := make([]model.Vehicle, 0, len(candidates))
	for _, v := range candidates {
		if err := validateLevel(v.BatteryLevel); err != nil {
			return model.Vehicle{}, fmt.Errorf("vehicle %s: %w", v.ID, err)
		}
		if v.BatteryLevel >= requiredEnergy+SafetyMargin {
			suitable = append(suitable, v)
		}
	}
	if len(suitable) == 0 {
		return model.Vehicle{}, ErrNoSuitableVehicle
	}

	ideal := requiredEnergy + PreferredSurplus
	sort.SliceStable(suitable, func(i, j int) bool {
		return math.Abs(suitable[i].BatteryLevel-ideal) < math.Abs(suitable[j].BatteryLevel-ideal)
	})
	return suitable[0], nil
}

func validateLevel(level float64) error {
	if level < 0 || level > 100 || math.IsNaN(level) {
		return fmt.Errorf("%w: battery level %v outside [0,100]", model.ErrInvalidInput, level)
	}
	return nil
}
