package charging

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/dronershare/mobility/core/energy"
	"github.com/dronershare/mobility/core/model"
)

// ErrInfeasible indicates the LP had no feasible power split.
var ErrInfeasible = errors.New("lp infeasible")

// lpSolve points to the function used to solve the LP. Overridable in tests
// to simulate solver failures.
var lpSolve = solveLP

// PowerAllocator splits a station's live output among the vehicles docked on
// its pads. The split maximizes a charge-deficit weighted objective so the
// emptiest batteries charge fastest, subject to a per-vehicle intake cap.
type PowerAllocator struct {
	// MaxIntakeKw caps how much power a single pad can push into one
	// vehicle. Zero means no cap beyond the station output.
	MaxIntakeKw float64
}

// Allocate returns the power in kW assigned to each docked vehicle. When the
// solver fails the full output is split equally instead, still respecting
// the intake cap.
func (a PowerAllocator) Allocate(st model.Station, docked []model.Vehicle) map[string]float64 {
	assignments, err := a.AllocateStrict(st, docked)
	if err != nil {
		return a.equalShare(st, docked)
	}
	return assignments
}

// AllocateStrict solves the LP and surfaces solver failures to the caller.
func (a PowerAllocator) AllocateStrict(st model.Station, docked []model.Vehicle) (map[string]float64, error) {
	assignments := make(map[string]float64)
	output := st.TotalChargingPowerKw()
	if len(docked) == 0 || output == 0 {
		return assignments, nil
	}

	ids := make([]string, 0, len(docked))
	weights := make([]float64, 0, len(docked))
	caps := make([]float64, 0, len(docked))
	for _, v := range docked {
		deficit := energy.OptimalChargeLevel - v.BatteryLevel
		if deficit <= 0 {
			continue
		}
		ids = append(ids, v.ID)
		weights = append(weights, deficit/energy.OptimalChargeLevel)
		caps = append(caps, a.intakeCap(output))
	}
	if len(ids) == 0 {
		return assignments, nil
	}

	// The station cannot hand out more than it generates; if the pads
	// cannot absorb the full output, target their combined cap instead.
	target := output
	var capSum float64
	for _, c := range caps {
		capSum += c
	}
	if capSum < target {
		target = capSum
	}

	sol, err := lpSolve(weights, caps, target)
	if err != nil {
		return nil, err
	}

	var sum float64
	for i, id := range ids {
		power := sol[i]
		if power < 0 {
			power = 0
		}
		if power > caps[i] {
			power = caps[i]
		}
		assignments[id] = power
		sum += power
	}
	if math.Abs(sum-target) > 1e-3 {
		return assignments, ErrInfeasible
	}
	return assignments, nil
}

func (a PowerAllocator) intakeCap(output float64) float64 {
	if a.MaxIntakeKw > 0 && a.MaxIntakeKw < output {
		return a.MaxIntakeKw
	}
	return output
}

func (a PowerAllocator) equalShare(st model.Station, docked []model.Vehicle) map[string]float64 {
	assignments := make(map[string]float64, len(docked))
	output := st.TotalChargingPowerKw()
	if len(docked) == 0 || output == 0 {
		return assignments
	}
	share := output / float64(len(docked))
	cap := a.intakeCap(output)
	if share > cap {
		share = cap
	}
	for _, v := range docked {
		assignments[v.ID] = share
	}
	return assignments
}

// solveLP maximizes the weighted allocation subject to per-vehicle caps and
// the exact power target using the simplex method.
func solveLP(weights, caps []float64, target float64) ([]float64, error) {
	c := make([]float64, len(weights))
	for i, w := range weights {
		c[i] = -w
	}

	g := mat.NewDense(len(caps), len(caps), nil)
	h := make([]float64, len(caps))
	for i, capKw := range caps {
		g.Set(i, i, 1)
		h[i] = capKw
	}

	A := mat.NewDense(1, len(caps), nil)
	for i := range caps {
		A.Set(0, i, 1)
	}
	b := []float64{target}

	cStd, AStd, bStd := lp.Convert(c, g, h, A, b)
	_, sol, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	return sol, err
}
