// Package analytics computes fleet-wide KPIs from vehicle snapshots.
package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dronershare/mobility/core/energy"
	"github.com/dronershare/mobility/core/model"
)

// BatteryStats summarises the battery distribution across a fleet.
type BatteryStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// FleetReport is a point-in-time health summary of the fleet.
type FleetReport struct {
	VehicleCount    int          `json:"vehicle_count"`
	Battery         BatteryStats `json:"battery"`
	AvailableCount  int          `json:"available_count"`
	InUseCount      int          `json:"in_use_count"`
	ChargingCount   int          `json:"charging_count"`
	LowBatteryCount int          `json:"low_battery_count"`
	UtilizationPct  float64      `json:"utilization_pct"`
	TotalFlights    int          `json:"total_flights"`
	MeanFlightHours float64      `json:"mean_flight_hours"`
}

// Summarize computes a FleetReport over the given snapshots. An empty fleet
// yields a zero report.
func Summarize(vehicles []model.Vehicle) FleetReport {
	rep := FleetReport{VehicleCount: len(vehicles)}
	if len(vehicles) == 0 {
		return rep
	}

	batteries := make([]float64, 0, len(vehicles))
	hours := make([]float64, 0, len(vehicles))
	for _, v := range vehicles {
		batteries = append(batteries, v.BatteryLevel)
		hours = append(hours, v.FlightHours)
		rep.TotalFlights += v.TotalFlights
		if v.BatteryLevel < energy.ChargingThreshold {
			rep.LowBatteryCount++
		}
		switch v.Status {
		case model.StatusAvailable:
			rep.AvailableCount++
		case model.StatusInUse:
			rep.InUseCount++
		case model.StatusCharging:
			rep.ChargingCount++
		}
	}

	sort.Float64s(batteries)
	stddev := 0.0
	if len(batteries) > 1 {
		stddev = stat.StdDev(batteries, nil)
	}
	rep.Battery = BatteryStats{
		Mean:   stat.Mean(batteries, nil),
		StdDev: stddev,
		Median: stat.Quantile(0.5, stat.Empirical, batteries, nil),
		Min:    batteries[0],
		Max:    batteries[len(batteries)-1],
	}
	rep.UtilizationPct = float64(rep.InUseCount) / float64(len(vehicles)) * 100
	rep.MeanFlightHours = stat.Mean(hours, nil)
	return rep
}
