package charging

import (
	"time"

	"github.com/dronershare/mobility/core/model"
)

// SourceReport is the live generation of one energy source at a station.
type SourceReport struct {
	CurrentKw         float64 `json:"current_kw"`
	CapacityKw        float64 `json:"capacity_kw"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
}

// RenewableReport aggregates per-source and total renewable generation.
type RenewableReport struct {
	StationID string       `json:"station_id"`
	Solar     SourceReport `json:"solar"`
	Wind      SourceReport `json:"wind"`
	Total     SourceReport `json:"total"`
	Timestamp time.Time    `json:"timestamp"`
}

// MonitorRenewableEnergy reports the renewable generation efficiency of a
// station, per source and in aggregate. Efficiency is current over capacity;
// a source with no installed capacity reports zero.
func MonitorRenewableEnergy(st model.Station, now time.Time) RenewableReport {
	solar := sourceReport(st.Solar.CurrentOutputKw, st.Solar.TotalPowerKw)
	wind := sourceReport(st.Wind.CurrentOutputKw, st.Wind.TotalPowerKw)
	total := sourceReport(solar.CurrentKw+wind.CurrentKw, solar.CapacityKw+wind.CapacityKw)
	return RenewableReport{
		StationID: st.ID,
		Solar:     solar,
		Wind:      wind,
		Total:     total,
		Timestamp: now,
	}
}

func sourceReport(current, capacity float64) SourceReport {
	r := SourceReport{CurrentKw: current, CapacityKw: capacity}
	if capacity > 0 {
		r.EfficiencyPercent = current / capacity * 100
	}
	return r
}
