package energy

import "github.com/dronershare/mobility/core/model"

// baseSolarRate is the on-board panel charging rate in percent per hour
// under optimal conditions.
const baseSolarRate = 5.0

// Weather carries the two factors scaling solar generation. Zero values mean
// unknown; DefaultWeather supplies the reference fallbacks.
type Weather struct {
	CloudCoverPercent float64 `json:"cloud_cover_percent"`
	SunlightPercent   float64 `json:"sunlight_percent"`
}

// DefaultWeather is used when no observation is available: clear sky and
// 80% sunlight.
func DefaultWeather() Weather {
	return Weather{CloudCoverPercent: 0, SunlightPercent: 80}
}

// SolarChargingRate estimates the on-board solar gain for the vehicle in
// percent of battery per hour. Vehicles without panels gain nothing.
func SolarChargingRate(v model.Vehicle, w Weather) float64 {
	if !v.HasSolarPanels {
		return 0
	}
	factor := ((100 - w.CloudCoverPercent) / 100) * (w.SunlightPercent / 100)
	rate := baseSolarRate * factor
	if rate < 0 {
		return 0
	}
	return rate
}
