package config

// FleetConfig points at the seed files the in-memory fleet store loads on
// startup.
type FleetConfig struct {
	VehiclesFile string `json:"vehicles_file"`
	StationsFile string `json:"stations_file"`
}
