package fleet

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dronershare/mobility/core/model"
)

// LoadVehicles reads a JSON array of vehicles from path and inserts them into
// the store. Every snapshot is validated before insertion.
func (s *MemoryStore) LoadVehicles(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var vehicles []model.Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, v := range vehicles {
		if err := s.PutVehicle(v); err != nil {
			return i, fmt.Errorf("vehicle %q: %w", v.ID, err)
		}
	}
	return len(vehicles), nil
}

// LoadStations reads a JSON array of charging stations from path and inserts
// them into the store.
func (s *MemoryStore) LoadStations(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var stations []model.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, st := range stations {
		if err := s.PutStation(st); err != nil {
			return i, fmt.Errorf("station %q: %w", st.ID, err)
		}
	}
	return len(stations), nil
}
