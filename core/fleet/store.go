package fleet

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/model"
)

// ErrNotFound is returned for unknown vehicle or station IDs.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a commit loses the race for a vehicle or the
// last free station slot. Callers obtain a fresh recommendation and retry at
// their own policy; the store never retries.
var ErrConflict = errors.New("state changed since selection")

// VehicleQuery filters fleet snapshots.
type VehicleQuery struct {
	Status       model.VehicleStatus
	ServiceLevel model.ServiceLevel
	MinRangeKm   float64
}

// Repository provides read-only snapshot access plus the atomic commit steps
// that turn engine recommendations into state. Selection and commit are
// deliberately separate: two concurrent trips may both be recommended the
// same vehicle, and only one commit wins.
type Repository interface {
	Vehicles(q VehicleQuery) []model.Vehicle
	Vehicle(id string) (model.Vehicle, error)
	StationsNear(p geo.Point, maxDistanceKm float64) []model.Station
	Station(id string) (model.Station, error)

	CommitAssignment(vehicleID string) error
	CommitChargingClaim(vehicleID, stationID string) error
	ReleaseVehicle(vehicleID string) error
	ReleaseChargingSlot(vehicleID, stationID string) error
}

// MemoryStore is an in-memory Repository guarded by a single mutex, so every
// commit is a check-and-set over the current state.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]model.Vehicle
	stations map[string]model.Station
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: map[string]model.Vehicle{},
		stations: map[string]model.Station{},
	}
}

// PutVehicle validates and upserts a vehicle snapshot.
func (s *MemoryStore) PutVehicle(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	return nil
}

// PutStation validates and upserts a station snapshot.
func (s *MemoryStore) PutStation(st model.Station) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.stations[st.ID] = st
	s.mu.Unlock()
	return nil
}

// Vehicle returns the snapshot for the given ID.
func (s *MemoryStore) Vehicle(id string) (model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return model.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return v, nil
}

// Vehicles returns snapshots matching the query, ordered by ID.
func (s *MemoryStore) Vehicles(q VehicleQuery) []model.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if q.Status != "" && v.Status != q.Status {
			continue
		}
		if q.ServiceLevel != "" && v.ServiceLevel != q.ServiceLevel {
			continue
		}
		if v.MaxRangeKm < q.MinRangeKm {
			continue
		}
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Station returns the snapshot for the given ID.
func (s *MemoryStore) Station(id string) (model.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[id]
	if !ok {
		return model.Station{}, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	return st, nil
}

// StationsNear returns station snapshots within maxDistanceKm of p, closest
// first.
func (s *MemoryStore) StationsNear(p geo.Point, maxDistanceKm float64) []model.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Station, 0, len(s.stations))
	for _, st := range s.stations {
		if geo.Distance(p, st.Location) <= maxDistanceKm {
			res = append(res, st)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return geo.Distance(p, res[i].Location) < geo.Distance(p, res[j].Location)
	})
	return res
}

// CommitAssignment flips an available vehicle to in_use. It fails with
// ErrConflict when the vehicle was taken between selection and commit.
func (s *MemoryStore) CommitAssignment(vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	if v.Status != model.StatusAvailable {
		return fmt.Errorf("vehicle %s is %s: %w", vehicleID, v.Status, ErrConflict)
	}
	v.Status = model.StatusInUse
	s.vehicles[vehicleID] = v
	return nil
}

// CommitChargingClaim atomically moves the vehicle to charging and takes one
// slot at the station. Fails with ErrConflict when the last slot is gone or
// the vehicle is no longer claimable.
func (s *MemoryStore) CommitChargingClaim(vehicleID, stationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	st, ok := s.stations[stationID]
	if !ok {
		return fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	if v.Status == model.StatusCharging {
		return fmt.Errorf("vehicle %s already charging: %w", vehicleID, ErrConflict)
	}
	if !st.IsActive || st.CapacityAvailable <= 0 {
		return fmt.Errorf("station %s has no free slot: %w", stationID, ErrConflict)
	}
	v.Status = model.StatusCharging
	v.CurrentStation = stationID
	st.CapacityAvailable--
	s.vehicles[vehicleID] = v
	s.stations[stationID] = st
	return nil
}

// ReleaseVehicle returns an in-use vehicle to the available pool.
func (s *MemoryStore) ReleaseVehicle(vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	v.Status = model.StatusAvailable
	s.vehicles[vehicleID] = v
	return nil
}

// ReleaseChargingSlot frees the vehicle's slot and marks it available again.
func (s *MemoryStore) ReleaseChargingSlot(vehicleID, stationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, vok := s.vehicles[vehicleID]
	st, sok := s.stations[stationID]
	if !vok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	if !sok {
		return fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	if v.Status != model.StatusCharging || v.CurrentStation != stationID {
		return fmt.Errorf("vehicle %s not charging at %s: %w", vehicleID, stationID, ErrConflict)
	}
	v.Status = model.StatusAvailable
	v.CurrentStation = ""
	if st.CapacityAvailable < st.CapacityTotal {
		st.CapacityAvailable++
	}
	s.vehicles[vehicleID] = v
	s.stations[stationID] = st
	return nil
}

// UpdateTelemetry refreshes the live fields of a vehicle snapshot from a
// telemetry report. Unknown vehicles are ignored: discovery is the fleet
// operator's concern, not the telemetry feed's.
func (s *MemoryStore) UpdateTelemetry(vehicleID string, battery float64, loc geo.Point) error {
	if battery < 0 || battery > 100 {
		return fmt.Errorf("%w: battery level %v outside [0,100]", model.ErrInvalidInput, battery)
	}
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return nil
	}
	v.BatteryLevel = battery
	v.Location = loc
	s.vehicles[vehicleID] = v
	return nil
}
