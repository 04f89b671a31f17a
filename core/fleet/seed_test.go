package fleet

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVehicles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vehicles.json")
	data := `[
  {"id":"d1","battery_level":80,"max_range_km":100,"service_level":"level1","status":"available"},
  {"id":"d2","battery_level":55,"max_range_km":80,"service_level":"level2","status":"charging"}
]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewMemoryStore()
	n, err := s.LoadVehicles(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 vehicles, got %d", n)
	}
	if _, err := s.Vehicle("d2"); err != nil {
		t.Fatalf("d2 missing: %v", err)
	}
}

func TestLoadVehiclesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vehicles.json")
	data := `[{"id":"bad","battery_level":180,"service_level":"level1","status":"available"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewMemoryStore()
	if _, err := s.LoadVehicles(path); err == nil {
		t.Fatal("expected validation error for out-of-range battery")
	}
}

func TestLoadStations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	data := `[
  {"id":"st1","location":{"lat":50.0,"lng":14.4},"capacity_total":4,"capacity_available":4,
   "grid":{"total_power_kw":50},"is_active":true}
]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewMemoryStore()
	n, err := s.LoadStations(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 station, got %d", n)
	}
	st, err := s.Station("st1")
	if err != nil {
		t.Fatalf("st1 missing: %v", err)
	}
	if st.TotalChargingPowerKw() != 50 {
		t.Fatalf("power = %v, want 50", st.TotalChargingPowerKw())
	}
}
