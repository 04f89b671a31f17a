package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dronershare/mobility/core/model"
)

func sample(ts time.Time, trip, vehicle string, level model.ServiceLevel) LogRecord {
	return LogRecord{
		Timestamp:    ts,
		TripID:       trip,
		VehicleID:    vehicle,
		ServiceLevel: level,
		Route:        model.Route{DistanceKm: 4.2},
		CostCZK:      210,
	}
}

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := sample(time.Now(), "t1", "d1", model.Level1)
	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), LogQuery{VehicleID: "d1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].TripID != "t1" || out[0].CostCZK != 210 {
		t.Fatalf("record mangled: %#v", out[0])
	}
}

func TestSQLiteStore_Filters(t *testing.T) {
	store, err := NewSQLiteStore("file:filters.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Now()
	records := []LogRecord{
		sample(base, "t1", "d1", model.Level1),
		sample(base.Add(time.Hour), "t2", "d2", model.Level2),
		sample(base.Add(2*time.Hour), "t3", "d1", model.Level3),
	}
	for _, r := range records {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), LogQuery{VehicleID: "d1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records for d1, got %d", len(out))
	}
	out, err = store.Query(context.Background(), LogQuery{ServiceLevel: model.Level2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].TripID != "t2" {
		t.Fatalf("level filter failed: %#v", out)
	}
	out, err = store.Query(context.Background(), LogQuery{Start: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("start filter failed: %d", len(out))
	}
}

func TestJSONLStore_PersistQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Now()
	if err := store.Append(context.Background(), sample(base, "t1", "d1", model.Level1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(context.Background(), sample(base.Add(time.Hour), "t2", "d2", model.Level1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), LogQuery{VehicleID: "d2"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].TripID != "t2" {
		t.Fatalf("unexpected result: %#v", out)
	}
	out, err = store.Query(context.Background(), LogQuery{End: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].TripID != "t1" {
		t.Fatalf("end filter failed: %#v", out)
	}
}
