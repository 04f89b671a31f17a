package metrics

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/dronershare/mobility/core/metrics"
	"github.com/dronershare/mobility/core/model"
)

func TestInfluxSink_RecordTrip(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.TripEvent{
		TripID:       "t1",
		VehicleID:    "d1",
		ServiceLevel: model.Level1,
		Route: model.Route{
			DistanceKm:            4.2,
			DirectDistanceKm:      4.0,
			EnergyRequiredPercent: 8.4,
			DurationMinutes:       4.5,
			SafetyScore:           100,
		},
		CostCZK: 210,
		Time:    now,
	}

	if err := sink.RecordTrip(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("trip_planned").
		AddTag("trip_id", "t1").
		AddTag("vehicle_id", "d1").
		AddTag("service_level", "level1").
		AddTag("component", "trip_coordinator").
		AddField("distance_km", 4.2).
		AddField("direct_distance_km", 4.0).
		AddField("energy_percent", 8.4).
		AddField("duration_minutes", 4.5).
		AddField("safety_score", 100.0).
		AddField("cost_czk", 210.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordChargingUnbounded(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	ev := coremetrics.ChargingEvent{
		ScheduleID:       "s1",
		VehicleID:        "d1",
		StationID:        "st1",
		EstimatedMinutes: math.Inf(1),
		Unbounded:        true,
		Time:             time.Now(),
	}
	if err := sink.RecordCharging(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	// Inf cannot be encoded in line protocol and is written as -1.
	if !strings.Contains(body, "estimated_minutes=-1") {
		t.Errorf("expected -1 sentinel for unbounded estimate, got %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback when health check fails, got %T", sink)
	}
}
