package metrics

import (
	"testing"

	coremetrics "github.com/dronershare/mobility/core/metrics"
)

type countSink struct {
	coremetrics.NopSink
	count int
}

func (s *countSink) RecordTrip(coremetrics.TripEvent) error {
	s.count++
	return nil
}

func (s *countSink) RecordRejection(coremetrics.RejectionEvent) error {
	s.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &countSink{}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordTrip(coremetrics.TripEvent{}); err != nil {
		t.Fatalf("record trip: %v", err)
	}
	if err := m.RecordRejection(coremetrics.RejectionEvent{}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded to every sink")
	}
}
