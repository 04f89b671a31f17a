package telemetry

import (
	"sync"
	"time"

	"github.com/dronershare/mobility/core/geo"
)

// Record is one decoded telemetry message.
type Record struct {
	DroneID  string    `json:"drone_id"`
	Battery  float64   `json:"battery"`
	Location geo.Point `json:"location"`
	Status   string    `json:"status"`
	Time     time.Time `json:"time"`
}

// History keeps a bounded ring of the most recent records per drone.
type History struct {
	mu    sync.RWMutex
	limit int
	rings map[string][]Record
}

// NewHistory creates a History retaining up to limit records per drone.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{limit: limit, rings: make(map[string][]Record)}
}

// Append stores the record, evicting the oldest once the ring is full.
func (h *History) Append(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring := append(h.rings[r.DroneID], r)
	if len(ring) > h.limit {
		ring = ring[len(ring)-h.limit:]
	}
	h.rings[r.DroneID] = ring
}

// Last returns up to n most recent records for the drone, oldest first.
func (h *History) Last(droneID string, n int) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ring := h.rings[droneID]
	if n <= 0 || n > len(ring) {
		n = len(ring)
	}
	out := make([]Record, n)
	copy(out, ring[len(ring)-n:])
	return out
}

// Stale lists drones whose latest record is older than maxAge at now.
func (h *History) Stale(now time.Time, maxAge time.Duration) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var stale []string
	for id, ring := range h.rings {
		if len(ring) == 0 {
			continue
		}
		if now.Sub(ring[len(ring)-1].Time) > maxAge {
			stale = append(stale, id)
		}
	}
	return stale
}
