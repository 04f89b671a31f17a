package logging

import (
	"context"
	"time"

	"github.com/dronershare/mobility/core/model"
)

// LogRecord captures one planned trip for audit and billing.
type LogRecord struct {
	Timestamp    time.Time          `json:"timestamp"`
	TripID       string             `json:"trip_id"`
	VehicleID    string             `json:"vehicle_id"`
	ServiceLevel model.ServiceLevel `json:"service_level"`
	Route        model.Route        `json:"route"`
	CostCZK      float64            `json:"cost_czk"`
}

// LogQuery defines filters for retrieving records.
type LogQuery struct {
	Start        time.Time
	End          time.Time
	VehicleID    string
	ServiceLevel model.ServiceLevel
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
