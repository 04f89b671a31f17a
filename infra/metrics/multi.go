package metrics

import coremetrics "github.com/dronershare/mobility/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTrip forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordTrip(ev coremetrics.TripEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTrip(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCharging forwards charging schedules.
func (m *MultiSink) RecordCharging(ev coremetrics.ChargingEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCharging(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordVehicleState forwards vehicle snapshots.
func (m *MultiSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordVehicleState(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards rejection events.
func (m *MultiSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRejection(ev); err != nil {
			return err
		}
	}
	return nil
}

var _ coremetrics.Sink = (*MultiSink)(nil)
