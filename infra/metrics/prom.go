package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/dronershare/mobility/core/metrics"
)

// PromSink records trip and charging events in Prometheus metrics.
type PromSink struct {
	trips      *prometheus.CounterVec
	distance   prometheus.Histogram
	charging   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	battery    *prometheus.GaugeVec
}

// NewPromSink registers trip metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	trips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trips_planned_total",
		Help: "Total number of planned trips",
	}, []string{"service_level"})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trip_distance_km",
		Help:    "Planned route distance in kilometres",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
	charging := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_schedules_total",
		Help: "Total number of committed charging schedules",
	}, []string{"station_id", "unbounded"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_rejected_total",
		Help: "Requests the engine turned down, by operation and reason",
	}, []string{"operation", "reason"})
	battery := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_battery_percent",
		Help: "Last reported battery level per vehicle",
	}, []string{"vehicle_id"})

	if err := reg.Register(trips); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			trips = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(charging); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			charging = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(rejections); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			rejections = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(battery); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			battery = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{trips: trips, distance: distance, charging: charging, rejections: rejections, battery: battery}, nil
}

// RecordTrip increments the trip counter and observes the route distance.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(string(ev.ServiceLevel)).Inc()
	s.distance.Observe(ev.Route.DistanceKm)
	return nil
}

// RecordCharging increments the charging schedule counter.
func (s *PromSink) RecordCharging(ev coremetrics.ChargingEvent) error {
	s.charging.WithLabelValues(ev.StationID, strconv.FormatBool(ev.Unbounded)).Inc()
	return nil
}

// RecordVehicleState updates the battery gauge for the vehicle.
func (s *PromSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	s.battery.WithLabelValues(ev.Vehicle.ID).Set(ev.Vehicle.BatteryLevel)
	return nil
}

// RecordRejection increments the rejection counter.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.Operation, ev.Reason).Inc()
	return nil
}

var _ coremetrics.Sink = (*PromSink)(nil)
