package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
)

// PromSink exposes cache activity, mutation outcomes and rollout progress as
// Prometheus metrics.
type PromSink struct {
	cacheEvents   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	mutationLat   *prometheus.HistogramVec
	fleet         *prometheus.GaugeVec
	fleetPercent  prometheus.Gauge
	locPercent    *prometheus.GaugeVec
	locDrift      *prometheus.GaugeVec
}

var (
	_ coremetrics.Sink             = (*PromSink)(nil)
	_ coremetrics.MutationRecorder = (*PromSink)(nil)
	_ coremetrics.ProgressRecorder = (*PromSink)(nil)
)

// NewPromSink registers the metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register returns c, or the collector already registered under the same
// descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers the metrics on reg. A nil registerer
// defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.cacheEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_events_total",
		Help: "Cache fetches, deduplicated refreshes, local mutations and stale reads",
	}, []string{"key", "kind"})); err != nil {
		return nil, err
	}
	if s.fetchDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_fetch_duration_seconds",
		Help:    "Duration of remote fetches per cache key",
		Buckets: prometheus.DefBuckets,
	}, []string{"key", "kind"})); err != nil {
		return nil, err
	}
	if s.mutations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimistic_mutations_total",
		Help: "Optimistic mutations by terminal outcome",
	}, []string{"key", "operation", "outcome"})); err != nil {
		return nil, err
	}
	if s.mutationLat, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimistic_write_latency_seconds",
		Help:    "Remote write latency of optimistic mutations",
		Buckets: prometheus.DefBuckets,
	}, []string{"key", "outcome"})); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_vehicles",
		Help: "Vehicles by installation status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.fleetPercent, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_completion_percent",
		Help: "Share of completed vehicles over the fleet",
	})); err != nil {
		return nil, err
	}
	if s.locPercent, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "location_completion_percent",
		Help: "Share of completed vehicles per location",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	if s.locDrift, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "location_vehicle_drift",
		Help: "Stored vehicle counter minus vehicles referencing the location",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PromSink) RecordCache(ev coremetrics.CacheEvent) error {
	s.cacheEvents.WithLabelValues(ev.Key, string(ev.Kind)).Inc()
	if ev.Kind == coremetrics.CacheFetchOK || ev.Kind == coremetrics.CacheFetchError {
		s.fetchDuration.WithLabelValues(ev.Key, string(ev.Kind)).Observe(ev.Duration.Seconds())
	}
	return nil
}

func (s *PromSink) RecordMutation(ev coremetrics.MutationEvent) error {
	s.mutations.WithLabelValues(ev.Key, ev.Operation, ev.Outcome).Inc()
	s.mutationLat.WithLabelValues(ev.Key, ev.Outcome).Observe(ev.Latency.Seconds())
	return nil
}

func (s *PromSink) RecordFleetProgress(p coremetrics.FleetProgress) error {
	s.fleet.WithLabelValues("completed").Set(float64(p.Completed))
	s.fleet.WithLabelValues("in_progress").Set(float64(p.InProgress))
	s.fleet.WithLabelValues("pending").Set(float64(p.Pending))
	s.fleetPercent.Set(float64(p.Percent))
	return nil
}

// RecordLocationProgress replaces the per-location gauges, so deleted
// locations disappear.
func (s *PromSink) RecordLocationProgress(ps []coremetrics.LocationProgress) error {
	s.locPercent.Reset()
	s.locDrift.Reset()
	for _, p := range ps {
		s.locPercent.WithLabelValues(p.Location).Set(float64(p.Percent))
		s.locDrift.WithLabelValues(p.Location).Set(float64(p.Drift))
	}
	return nil
}
