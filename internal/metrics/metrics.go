package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "placer"

// Recorder exports negotiation telemetry to Prometheus. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	rounds        *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec
	assetFailures prometheus.Counter
	itemsPresent  prometheus.Gauge
	dropped       *prometheus.CounterVec
}

// New registers the negotiation metrics with reg (the default registerer
// when nil). Registering twice against one registry reuses the collectors.
func New(namespace string, reg prometheus.Registerer) (*Recorder, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Negotiation rounds by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Finished negotiation sessions by terminal state.",
		}, []string{"state"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Latency of placement oracle calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"phase", "result"}),
		assetFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_failures_total",
			Help:      "Items whose asset could not be made present in a round.",
		}),
		itemsPresent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_present",
			Help:      "Items currently instantiated in the scene.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_dropped_total",
			Help:      "Oracle placements rejected during validation.",
		}, []string{"reason"}),
	}

	var err error
	if r.rounds, err = register(reg, r.rounds); err != nil {
		return nil, err
	}
	if r.sessions, err = register(reg, r.sessions); err != nil {
		return nil, err
	}
	if r.oracleLatency, err = register(reg, r.oracleLatency); err != nil {
		return nil, err
	}
	if r.assetFailures, err = register(reg, r.assetFailures); err != nil {
		return nil, err
	}
	if r.itemsPresent, err = register(reg, r.itemsPresent); err != nil {
		return nil, err
	}
	if r.dropped, err = register(reg, r.dropped); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("metrics: register: %w", err)
	}
	return c, nil
}

// Round counts one finished round.
func (r *Recorder) Round(strategy, outcome string) {
	if r == nil {
		return
	}
	r.rounds.WithLabelValues(strategy, outcome).Inc()
}

// Session counts a session reaching a terminal state.
func (r *Recorder) Session(state string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(state).Inc()
}

// OracleCall records one oracle call's latency.
func (r *Recorder) OracleCall(phase string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.oracleLatency.WithLabelValues(phase, result).Observe(d.Seconds())
}

// AssetFailure counts one item that failed to become present.
func (r *Recorder) AssetFailure() {
	if r == nil {
		return
	}
	r.assetFailures.Inc()
}

// ItemsPresent sets the current number of instantiated items.
func (r *Recorder) ItemsPresent(n int) {
	if r == nil {
		return
	}
	r.itemsPresent.Set(float64(n))
}

// Dropped counts placements rejected for reason.
func (r *Recorder) Dropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dropped.WithLabelValues(reason).Add(float64(n))
}
