// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redeem_portal"

// Known backend states, exported as one gauge series each.
var states = []string{"unknown", "connecting", "ready", "degraded"}

// Metrics holds the portal's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ClaimsTotal      *prometheus.CounterVec
	PartialFailures  prometheus.Counter
	CodesLoaded      prometheus.Counter
	PoolAvailable    prometheus.Gauge
	PoolClaimed      prometheus.Gauge
	BackendState     *prometheus.GaugeVec
	StateTransitions *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ClaimsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "claims",
				Name:      "total",
				Help:      "Claim attempts by outcome (issued, existing, exhausted, invalid, unavailable, error)",
			},
			[]string{"outcome", "backend"},
		),

		PartialFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "claims",
				Name:      "partial_failures_total",
				Help:      "Codes popped from the pool whose claim could not be recorded",
			},
		),

		CodesLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codes",
				Name:      "loaded_total",
				Help:      "Net-new codes added to the pool",
			},
		),

		PoolAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "available",
				Help:      "Available codes at the last stats read",
			},
		),

		PoolClaimed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "claimed",
				Help:      "Issued codes at the last stats read",
			},
		),

		BackendState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "state",
				Help:      "Durable store state (1 for the current state, 0 otherwise)",
			},
			[]string{"state"},
		),

		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "transitions_total",
				Help:      "Durable store state transitions",
			},
			[]string{"from", "to"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ClaimsTotal,
		m.PartialFailures,
		m.CodesLoaded,
		m.PoolAvailable,
		m.PoolClaimed,
		m.BackendState,
		m.StateTransitions,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) ObserveClaim(outcome, backend string) {
	if m == nil {
		return
	}
	m.ClaimsTotal.WithLabelValues(outcome, backend).Inc()
}

func (m *Metrics) ObservePartialFailure() {
	if m == nil {
		return
	}
	m.PartialFailures.Inc()
}

func (m *Metrics) ObserveLoad(inserted int) {
	if m == nil || inserted <= 0 {
		return
	}
	m.CodesLoaded.Add(float64(inserted))
}

func (m *Metrics) SetPool(available, claimed int) {
	if m == nil {
		return
	}
	m.PoolAvailable.Set(float64(available))
	m.PoolClaimed.Set(float64(claimed))
}

// SetState marks current as the only active backend state.
func (m *Metrics) SetState(current string) {
	if m == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		m.BackendState.WithLabelValues(s).Set(v)
	}
}

// StateChanged records a transition and updates the state gauge. Its
// signature matches what the selector's OnStateChange expects once the
// states are rendered as strings.
func (m *Metrics) StateChanged(from, to string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(from, to).Inc()
	m.SetState(to)
}
