// Package metrics provides Prometheus metrics collection for ProvGate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for ProvGate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Credential metrics
	ValidationFailures  *prometheus.CounterVec
	CredentialRotations *prometheus.CounterVec

	// Health check metrics
	HealthChecks       *prometheus.CounterVec
	HealthCheckLatency *prometheus.HistogramVec

	// Usage metrics
	UsageTokens *prometheus.CounterVec
	UsageCost   *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		// Request metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "provgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		// Credential metrics
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "validation_failures_total",
				Help:      "Total number of credential format validation failures",
			},
			[]string{"provider", "code"},
		),
		CredentialRotations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "credential_rotations_total",
				Help:      "Total number of credential rotations",
			},
			[]string{"provider"},
		),

		// Health check metrics
		HealthChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "health_checks_total",
				Help:      "Total number of provider health checks by outcome",
			},
			[]string{"provider", "status"},
		),
		HealthCheckLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provgate",
				Name:      "health_check_latency_seconds",
				Help:      "Provider health probe latency in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),

		// Usage metrics
		UsageTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "usage_tokens_total",
				Help:      "Total tokens consumed by provider and direction",
			},
			[]string{"provider", "operation", "direction"},
		),
		UsageCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "usage_cost_cents_total",
				Help:      "Total estimated cost in cents by provider",
			},
			[]string{"provider"},
		),

		// Config metrics
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "provgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "provgate",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}
