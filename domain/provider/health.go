package provider

import "time"

// HealthCheck records the outcome of a single provider probe
// (immutable value type).
type HealthCheck struct {
	ID         string
	ProviderID string
	Status     HealthStatus
	StatusCode int
	LatencyMs  int64
	Error      string
	CheckedAt  time.Time
}

// Latency thresholds for health classification.
const (
	degradedLatencyMs  = 2000
	unhealthyLatencyMs = 10000
)

// ClassifyHealth maps a probe result onto a health status.
// This is a PURE function.
//
// Probe errors and 5xx responses are unhealthy. 4xx responses are
// degraded rather than unhealthy: the endpoint is reachable, the
// request was just rejected (commonly a credential problem). Slow
// responses degrade even when the status is fine.
func ClassifyHealth(statusCode int, latencyMs int64, probeErr bool) HealthStatus {
	switch {
	case probeErr:
		return HealthUnhealthy
	case statusCode >= 500:
		return HealthUnhealthy
	case latencyMs >= unhealthyLatencyMs:
		return HealthUnhealthy
	case statusCode >= 400:
		return HealthDegraded
	case latencyMs >= degradedLatencyMs:
		return HealthDegraded
	case statusCode >= 200 && statusCode < 400:
		return HealthHealthy
	default:
		return HealthUnknown
	}
}
