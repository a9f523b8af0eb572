// Package metrics holds the Prometheus collectors for the vault.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "time_vault",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "time_vault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "time_vault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	locksInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "time_vault",
			Subsystem: "locks",
			Name:      "initiated_total",
			Help:      "Total number of lock cycles initiated.",
		},
	)

	locksReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "time_vault",
			Subsystem: "locks",
			Name:      "released_total",
			Help:      "Total number of successful releases.",
		},
	)

	pushFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "time_vault",
			Subsystem: "locks",
			Name:      "push_failures_total",
			Help:      "Releases whose outbound transfer failed after the registry clear.",
		},
	)

	activeLocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "time_vault",
			Subsystem: "locks",
			Name:      "active",
			Help:      "Number of assets with a registered lock.",
		},
	)

	maturedLocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "time_vault",
			Subsystem: "locks",
			Name:      "matured_unreleased",
			Help:      "Number of matured locks awaiting release.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		locksInitiated,
		locksReleased,
		pushFailures,
		activeLocks,
		maturedLocks,
	)
}

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight bumps the in-flight HTTP gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight drops the in-flight HTTP gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// ObserveRequest records a finished HTTP request.
func ObserveRequest(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// LockInitiated records a new lock cycle.
func LockInitiated() { locksInitiated.Inc() }

// LockReleased records a successful release.
func LockReleased() { locksReleased.Inc() }

// PushFailed records a failed outbound transfer during release.
func PushFailed() { pushFailures.Inc() }

// SetActiveLocks updates the active-locks gauge.
func SetActiveLocks(n int) { activeLocks.Set(float64(n)) }

// SetMaturedLocks updates the matured-unreleased gauge.
func SetMaturedLocks(n int) { maturedLocks.Set(float64(n)) }
