// Package metrics defines the Prometheus instrumentation for padws.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "padws",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method, and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// Logins counts completed login callbacks.
	Logins = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padws",
		Name:      "logins_total",
		Help:      "Completed OIDC login callbacks.",
	})

	// Logouts counts logout requests.
	Logouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padws",
		Name:      "logouts_total",
		Help:      "Logout requests.",
	})

	// TokenRefreshes counts refresh grants by outcome.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padws",
		Name:      "token_refreshes_total",
		Help:      "Refresh-token grants by outcome.",
	}, []string{"outcome"})

	// CoderRequests counts Coder API calls by operation and outcome.
	CoderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padws",
		Name:      "coder_requests_total",
		Help:      "Coder API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	// WorkspaceProvisionDuration observes how long workspace creation
	// takes from request to accepted build.
	WorkspaceProvisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "padws",
		Name:      "workspace_provision_duration_seconds",
		Help:      "Duration of Coder workspace provisioning calls.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)
