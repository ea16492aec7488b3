// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SecurityChecks counts admission decisions by outcome (ok, degraded,
	// rejected).
	SecurityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siswa",
			Subsystem: "security",
			Name:      "checks_total",
			Help:      "Security admission checks by outcome",
		},
		[]string{"outcome"},
	)

	// SecurityBlocks counts rejections by reason family (user_agent,
	// rate_limit, suspicious_pattern, ip_blacklist).
	SecurityBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siswa",
			Subsystem: "security",
			Name:      "blocks_total",
			Help:      "Rejected requests by reason",
		},
		[]string{"reason"},
	)

	// RateLimitDegraded counts fail-open rate limit checks caused by backend
	// errors or timeouts.
	RateLimitDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "siswa",
			Subsystem: "security",
			Name:      "ratelimit_degraded_total",
			Help:      "Rate limit checks that failed open due to backend errors",
		},
	)

	// HTTPRequests counts handled requests by method and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siswa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)
)
