package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrycache", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrycache", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrycache", Name: "refresh_total", Help: "Country refreshes by outcome (created, updated, or the failing step)."},
		[]string{"outcome"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "countrycache", Name: "upstream_request_duration_seconds", Help: "Latency of upstream API calls.", Buckets: prometheus.DefBuckets},
		[]string{"source", "outcome"},
	)
	ReportFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "countrycache", Name: "report_failures_total", Help: "Summary image generations that failed after a successful refresh."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RefreshTotal)
	reg.MustRegister(UpstreamDuration)
	reg.MustRegister(ReportFailures)
}
