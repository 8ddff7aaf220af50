package floodprobe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FloodRequests counts flood requests partitioned by terminal result.
	FloodRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodprobe_flood_requests_total",
			Help: "Flood requests issued, partitioned by result classification",
		},
		[]string{"engine", "result"},
	)

	// AttackAttempts counts probe deliveries partitioned by phase and
	// whether exploitation evidence matched.
	AttackAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodprobe_attack_attempts_total",
			Help: "Attack payload deliveries, partitioned by phase and evidence match",
		},
		[]string{"phase", "matched"},
	)

	// RequestLatency observes wall-clock latency of issued requests.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floodprobe_request_duration_seconds",
			Help:    "Wall-clock latency of flood and attack requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	// RunsByRisk counts completed runs by final risk classification.
	RunsByRisk = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodprobe_runs_total",
			Help: "Completed comparison runs by risk classification",
		},
		[]string{"risk"},
	)
)

func outcomeResultLabel(o RequestOutcome) string {
	if o.Success {
		return "success"
	}
	if o.ErrorKind == ErrorKindNone {
		return "failure"
	}
	return string(o.ErrorKind)
}
