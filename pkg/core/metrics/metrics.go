package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded per methodology run.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
)

var (
	MethodologyRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_methodology_runs_total",
			Help: "Total number of methodology computations by outcome",
		},
		[]string{"methodology", "outcome"},
	)

	SynthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "valuation_synthesis_duration_seconds",
			Help:    "Duration of a full valuation synthesis run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"status"},
	)

	PeerSetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_peer_set_operations_total",
			Help: "Peer set repository operations by backend and result",
		},
		[]string{"operation", "backend", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
)

// RecordMethodology increments the run counter for one methodology.
func RecordMethodology(methodology, outcome string) {
	MethodologyRuns.WithLabelValues(methodology, outcome).Inc()
}

// ObserveSynthesis records how long a synthesis run took.
func ObserveSynthesis(status string, started time.Time) {
	SynthesisDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
