package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
)

// AuthRequests counts auth flow completions by flow and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tutorials_auth_requests_total",
		Help: "Total number of auth flow executions",
	},
	[]string{"flow", "outcome"},
)

// PasswordHashDuration observes hash and verify latency.
var PasswordHashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tutorials_auth_password_hash_seconds",
		Help:    "Password hash and verify duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
	},
	[]string{"op"},
)

// BestEffortFailures counts side effects (events, mail, indexing) that failed without failing the request.
var BestEffortFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tutorials_auth_side_effect_failures_total",
		Help: "Total number of failed best-effort side effects",
	},
	[]string{"kind"},
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthRequests)
	reg.MustRegister(PasswordHashDuration)
	reg.MustRegister(BestEffortFailures)
}

func RecordAuth(flow, outcome string) {
	AuthRequests.WithLabelValues(flow, outcome).Inc()
}

func ObservePasswordHash(op string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}

func RecordSideEffectFailure(kind string) {
	BestEffortFailures.WithLabelValues(kind).Inc()
}
