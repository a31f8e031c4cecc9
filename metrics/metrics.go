// Package metrics defines the Prometheus instrumentation for the twin
// engine: turn outcomes, backend latency, session population, and fallback
// usage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "twinengine"

// Turn outcomes recorded against TurnsTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeShortCircuit = "short_circuit"
	OutcomePaywall      = "paywall"
	OutcomeExpired      = "expired"
	OutcomeNotFound     = "not_found"
	OutcomeBackendError = "backend_error"
	OutcomeValidation   = "validation_error"
)

var (
	// TurnsTotal counts completed turn attempts by terminal outcome.
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total turn submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// BackendRequestDuration observes wall-clock latency of generation calls.
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of inference backend calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)

	// SessionsActive tracks the live session count.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions in the store.",
		},
	)

	// SessionsSweptTotal counts sessions evicted by the TTL sweep.
	SessionsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Sessions evicted by the TTL sweeper.",
		},
	)

	// FallbackAnswersTotal counts replies served from deterministic templates.
	FallbackAnswersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_answers_total",
			Help:      "Replies served from deterministic fallback templates.",
		},
	)
)

func allMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		TurnsTotal,
		BackendRequestDuration,
		SessionsActive,
		SessionsSweptTotal,
		FallbackAnswersTotal,
	}
}

// RecordTurn increments the outcome counter for one finished turn attempt.
func RecordTurn(outcome string) {
	TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordBackendRequest observes one backend call's latency.
func RecordBackendRequest(provider, model string, elapsed time.Duration) {
	BackendRequestDuration.WithLabelValues(provider, model).Observe(elapsed.Seconds())
}

// RecordSwept adds count evicted sessions to the sweep counter.
func RecordSwept(count int) {
	SessionsSweptTotal.Add(float64(count))
}

// RecordFallbackAnswer counts one template-served reply.
func RecordFallbackAnswer() {
	FallbackAnswersTotal.Inc()
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(n int) {
	SessionsActive.Set(float64(n))
}
