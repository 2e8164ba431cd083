package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts answered questions.
	// Labels: intent, source (llm, rules)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insights",
		Subsystem: "assistant",
		Name:      "requests_total",
		Help:      "Total assistant questions by resolved intent and classification source",
	}, []string{"intent", "source"})

	// plannerFallbacksTotal counts LLM plans that degraded to rule-based classification.
	// Labels: kind (transport, status, empty, decode, unknown_intent)
	plannerFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insights",
		Subsystem: "assistant",
		Name:      "planner_fallbacks_total",
		Help:      "LLM planner failures that fell back to the keyword classifier",
	}, []string{"kind"})

	// reportDurationSeconds measures report handler latency including datastore queries.
	// Labels: intent
	reportDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insights",
		Subsystem: "assistant",
		Name:      "report_duration_seconds",
		Help:      "Report handler latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"intent"})

	// reportErrorsTotal counts handlers that failed on a datastore error.
	// Labels: intent
	reportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insights",
		Subsystem: "assistant",
		Name:      "report_errors_total",
		Help:      "Report handlers that returned a datastore error",
	}, []string{"intent"})
)
