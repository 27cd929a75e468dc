// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_assessments_scored_total",
			Help: "Total number of assessments scored",
		},
		[]string{"gender", "recommendation"},
	)

	AssessmentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_assessments_rejected_total",
			Help: "Total number of assessment submissions rejected",
		},
		[]string{"error_code"},
	)

	NarrativeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_narrative_outcomes_total",
			Help: "Narrative generation outcomes (generated, fallback, disabled)",
		},
		[]string{"outcome"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_store_errors_total",
			Help: "Lead store operations that failed",
		},
		[]string{"operation"},
	)

	IntegrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_integration_errors_total",
			Help: "Side integrations (crm, notify, index) that failed",
		},
		[]string{"integration"},
	)

	LeadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_leads_captured_total",
			Help: "Total number of contact details captured",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "funnel_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
