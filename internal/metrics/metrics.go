package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_quotes_total",
			Help: "Total number of quote requests by outcome",
		},
		[]string{"outcome"},
	)

	DerivationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_derivation_errors_total",
			Help: "Rejected attribute sets by error kind and field",
		},
		[]string{"kind", "field"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "premium_prediction_duration_seconds",
			Help:    "Duration of model predictions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"model_version"},
	)

	EstimateCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_estimate_cache_total",
			Help: "Estimate cache lookups by result",
		},
		[]string{"result"},
	)
)

// Outcomes usados como etiqueta de QuotesTotal.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeRateLimited    = "rate_limited"
	OutcomeSchemaMismatch = "schema_mismatch"
	OutcomeError          = "error"
)
