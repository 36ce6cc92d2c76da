package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis metrics
var (
	// AnalysesTotal tracks analysis requests by outcome (ok, empty, not_fitted, error)
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_analyses_total",
			Help: "Total analysis requests by outcome",
		},
		[]string{"status"},
	)

	// AnalysisDuration tracks end-to-end engine analysis latency in seconds
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "murmur_analysis_duration_seconds",
			Help:    "Engine analysis duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// DocumentsTotal tracks documents seen by the engine by disposition
	// (analyzed, skipped, duplicate)
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_documents_total",
			Help: "Documents handled by the engine by disposition",
		},
		[]string{"disposition"},
	)

	// PredictionsTotal tracks predicted labels, weighted by duplicate count
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_predictions_total",
			Help: "Predicted sentiment labels",
		},
		[]string{"label"},
	)

	// NoiseDocuments tracks documents marked as density outliers
	NoiseDocuments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_noise_documents_total",
			Help: "Documents labeled as noise by density clustering",
		},
	)
)

// Model lifecycle metrics
var (
	// TrainingsTotal tracks model trainings by family
	TrainingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_trainings_total",
			Help: "Model trainings by family",
		},
		[]string{"family"},
	)

	// UpdatesTotal tracks incremental model updates by family
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_model_updates_total",
			Help: "Incremental model updates by family",
		},
		[]string{"family"},
	)

	// HoldoutAccuracy is the accuracy of the most recent held-out evaluation
	HoldoutAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "murmur_holdout_accuracy",
			Help: "Accuracy of the most recent held-out evaluation",
		},
	)

	// VocabularySize is the width of the current feature space
	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "murmur_vocabulary_size",
			Help: "Number of terms in the fitted vocabulary",
		},
	)
)

// Delivery metrics
var (
	// SourceFetchErrors tracks text source failures by provider
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_source_fetch_errors_total",
			Help: "Text source fetch failures by provider",
		},
		[]string{"provider"},
	)

	// OutputWriteErrors tracks failed result writes
	OutputWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_output_write_errors_total",
			Help: "Failed analysis result writes",
		},
	)
)
