package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons used as the "reason" label.
const (
	ReasonUnavailable  = "unavailable"
	ReasonEmptyRecord  = "empty_record"
	ReasonInvalidValue = "invalid_feature_value"
	ReasonInternal     = "internal"
)

var (
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardio_assessments_total",
			Help: "Completed risk assessments by risk category and channel",
		},
		[]string{"risk_category", "channel"},
	)

	AssessmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardio_assessment_failures_total",
			Help: "Risk assessments that did not produce a result, by reason",
		},
		[]string{"reason", "channel"},
	)

	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardio_assessment_duration_seconds",
			Help:    "Time spent assembling, classifying and composing one assessment",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardio_model_loaded",
			Help: "1 when model artifacts loaded at startup, 0 otherwise",
		},
	)

	SideEffectErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardio_side_effect_errors_total",
			Help: "Failures writing assessments to the audit log, cache or event bus",
		},
		[]string{"sink"},
	)
)

func ObserveAssessment(category, channel string, elapsed time.Duration) {
	AssessmentsTotal.WithLabelValues(category, channel).Inc()
	AssessmentDuration.Observe(elapsed.Seconds())
}

func ObserveFailure(reason, channel string) {
	AssessmentFailures.WithLabelValues(reason, channel).Inc()
}

func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
		return
	}
	ModelLoaded.Set(0)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
