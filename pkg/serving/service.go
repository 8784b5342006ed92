package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/common/models"
	"github.com/synaptica-ai/cardio/pkg/observability/metrics"
	"gorm.io/datatypes"
)

// AssessmentStore persists the audit trail.
type AssessmentStore interface {
	Record(ctx context.Context, entry AssessmentLog) error
	Recent(ctx context.Context, limit int) ([]models.AssessmentRecord, error)
}

// AssessmentCache holds the latest assessment per patient.
type AssessmentCache interface {
	Put(ctx context.Context, patientID string, assessment models.Assessment) error
	Latest(ctx context.Context, patientID string) (models.Assessment, bool, error)
}

// EventPublisher emits assessment events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}, metadata map[string]string) error
}

var (
	ErrAuditLogDisabled = errors.New("assessment log not enabled")
	ErrCacheDisabled    = errors.New("assessment cache not enabled")
)

// Meta carries request context that is not part of the patient record.
type Meta struct {
	PatientID string
	RequestID string
	Channel   string // http, kafka
}

type Options struct {
	Store     AssessmentStore
	Cache     AssessmentCache
	Publisher EventPublisher
}

type Service struct {
	model     *ModelContext
	store     AssessmentStore
	cache     AssessmentCache
	publisher EventPublisher
}

// NewService wires the orchestration. model may be nil when artifacts failed
// to load; every assessment then fails with cardio.ErrServiceUnavailable.
func NewService(model *ModelContext, opts Options) *Service {
	metrics.SetModelLoaded(model != nil)
	return &Service{
		model:     model,
		store:     opts.Store,
		cache:     opts.Cache,
		publisher: opts.Publisher,
	}
}

func (s *Service) Model() *ModelContext {
	return s.model
}

func (s *Service) Ready() bool {
	return s.model != nil
}

// Assess runs one record through assembly, classification, categorisation
// and recommendation.
func (s *Service) Assess(ctx context.Context, record cardio.PatientRecord, meta Meta) (models.Assessment, error) {
	start := time.Now()
	channel := meta.Channel
	if channel == "" {
		channel = "http"
	}

	model := s.model
	if model == nil {
		metrics.ObserveFailure(metrics.ReasonUnavailable, channel)
		return models.Assessment{}, cardio.ErrServiceUnavailable
	}
	if record.Len() == 0 {
		metrics.ObserveFailure(metrics.ReasonEmptyRecord, channel)
		return models.Assessment{}, cardio.ErrEmptyRecord
	}

	vector, err := cardio.Assemble(record, model.schema)
	if err != nil {
		metrics.ObserveFailure(metrics.ReasonInvalidValue, channel)
		return models.Assessment{}, err
	}

	probability, err := model.classifier.PredictProba(vector)
	if err != nil {
		metrics.ObserveFailure(metrics.ReasonInternal, channel)
		return models.Assessment{}, fmt.Errorf("classifier failed: %w", err)
	}

	category, err := cardio.Categorize(probability)
	if err != nil {
		metrics.ObserveFailure(metrics.ReasonInternal, channel)
		return models.Assessment{}, err
	}
	recommendations := cardio.Recommend(record, probability)

	assessment := Compose(model.schema, vector, probability, category, recommendations)
	assessment.AssessmentID = uuid.New().String()
	assessment.ModelVersion = model.version

	elapsed := time.Since(start)
	metrics.ObserveAssessment(assessment.RiskCategory, channel, elapsed)

	logger.Log.WithFields(map[string]interface{}{
		"assessment_id": assessment.AssessmentID,
		"patient_id":    meta.PatientID,
		"request_id":    meta.RequestID,
		"risk_category": assessment.RiskCategory,
		"latency_ms":    float64(elapsed.Microseconds()) / 1000.0,
	}).Info("Assessment completed")

	s.afterAssessment(ctx, record, meta, assessment, probability, elapsed)
	return assessment, nil
}

// Compose builds the outward result. Probability is reported as a
// percentage rounded to two decimals.
func Compose(schema cardio.Schema, vector cardio.FeatureVector, probability float64, category cardio.RiskCategory, recommendations []string) models.Assessment {
	return models.Assessment{
		Success:         true,
		Probability:     math.Round(probability*100*100) / 100,
		RiskCategory:    category.String(),
		Prediction:      cardio.Label(probability),
		Recommendations: recommendations,
		FeaturesUsed:    schema.Names(),
		FeaturesValues:  vector.Values(schema),
	}
}

// afterAssessment fans the result out to the optional sinks. Sink failures
// are logged and never fail the request.
func (s *Service) afterAssessment(ctx context.Context, record cardio.PatientRecord, meta Meta, assessment models.Assessment, probability float64, elapsed time.Duration) {
	if s.store != nil {
		entry := AssessmentLog{
			ID:             uuid.MustParse(assessment.AssessmentID),
			PatientID:      meta.PatientID,
			ModelVersion:   assessment.ModelVersion,
			Request:        datatypes.JSONMap(record.Fields()),
			FeaturesValues: datatypes.JSONMap(floatMap(assessment.FeaturesValues)),
			Response:       datatypes.JSONMap(assessmentMap(assessment)),
			Probability:    probability,
			RiskCategory:   assessment.RiskCategory,
			LatencyMs:      float64(elapsed.Microseconds()) / 1000.0,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.store.Record(ctx, entry); err != nil {
			metrics.SideEffectErrors.WithLabelValues("audit_log").Inc()
			logger.Log.WithError(err).WithField("assessment_id", assessment.AssessmentID).Warn("failed to record assessment")
		}
	}

	if s.cache != nil && meta.PatientID != "" {
		if err := s.cache.Put(ctx, meta.PatientID, assessment); err != nil {
			metrics.SideEffectErrors.WithLabelValues("cache").Inc()
			logger.Log.WithError(err).WithField("patient_id", meta.PatientID).Warn("failed to cache assessment")
		}
	}

	if s.publisher != nil {
		metadata := map[string]string{"assessment_id": assessment.AssessmentID}
		if meta.PatientID != "" {
			metadata["patient_id"] = meta.PatientID
		}
		if meta.RequestID != "" {
			metadata["request_id"] = meta.RequestID
		}
		if err := s.publisher.PublishEvent(ctx, models.EventRiskAssessed, "serving", assessmentMap(assessment), metadata); err != nil {
			metrics.SideEffectErrors.WithLabelValues("events").Inc()
			logger.Log.WithError(err).WithField("assessment_id", assessment.AssessmentID).Warn("failed to publish assessment event")
		}
	}
}

func (s *Service) Recent(ctx context.Context, limit int) ([]models.AssessmentRecord, error) {
	if s.store == nil {
		return nil, ErrAuditLogDisabled
	}
	return s.store.Recent(ctx, limit)
}

func (s *Service) Latest(ctx context.Context, patientID string) (models.Assessment, bool, error) {
	if s.cache == nil {
		return models.Assessment{}, false, ErrCacheDisabled
	}
	return s.cache.Latest(ctx, patientID)
}

func floatMap(values map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func assessmentMap(a models.Assessment) map[string]interface{} {
	return map[string]interface{}{
		"assessment_id":   a.AssessmentID,
		"model_version":   a.ModelVersion,
		"probability":     a.Probability,
		"risk_category":   a.RiskCategory,
		"prediction":      a.Prediction,
		"recommendations": a.Recommendations,
		"features_used":   a.FeaturesUsed,
		"features_values": floatMap(a.FeaturesValues),
	}
}
