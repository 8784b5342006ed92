package serving

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/cardio/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentLog is the audit row written for every completed assessment.
type AssessmentLog struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;column:id"`
	PatientID      string            `gorm:"column:patient_id;index"`
	ModelVersion   string            `gorm:"column:model_version"`
	Request        datatypes.JSONMap `gorm:"column:request"`
	FeaturesValues datatypes.JSONMap `gorm:"column:features_values"`
	Response       datatypes.JSONMap `gorm:"column:response"`
	Probability    float64           `gorm:"column:probability"`
	RiskCategory   string            `gorm:"column:risk_category"`
	LatencyMs      float64           `gorm:"column:latency_ms"`
	CreatedAt      time.Time         `gorm:"column:created_at;index"`
}

// TableName overrides gorm naming.
func (AssessmentLog) TableName() string {
	return "assessment_logs"
}

// Repository handles assessment log queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AssessmentLog{})
}

func (r *Repository) Record(ctx context.Context, entry AssessmentLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// Recent returns the most recent assessment logs up to limit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.AssessmentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []AssessmentLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	records := make([]models.AssessmentRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, log.toRecord())
	}
	return records, nil
}

func (l AssessmentLog) toRecord() models.AssessmentRecord {
	return models.AssessmentRecord{
		ID:             l.ID.String(),
		PatientID:      l.PatientID,
		ModelVersion:   l.ModelVersion,
		Request:        map[string]interface{}(l.Request),
		FeaturesValues: map[string]interface{}(l.FeaturesValues),
		Probability:    l.Probability,
		RiskCategory:   l.RiskCategory,
		LatencyMs:      l.LatencyMs,
		CreatedAt:      l.CreatedAt,
	}
}
