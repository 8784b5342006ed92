package models

import "time"

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.record, risk.assessed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventPatientRecord = "patient.record"
	EventRiskAssessed  = "risk.assessed"
)

// Risk assessment result returned to callers.
type Assessment struct {
	Success         bool               `json:"success"`
	AssessmentID    string             `json:"assessment_id,omitempty"`
	ModelVersion    string             `json:"model_version,omitempty"`
	Probability     float64            `json:"probability"` // percent, 2 dp
	RiskCategory    string             `json:"risk_category"`
	Prediction      string             `json:"prediction"`
	Recommendations []string           `json:"recommendations"`
	FeaturesUsed    []string           `json:"features_used"`
	FeaturesValues  map[string]float64 `json:"features_values"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthStatus struct {
	Status       string `json:"status"` // healthy, unhealthy
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
}

// Feature discovery
type FeatureCatalog struct {
	Features     []string               `json:"features"`
	Descriptions map[string]string      `json:"descriptions"`
	ExampleInput map[string]interface{} `json:"example_input"`
}

// Audit log entry as exposed over the API.
type AssessmentRecord struct {
	ID             string                 `json:"id"`
	PatientID      string                 `json:"patient_id,omitempty"`
	ModelVersion   string                 `json:"model_version,omitempty"`
	Request        map[string]interface{} `json:"request"`
	FeaturesValues map[string]interface{} `json:"features_values"`
	Probability    float64                `json:"probability"`
	RiskCategory   string                 `json:"risk_category"`
	LatencyMs      float64                `json:"latency_ms"`
	CreatedAt      time.Time              `json:"created_at"`
}
