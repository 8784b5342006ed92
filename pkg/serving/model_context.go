package serving

import (
	"fmt"

	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/serving/predictor"
)

// Classifier turns an assembled vector into a positive-class probability.
type Classifier interface {
	PredictProba(vector cardio.FeatureVector) (float64, error)
}

// ModelContext bundles the schema and classifier loaded at startup. It is
// never modified afterwards, so requests share it without locking.
type ModelContext struct {
	schema     cardio.Schema
	classifier Classifier
	version    string
}

func NewModelContext(schema cardio.Schema, classifier Classifier, version string) (*ModelContext, error) {
	if schema.Len() == 0 || classifier == nil {
		return nil, fmt.Errorf("incomplete model context: %w", cardio.ErrModelArtifactUnavailable)
	}
	return &ModelContext{schema: schema, classifier: classifier, version: version}, nil
}

// LoadModelContext reads the artifact directory. versionOverride, when set,
// replaces the version recorded in the model artifact.
func LoadModelContext(dir, versionOverride string) (*ModelContext, error) {
	p, err := predictor.Load(dir)
	if err != nil {
		return nil, err
	}
	version := p.Version()
	if versionOverride != "" {
		version = versionOverride
	}
	return NewModelContext(p.Schema(), p, version)
}

func (m *ModelContext) Schema() cardio.Schema {
	return m.schema
}

func (m *ModelContext) Version() string {
	return m.version
}
