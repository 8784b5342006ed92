package predictor

import (
	"fmt"

	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/ml/linear"
)

// Predictor is a loaded classifier plus its fitted scaler. It is read-only
// after Load and safe for concurrent use.
type Predictor struct {
	version string
	schema  cardio.Schema
	weights linear.Weights
	scaler  linear.StandardScaler
}

// Load reads model, scaler and feature list from dir. All three must exist
// and agree on the feature count, otherwise the error wraps
// cardio.ErrModelArtifactUnavailable.
func Load(dir string) (*Predictor, error) {
	var (
		model    ModelArtifact
		scaler   ScalerArtifact
		features FeaturesArtifact
	)
	if err := readArtifact(dir, ModelFile, &model); err != nil {
		return nil, fmt.Errorf("%v: %w", err, cardio.ErrModelArtifactUnavailable)
	}
	if err := readArtifact(dir, ScalerFile, &scaler); err != nil {
		return nil, fmt.Errorf("%v: %w", err, cardio.ErrModelArtifactUnavailable)
	}
	if err := readArtifact(dir, FeaturesFile, &features); err != nil {
		return nil, fmt.Errorf("%v: %w", err, cardio.ErrModelArtifactUnavailable)
	}

	n := len(features.FeatureNames)
	if len(model.Model.Weights.Coefficients) != n || len(scaler.Mean) != n || len(scaler.Scale) != n {
		return nil, fmt.Errorf("artifact size mismatch: features=%d coefficients=%d mean=%d scale=%d: %w",
			n, len(model.Model.Weights.Coefficients), len(scaler.Mean), len(scaler.Scale),
			cardio.ErrModelArtifactUnavailable)
	}

	schema, err := cardio.NewSchema(features.FeatureNames)
	if err != nil {
		return nil, err
	}

	p := &Predictor{
		version: model.Model.Version,
		schema:  schema,
		weights: linear.Weights{
			Bias:         model.Model.Weights.Bias,
			Coefficients: model.Model.Weights.Coefficients,
		},
		scaler: linear.StandardScaler{Mean: scaler.Mean, Scale: scaler.Scale},
	}

	logger.Log.WithFields(map[string]interface{}{
		"dir":      dir,
		"version":  p.version,
		"features": schema.Names(),
	}).Info("Model artifacts loaded")

	return p, nil
}

func (p *Predictor) Schema() cardio.Schema {
	return p.schema
}

func (p *Predictor) Version() string {
	return p.version
}

// PredictProba scales the vector and returns the positive-class probability.
func (p *Predictor) PredictProba(vector cardio.FeatureVector) (float64, error) {
	scaled, err := p.scaler.Transform(vector)
	if err != nil {
		return 0, err
	}
	return linear.Predict(p.weights, scaled)
}
