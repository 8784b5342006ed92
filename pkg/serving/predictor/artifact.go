package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// File names of the three artifacts written by the training pipeline.
const (
	ModelFile    = "model.json"
	ScalerFile   = "scaler.json"
	FeaturesFile = "features.json"
)

type ModelArtifact struct {
	Model struct {
		Type      string `json:"type" validate:"omitempty,eq=classification"`
		Algorithm string `json:"algorithm" validate:"omitempty,eq=logistic_regression"`
		Version   string `json:"version"`
		Weights   struct {
			Bias         float64   `json:"bias" validate:"finite"`
			Coefficients []float64 `json:"coefficients" validate:"required,min=1,dive,finite"`
		} `json:"weights"`
	} `json:"model"`
}

type ScalerArtifact struct {
	Mean  []float64 `json:"mean" validate:"required,min=1,dive,finite"`
	Scale []float64 `json:"scale" validate:"required,min=1,dive,finite,gte=0"`
}

type FeaturesArtifact struct {
	FeatureNames []string `json:"feature_names" validate:"required,min=1,unique,dive,required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func artifactValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
	})
	return validate
}

func readArtifact(dir, name string, into interface{}) error {
	path := filepath.Join(dir, name)
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(content, into); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	if err := artifactValidator().Struct(into); err != nil {
		return fmt.Errorf("validating %s: %s", name, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(messages, "; ")
}
