package linear

import (
	"fmt"
	"math"
)

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Predict returns the positive-class probability for an already scaled sample.
func Predict(weights Weights, sample []float64) (float64, error) {
	if len(sample) != len(weights.Coefficients) {
		return 0, fmt.Errorf("sample has %d values, model expects %d", len(sample), len(weights.Coefficients))
	}
	return sigmoid(dot(weights.Coefficients, sample) + weights.Bias), nil
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
