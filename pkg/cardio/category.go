package cardio

import (
	"fmt"
	"math"
)

type RiskCategory int

const (
	Low RiskCategory = iota
	Moderate
	High
	VeryHigh
)

// Lower edges of each band, inclusive.
const (
	moderateFrom = 0.30
	highFrom     = 0.60
	veryHighFrom = 0.80

	// HighRiskLabelAbove is the cut for the binary prediction label. It is
	// deliberately independent of the category bands.
	HighRiskLabelAbove = 0.5
)

func (c RiskCategory) String() string {
	switch c {
	case Low:
		return "Low Risk"
	case Moderate:
		return "Moderate Risk"
	case High:
		return "High Risk"
	case VeryHigh:
		return "Very High Risk"
	}
	return fmt.Sprintf("RiskCategory(%d)", int(c))
}

func (c RiskCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categorize maps a classifier probability onto its risk band. The
// probability is produced internally, so anything outside [0,1] is a bug.
func Categorize(p float64) (RiskCategory, error) {
	if err := CheckProbability(p); err != nil {
		return Low, err
	}
	switch {
	case p < moderateFrom:
		return Low, nil
	case p < highFrom:
		return Moderate, nil
	case p < veryHighFrom:
		return High, nil
	default:
		return VeryHigh, nil
	}
}

func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("probability %v outside [0,1]: %w", p, ErrInvariantViolation)
	}
	return nil
}

// Label is the binary prediction label.
func Label(p float64) string {
	if p > HighRiskLabelAbove {
		return "High Risk"
	}
	return "Low Risk"
}
