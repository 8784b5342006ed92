package cardio

import (
	"errors"
	"fmt"
)

var (
	ErrModelArtifactUnavailable = errors.New("model artifact unavailable")
	ErrServiceUnavailable       = errors.New("model not loaded")
	ErrInvalidFeatureValue      = errors.New("invalid feature value")
	ErrInvariantViolation       = errors.New("invariant violation")
	ErrEmptyRecord              = errors.New("no input data provided")
)

// FeatureError reports a caller-supplied value that cannot be turned into a
// feature. It matches ErrInvalidFeatureValue with errors.Is.
type FeatureError struct {
	Feature string
	Value   interface{}
	reason  string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("invalid value for %s (%v): %s", e.Feature, e.Value, e.reason)
}

func (e *FeatureError) Unwrap() error {
	return ErrInvalidFeatureValue
}

func IsFeatureError(err error) bool {
	var fe *FeatureError
	return errors.As(err, &fe)
}

func invalidFeature(feature string, value interface{}, reason string) error {
	return &FeatureError{Feature: feature, Value: value, reason: reason}
}
