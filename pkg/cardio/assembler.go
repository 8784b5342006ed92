package cardio

import "math"

// FeatureVector holds one value per schema position.
type FeatureVector []float64

// Values pairs each vector entry with its feature name.
func (v FeatureVector) Values(schema Schema) map[string]float64 {
	values := make(map[string]float64, len(v))
	for i, spec := range schema.specs {
		if i < len(v) {
			values[spec.Name] = v[i]
		}
	}
	return values
}

// Assemble resolves every schema feature from the record. Missing data falls
// back to derivations and defaults; values that are present but unusable
// fail the whole assembly so no partial vector escapes.
func Assemble(record PatientRecord, schema Schema) (FeatureVector, error) {
	vector := make(FeatureVector, 0, len(schema.specs))
	for _, spec := range schema.specs {
		value, err := resolve(record, spec)
		if err != nil {
			return nil, err
		}
		vector = append(vector, value)
	}
	return vector, nil
}

func resolve(record PatientRecord, spec FeatureSpec) (float64, error) {
	if v, ok := record.Lookup(spec.Name); ok {
		return coerce(spec.Name, v)
	}
	switch spec.Name {
	case FieldAgeYears:
		if v, ok := record.Lookup(FieldAge); ok {
			return coerce(FieldAge, v)
		}
	case FieldBMI:
		if record.Has(FieldHeight, FieldWeight) {
			return deriveBMI(record)
		}
	}
	return spec.Default, nil
}

func deriveBMI(record PatientRecord) (float64, error) {
	hv, _ := record.Lookup(FieldHeight)
	height, err := coerce(FieldHeight, hv)
	if err != nil {
		return 0, err
	}
	wv, _ := record.Lookup(FieldWeight)
	weight, err := coerce(FieldWeight, wv)
	if err != nil {
		return 0, err
	}
	if height == 0 {
		return 0, invalidFeature(FieldHeight, hv.raw, "height must be non-zero to derive bmi")
	}
	bmi := bmiOf(height, weight)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0, invalidFeature(FieldBMI, bmi, "derived bmi is not finite")
	}
	return bmi, nil
}

func bmiOf(heightCm, weightKg float64) float64 {
	heightM := heightCm / 100
	return weightKg / (heightM * heightM)
}

func coerce(name string, v Value) (float64, error) {
	f, err := v.Float()
	if err != nil {
		return 0, invalidFeature(name, v.raw, err.Error())
	}
	return f, nil
}
