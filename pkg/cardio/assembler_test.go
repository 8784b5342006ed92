package cardio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainedFeatures = []string{
	"gender", "height", "weight", "ap_hi", "ap_lo",
	"cholesterol", "gluc", "smoke", "alco", "active",
	"age_years", "bmi",
}

func trainedSchema(t *testing.T) Schema {
	t.Helper()
	schema, err := NewSchema(trainedFeatures)
	require.NoError(t, err)
	return schema
}

func TestNewSchemaRejectsBadFeatureLists(t *testing.T) {
	_, err := NewSchema(nil)
	assert.ErrorIs(t, err, ErrModelArtifactUnavailable)

	_, err = NewSchema([]string{"bmi", "gender", "bmi"})
	assert.ErrorIs(t, err, ErrModelArtifactUnavailable)

	_, err = NewSchema([]string{"gender", ""})
	assert.ErrorIs(t, err, ErrModelArtifactUnavailable)
}

func TestNewSchemaAssignsDerivationPolicy(t *testing.T) {
	schema := trainedSchema(t)
	specs := schema.Specs()
	require.Len(t, specs, len(trainedFeatures))
	assert.Equal(t, trainedFeatures, schema.Names())

	assert.Equal(t, FeatureSpec{Name: "age_years", Kind: Derived, Default: 50}, specs[10])
	assert.Equal(t, FeatureSpec{Name: "bmi", Kind: Derived, Default: 25}, specs[11])
	assert.Equal(t, FeatureSpec{Name: "gender", Kind: Direct, Default: 0}, specs[0])
}

func TestAssembleEmptyRecordUsesDefaults(t *testing.T) {
	schema := trainedSchema(t)
	vector, err := Assemble(PatientRecord{}, schema)
	require.NoError(t, err)

	want := FeatureVector{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 50, 25}
	assert.Equal(t, want, vector)
}

func TestAssembleDerivesAgeAndBMI(t *testing.T) {
	schema := trainedSchema(t)
	record := NewRecord(map[string]interface{}{
		"age":    61,
		"height": 170,
		"weight": "72.25",
	})

	vector, err := Assemble(record, schema)
	require.NoError(t, err)

	values := vector.Values(schema)
	assert.Equal(t, 61.0, values["age_years"])
	assert.InDelta(t, 72.25/(1.7*1.7), values["bmi"], 1e-9)
	assert.Equal(t, 170.0, values["height"])
	assert.Equal(t, 72.25, values["weight"])
}

func TestAssembleDirectValueWinsOverDerivation(t *testing.T) {
	schema := trainedSchema(t)
	record := NewRecord(map[string]interface{}{
		"age":       80,
		"age_years": 40,
		"bmi":       "22.5",
		"height":    150,
		"weight":    120,
	})

	vector, err := Assemble(record, schema)
	require.NoError(t, err)
	values := vector.Values(schema)
	assert.Equal(t, 40.0, values["age_years"])
	assert.Equal(t, 22.5, values["bmi"])
}

func TestAssembleBMINeedsBothHeightAndWeight(t *testing.T) {
	schema := trainedSchema(t)
	vector, err := Assemble(NewRecord(map[string]interface{}{"height": 180}), schema)
	require.NoError(t, err)
	assert.Equal(t, 25.0, vector.Values(schema)["bmi"])
}

func TestAssembleRejectsZeroHeight(t *testing.T) {
	schema := trainedSchema(t)
	for _, height := range []interface{}{0, "0", json.Number("0.0")} {
		_, err := Assemble(NewRecord(map[string]interface{}{"height": height, "weight": 70}), schema)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidFeatureValue)
		assert.True(t, IsFeatureError(err))
	}
}

func TestAssembleRejectsNonNumericValues(t *testing.T) {
	schema := trainedSchema(t)
	cases := map[string]map[string]interface{}{
		"text":          {"ap_hi": "high"},
		"null":          {"cholesterol": nil},
		"nested":        {"gluc": map[string]interface{}{"value": 1}},
		"nan string":    {"weight": "NaN"},
		"alias text":    {"age": "fifty"},
		"bad weight":    {"height": 170, "weight": "heavy"},
		"infinite text": {"smoke": "+Inf"},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			vector, err := Assemble(NewRecord(data), schema)
			assert.Nil(t, vector)
			assert.ErrorIs(t, err, ErrInvalidFeatureValue)
		})
	}
}

func TestAssembleIgnoresUnknownNonSchemaFields(t *testing.T) {
	schema := trainedSchema(t)
	vector, err := Assemble(NewRecord(map[string]interface{}{"note": "fasting", "gender": 2}), schema)
	require.NoError(t, err)
	assert.Equal(t, 2.0, vector[0])
}

func TestAssembleLengthAndOrderForEveryFieldSubset(t *testing.T) {
	schema := trainedSchema(t)
	full := map[string]interface{}{
		"gender": 1, "height": 165, "weight": 60, "ap_hi": 130, "ap_lo": 85,
		"cholesterol": 2, "smoke": 1, "age": 44, "age_years": 45, "bmi": 23.1,
	}
	keys := make([]string, 0, len(full))
	for k := range full {
		keys = append(keys, k)
	}

	for mask := 0; mask < 1<<len(keys); mask++ {
		data := map[string]interface{}{}
		for i, k := range keys {
			if mask&(1<<i) != 0 {
				data[k] = full[k]
			}
		}
		record := NewRecord(data)
		vector, err := Assemble(record, schema)
		require.NoError(t, err)
		require.Len(t, vector, schema.Len())

		for i, spec := range schema.Specs() {
			if raw, ok := data[spec.Name]; ok {
				f, _ := NewValue(raw).Float()
				require.Equal(t, f, vector[i], "feature %s", spec.Name)
			}
		}

		again, err := Assemble(record, schema)
		require.NoError(t, err)
		require.Equal(t, vector, again)
	}
}

func TestAssembleIsFixedPointOnItsOwnOutput(t *testing.T) {
	schema := trainedSchema(t)
	record := NewRecord(map[string]interface{}{
		"age": 57, "height": 158, "weight": 81.3, "ap_hi": 145, "cholesterol": 3,
	})

	first, err := Assemble(record, schema)
	require.NoError(t, err)

	encoded, err := json.Marshal(first.Values(schema))
	require.NoError(t, err)
	var refed PatientRecord
	require.NoError(t, json.Unmarshal(encoded, &refed))

	second, err := Assemble(refed, schema)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := Assemble(FromFeatureValues(first.Values(schema)), schema)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}
