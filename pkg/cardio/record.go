package cardio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names understood by the assembler and the recommendation rules.
const (
	FieldGender      = "gender"
	FieldHeight      = "height"
	FieldWeight      = "weight"
	FieldAPHi        = "ap_hi"
	FieldAPLo        = "ap_lo"
	FieldCholesterol = "cholesterol"
	FieldGluc        = "gluc"
	FieldSmoke       = "smoke"
	FieldAlco        = "alco"
	FieldActive      = "active"
	FieldAge         = "age"
	FieldAgeYears    = "age_years"
	FieldBMI         = "bmi"
)

// Value is a scalar as submitted by a caller: a JSON number, a numeric
// string, or anything else that will be rejected when read as a number.
type Value struct {
	raw interface{}
}

func NewValue(raw interface{}) Value {
	return Value{raw: raw}
}

func (v Value) Raw() interface{} {
	return v.raw
}

// Float coerces the value to a finite float64.
func (v Value) Float() (float64, error) {
	f, err := toFloat(v.raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value is not finite")
	}
	return f, nil
}

// PatientRecord is one request's worth of patient data. Known cardio fields
// have their own slot; anything else lands in Extra.
type PatientRecord struct {
	Gender      *Value
	Height      *Value
	Weight      *Value
	APHi        *Value
	APLo        *Value
	Cholesterol *Value
	Gluc        *Value
	Smoke       *Value
	Alco        *Value
	Active      *Value
	Age         *Value
	AgeYears    *Value
	BMI         *Value

	Extra map[string]Value
}

// NewRecord builds a record from a decoded key/value payload.
func NewRecord(data map[string]interface{}) PatientRecord {
	var r PatientRecord
	for key, raw := range data {
		r.Set(key, raw)
	}
	return r
}

// FromFeatureValues builds a record from resolved feature values, such as the
// features_values map of a previous assessment.
func FromFeatureValues(values map[string]float64) PatientRecord {
	var r PatientRecord
	for key, f := range values {
		r.Set(key, f)
	}
	return r
}

func (r *PatientRecord) Set(key string, raw interface{}) {
	v := NewValue(raw)
	if slot := r.slot(key); slot != nil {
		*slot = &v
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]Value)
	}
	r.Extra[key] = v
}

// Lookup returns the value stored under name and whether it was present.
func (r PatientRecord) Lookup(name string) (Value, bool) {
	if slot := r.slot(name); slot != nil {
		if *slot == nil {
			return Value{}, false
		}
		return **slot, true
	}
	v, ok := r.Extra[name]
	return v, ok
}

// Has reports whether every name is present.
func (r PatientRecord) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := r.Lookup(name); !ok {
			return false
		}
	}
	return true
}

// Number returns the value under name as a float. Absent and non-numeric
// values both report ok == false.
func (r PatientRecord) Number(name string) (float64, bool) {
	v, ok := r.Lookup(name)
	if !ok {
		return 0, false
	}
	f, err := v.Float()
	if err != nil {
		return 0, false
	}
	return f, true
}

func (r PatientRecord) Len() int {
	return len(r.Fields())
}

// Fields flattens the record back to its raw key/value form.
func (r PatientRecord) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(knownFields)+len(r.Extra))
	for _, name := range knownFields {
		if v, ok := r.Lookup(name); ok {
			fields[name] = v.raw
		}
	}
	for key, v := range r.Extra {
		fields[key] = v.raw
	}
	return fields
}

func (r *PatientRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return err
	}
	*r = NewRecord(payload)
	return nil
}

func (r PatientRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

var knownFields = []string{
	FieldGender, FieldHeight, FieldWeight, FieldAPHi, FieldAPLo,
	FieldCholesterol, FieldGluc, FieldSmoke, FieldAlco, FieldActive,
	FieldAge, FieldAgeYears, FieldBMI,
}

func (r *PatientRecord) slot(name string) **Value {
	switch name {
	case FieldGender:
		return &r.Gender
	case FieldHeight:
		return &r.Height
	case FieldWeight:
		return &r.Weight
	case FieldAPHi:
		return &r.APHi
	case FieldAPLo:
		return &r.APLo
	case FieldCholesterol:
		return &r.Cholesterol
	case FieldGluc:
		return &r.Gluc
	case FieldSmoke:
		return &r.Smoke
	case FieldAlco:
		return &r.Alco
	case FieldActive:
		return &r.Active
	case FieldAge:
		return &r.Age
	case FieldAgeYears:
		return &r.AgeYears
	case FieldBMI:
		return &r.BMI
	}
	return nil
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
