package cardio

import (
	"fmt"
	"math"
)

const (
	AdviceHighCholesterol     = "High cholesterol detected. Consider dietary changes and exercise."
	AdviceModerateCholesterol = "Moderate cholesterol level. Regular monitoring recommended."
	AdviceBloodPressure       = "Elevated blood pressure. Consult with a healthcare provider."
	AdviceSmoking             = "Smoking increases cardiovascular risk. Consider quitting."
	AdviceAlcohol             = "Limit alcohol consumption to reduce cardiovascular risk."
	AdviceActivity            = "Include regular physical activity (30 minutes daily)."
	AdviceBMIFormat           = "BMI is %.1f. Aim for a healthy weight."
	AdviceCardiologist        = "High risk detected. Please consult a cardiologist."
	AdviceCheckups            = "Moderate risk. Regular health check-ups advised."
	AdviceHealthyLifestyle    = "Maintain a healthy lifestyle with balanced diet and exercise."
)

// Rule produces at most one advisory for a record.
type Rule struct {
	Name   string
	Advise func(record PatientRecord, probability float64) (string, bool)
}

// Rules is evaluated in order; the order is part of the response contract.
var Rules = []Rule{
	{Name: "cholesterol", Advise: cholesterolRule},
	{Name: "blood_pressure", Advise: bloodPressureRule},
	{Name: "smoking", Advise: flagRule(FieldSmoke, 1, AdviceSmoking)},
	{Name: "alcohol", Advise: flagRule(FieldAlco, 1, AdviceAlcohol)},
	{Name: "activity", Advise: flagRule(FieldActive, 0, AdviceActivity)},
	{Name: "bmi", Advise: bmiRule},
	{Name: "overall_risk", Advise: overallRiskRule},
}

// Recommend runs every rule and never returns an empty list.
func Recommend(record PatientRecord, probability float64) []string {
	return RecommendWith(Rules, record, probability)
}

func RecommendWith(rules []Rule, record PatientRecord, probability float64) []string {
	var out []string
	for _, rule := range rules {
		if advice, ok := rule.Advise(record, probability); ok {
			out = append(out, advice)
		}
	}
	if len(out) == 0 {
		out = append(out, AdviceHealthyLifestyle)
	}
	return out
}

func cholesterolRule(record PatientRecord, _ float64) (string, bool) {
	level, ok := record.Number(FieldCholesterol)
	switch {
	case !ok:
		return "", false
	case level > 2:
		return AdviceHighCholesterol, true
	case level == 2:
		return AdviceModerateCholesterol, true
	}
	return "", false
}

func bloodPressureRule(record PatientRecord, _ float64) (string, bool) {
	hi, okHi := record.Number(FieldAPHi)
	lo, okLo := record.Number(FieldAPLo)
	if okHi && okLo && (hi > 140 || lo > 90) {
		return AdviceBloodPressure, true
	}
	return "", false
}

func flagRule(field string, trigger float64, advice string) func(PatientRecord, float64) (string, bool) {
	return func(record PatientRecord, _ float64) (string, bool) {
		if v, ok := record.Number(field); ok && v == trigger {
			return advice, true
		}
		return "", false
	}
}

func bmiRule(record PatientRecord, _ float64) (string, bool) {
	bmi, ok := recordBMI(record)
	if !ok || bmi <= 25 {
		return "", false
	}
	return fmt.Sprintf(AdviceBMIFormat, bmi), true
}

// recordBMI prefers an explicit bmi field over height and weight.
func recordBMI(record PatientRecord) (float64, bool) {
	if _, present := record.Lookup(FieldBMI); present {
		return record.Number(FieldBMI)
	}
	height, okH := record.Number(FieldHeight)
	weight, okW := record.Number(FieldWeight)
	if !okH || !okW {
		return 0, false
	}
	bmi := bmiOf(height, weight)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0, false
	}
	return bmi, true
}

func overallRiskRule(_ PatientRecord, probability float64) (string, bool) {
	switch {
	case probability > 0.6:
		return AdviceCardiologist, true
	case probability > 0.3:
		return AdviceCheckups, true
	}
	return "", false
}
