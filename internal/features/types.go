// Package features implements the heuristic classifier that turns extracted
// paper text into a feature vector of reported synthesis parameters.
package features

import "fmt"

// MethodHint is a coarse, mutually exclusive guess at the synthesis technique.
type MethodHint string

const (
	MethodUnknown     MethodHint = "Unknown"
	MethodSputtering  MethodHint = "Sputtering"
	MethodSolution    MethodHint = "Solution"
	MethodEvaporation MethodHint = "Evaporation"
)

// MethodHints lists every hint value in priority order, Unknown last.
var MethodHints = []MethodHint{MethodSputtering, MethodSolution, MethodEvaporation, MethodUnknown}

// ParseMethodHint converts a stored label back into a MethodHint.
func ParseMethodHint(s string) (MethodHint, error) {
	for _, h := range MethodHints {
		if string(h) == s {
			return h, nil
		}
	}
	return MethodUnknown, fmt.Errorf("unknown method hint: %q", s)
}

// Field names, used as report column names and evidence labels.
const (
	FieldTemperature             = "has_temperature"
	FieldTime                    = "has_time"
	FieldCoolingInfo             = "has_cooling_info"
	FieldCoolingData             = "has_cooling_data"
	FieldChalcogenPressure       = "has_chalcogen_pressure_explicit"
	FieldTinChalcogenidePressure = "has_tin_chalcogenide_pressure_explicit"
	FieldPressureCalculable      = "has_pressure_calculable"
	FieldMethodHint              = "synthesis_method_hint"
)

// BoolFields lists the boolean fields in report column order.
var BoolFields = []string{
	FieldTemperature,
	FieldTime,
	FieldCoolingInfo,
	FieldCoolingData,
	FieldChalcogenPressure,
	FieldTinChalcogenidePressure,
	FieldPressureCalculable,
}

// FeatureVector is the classifier output for one document. Vectors are
// passed by value; a vector is never modified after Classify returns it.
type FeatureVector struct {
	HasTemperature                     bool       `json:"has_temperature"`
	HasTime                            bool       `json:"has_time"`
	HasCoolingInfo                     bool       `json:"has_cooling_info"`
	HasCoolingData                     bool       `json:"has_cooling_data"`
	HasChalcogenPressureExplicit       bool       `json:"has_chalcogen_pressure_explicit"`
	HasTinChalcogenidePressureExplicit bool       `json:"has_tin_chalcogenide_pressure_explicit"`
	HasPressureCalculable              bool       `json:"has_pressure_calculable"`
	SynthesisMethodHint                MethodHint `json:"synthesis_method_hint"`
}

// Bools returns the boolean fields in BoolFields order.
func (v FeatureVector) Bools() []bool {
	return []bool{
		v.HasTemperature,
		v.HasTime,
		v.HasCoolingInfo,
		v.HasCoolingData,
		v.HasChalcogenPressureExplicit,
		v.HasTinChalcogenidePressureExplicit,
		v.HasPressureCalculable,
	}
}

// FromBools builds a vector from values in BoolFields order plus a hint.
// It is the inverse of Bools and is used when loading stored records.
func FromBools(values []bool, hint MethodHint) (FeatureVector, error) {
	if len(values) != len(BoolFields) {
		return FeatureVector{}, fmt.Errorf("expected %d feature values, got %d", len(BoolFields), len(values))
	}
	return FeatureVector{
		HasTemperature:                     values[0],
		HasTime:                            values[1],
		HasCoolingInfo:                     values[2],
		HasCoolingData:                     values[3],
		HasChalcogenPressureExplicit:       values[4],
		HasTinChalcogenidePressureExplicit: values[5],
		HasPressureCalculable:              values[6],
		SynthesisMethodHint:                hint,
	}, nil
}

// Tier is the confidence attached to a detector stage.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Hit records one rule that fired while classifying a document.
type Hit struct {
	Stage string `json:"stage"`
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Match string `json:"match"`
}

// Explanation is a feature vector together with the rules that produced it.
type Explanation struct {
	Features FeatureVector `json:"features"`
	Hits     []Hit         `json:"hits"`
}
