// Package units converts lipid concentrations between mg/dL and mmol/L.
// Canonical storage is always mg/dL; conversion exists for entry and display.
package units

import "strings"

// Unit identifies a concentration measurement system.
type Unit string

const (
	MgDL  Unit = "mg/dL"
	MmolL Unit = "mmol/L"
)

// Conversion factors in mg/dL per mmol/L. Cholesterol and triglycerides
// use different factors because their molecular weights differ.
const (
	CholesterolFactor  = 38.67
	TriglycerideFactor = 88.57
)

// Converter translates values of one analyte family between units.
type Converter struct {
	factor float64
}

var (
	Cholesterol  = Converter{factor: CholesterolFactor}
	Triglyceride = Converter{factor: TriglycerideFactor}
)

// ToCanonical converts a value expressed in unit to canonical mg/dL.
// Accepts any float, including zero or negative; range validation is the
// caller's concern.
func (cv Converter) ToCanonical(value float64, unit Unit) float64 {
	if unit == MmolL {
		return value * cv.factor
	}
	return value
}

// FromCanonical converts a canonical mg/dL value to the requested unit.
func (cv Converter) FromCanonical(value float64, unit Unit) float64 {
	if unit == MmolL {
		return value / cv.factor
	}
	return value
}

// ParseUnit maps a request string to a Unit. The empty string means the
// canonical default. Returns false for anything unrecognized.
func ParseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mg/dl", "mgdl":
		return MgDL, true
	case "mmol/l", "mmoll":
		return MmolL, true
	}
	return MgDL, false
}
