// Package lipids derives secondary values from a lipid panel and
// classifies each value against fixed reference ladders. Every input and
// threshold is canonical mg/dL; classification never converts units.
package lipids

import (
	"fmt"

	"github.com/cardio/cardio/internal/engine/units"
)

// FriedewaldTriglycerideLimit is the triglyceride level (mg/dL) at and
// above which the Friedewald LDL estimate is invalid.
const FriedewaldTriglycerideLimit = 400

// Panel is a lipid panel in canonical mg/dL. LDLMeasured and Triglycerides
// are optional; TotalCholesterol and HDL must be positive for ratios to be
// meaningful.
type Panel struct {
	TotalCholesterol float64
	HDL              float64
	LDLMeasured      *float64
	Triglycerides    *float64
}

// CalculatedLDL returns the LDL value for the panel: the measured value
// when present, otherwise the Friedewald estimate
// (total - HDL - triglycerides/5) when triglycerides are known and below
// the validity limit. Returns false when LDL cannot be determined; callers
// must treat that as unavailable, never as zero.
func (p Panel) CalculatedLDL() (float64, bool) {
	if p.LDLMeasured != nil {
		return *p.LDLMeasured, true
	}
	if p.Triglycerides != nil && *p.Triglycerides < FriedewaldTriglycerideLimit {
		return p.TotalCholesterol - p.HDL - *p.Triglycerides/5, true
	}
	return 0, false
}

// NonHDL is total cholesterol minus HDL.
func (p Panel) NonHDL() float64 {
	return p.TotalCholesterol - p.HDL
}

// TotalHDLRatio is total cholesterol over HDL. Returns 0 when HDL is not
// positive.
func (p Panel) TotalHDLRatio() float64 {
	if p.HDL <= 0 {
		return 0
	}
	return p.TotalCholesterol / p.HDL
}

// mmol renders a canonical bound in mmol/L for hint strings.
func mmol(conv units.Converter, mgdl float64) string {
	return fmt.Sprintf("%.1f", conv.FromCanonical(mgdl, units.MmolL))
}

// TotalCholesterolCategory classifies total cholesterol.
type TotalCholesterolCategory string

const (
	TotalDesirable  TotalCholesterolCategory = "desirable"
	TotalBorderline TotalCholesterolCategory = "borderline"
	TotalHigh       TotalCholesterolCategory = "high"
)

// ClassifyTotalCholesterol buckets a canonical mg/dL value.
func ClassifyTotalCholesterol(v float64) TotalCholesterolCategory {
	switch {
	case v < 200:
		return TotalDesirable
	case v < 240:
		return TotalBorderline
	default:
		return TotalHigh
	}
}

// Label returns the display name for the category.
func (c TotalCholesterolCategory) Label() string {
	switch c {
	case TotalDesirable:
		return "Desirable"
	case TotalBorderline:
		return "Borderline High"
	case TotalHigh:
		return "High"
	default:
		return string(c)
	}
}

// Hint returns the reference range for the category in both unit systems.
func (c TotalCholesterolCategory) Hint() string {
	switch c {
	case TotalDesirable:
		return fmt.Sprintf("Below 200 mg/dL (%s mmol/L)", mmol(units.Cholesterol, 200))
	case TotalBorderline:
		return fmt.Sprintf("200-239 mg/dL (%s-%s mmol/L)", mmol(units.Cholesterol, 200), mmol(units.Cholesterol, 239))
	case TotalHigh:
		return fmt.Sprintf("240 mg/dL (%s mmol/L) and above", mmol(units.Cholesterol, 240))
	default:
		return ""
	}
}

// HDLCategory classifies HDL cholesterol. Polarity is inverted relative to
// the other ladders: higher is better.
type HDLCategory string

const (
	HDLLow        HDLCategory = "low"
	HDLAcceptable HDLCategory = "acceptable"
	HDLOptimal    HDLCategory = "optimal"
)

// ClassifyHDL buckets a canonical mg/dL value.
func ClassifyHDL(v float64) HDLCategory {
	switch {
	case v < 40:
		return HDLLow
	case v < 60:
		return HDLAcceptable
	default:
		return HDLOptimal
	}
}

// Label returns the display name for the category.
func (c HDLCategory) Label() string {
	switch c {
	case HDLLow:
		return "Low"
	case HDLAcceptable:
		return "Acceptable"
	case HDLOptimal:
		return "Optimal"
	default:
		return string(c)
	}
}

// Hint returns the reference range for the category in both unit systems.
func (c HDLCategory) Hint() string {
	switch c {
	case HDLLow:
		return fmt.Sprintf("Below 40 mg/dL (%s mmol/L); higher is better", mmol(units.Cholesterol, 40))
	case HDLAcceptable:
		return fmt.Sprintf("40-59 mg/dL (%s-%s mmol/L)", mmol(units.Cholesterol, 40), mmol(units.Cholesterol, 59))
	case HDLOptimal:
		return fmt.Sprintf("60 mg/dL (%s mmol/L) and above", mmol(units.Cholesterol, 60))
	default:
		return ""
	}
}

// LDLCategory classifies LDL cholesterol.
type LDLCategory string

const (
	LDLOptimal     LDLCategory = "optimal"
	LDLNearOptimal LDLCategory = "nearOptimal"
	LDLBorderline  LDLCategory = "borderline"
	LDLHigh        LDLCategory = "high"
	LDLVeryHigh    LDLCategory = "veryHigh"
)

// ClassifyLDL buckets a canonical mg/dL value.
func ClassifyLDL(v float64) LDLCategory {
	switch {
	case v < 100:
		return LDLOptimal
	case v < 130:
		return LDLNearOptimal
	case v < 160:
		return LDLBorderline
	case v < 190:
		return LDLHigh
	default:
		return LDLVeryHigh
	}
}

// Label returns the display name for the category.
func (c LDLCategory) Label() string {
	switch c {
	case LDLOptimal:
		return "Optimal"
	case LDLNearOptimal:
		return "Near Optimal"
	case LDLBorderline:
		return "Borderline High"
	case LDLHigh:
		return "High"
	case LDLVeryHigh:
		return "Very High"
	default:
		return string(c)
	}
}

// Hint returns the reference range for the category in both unit systems.
func (c LDLCategory) Hint() string {
	switch c {
	case LDLOptimal:
		return fmt.Sprintf("Below 100 mg/dL (%s mmol/L)", mmol(units.Cholesterol, 100))
	case LDLNearOptimal:
		return fmt.Sprintf("100-129 mg/dL (%s-%s mmol/L)", mmol(units.Cholesterol, 100), mmol(units.Cholesterol, 129))
	case LDLBorderline:
		return fmt.Sprintf("130-159 mg/dL (%s-%s mmol/L)", mmol(units.Cholesterol, 130), mmol(units.Cholesterol, 159))
	case LDLHigh:
		return fmt.Sprintf("160-189 mg/dL (%s-%s mmol/L)", mmol(units.Cholesterol, 160), mmol(units.Cholesterol, 189))
	case LDLVeryHigh:
		return fmt.Sprintf("190 mg/dL (%s mmol/L) and above", mmol(units.Cholesterol, 190))
	default:
		return ""
	}
}

// TriglycerideCategory classifies triglycerides.
type TriglycerideCategory string

const (
	TriglyceridesNormal     TriglycerideCategory = "normal"
	TriglyceridesBorderline TriglycerideCategory = "borderline"
	TriglyceridesHigh       TriglycerideCategory = "high"
	TriglyceridesVeryHigh   TriglycerideCategory = "veryHigh"
)

// ClassifyTriglycerides buckets a canonical mg/dL value.
func ClassifyTriglycerides(v float64) TriglycerideCategory {
	switch {
	case v < 150:
		return TriglyceridesNormal
	case v < 200:
		return TriglyceridesBorderline
	case v < 500:
		return TriglyceridesHigh
	default:
		return TriglyceridesVeryHigh
	}
}

// Label returns the display name for the category.
func (c TriglycerideCategory) Label() string {
	switch c {
	case TriglyceridesNormal:
		return "Normal"
	case TriglyceridesBorderline:
		return "Borderline High"
	case TriglyceridesHigh:
		return "High"
	case TriglyceridesVeryHigh:
		return "Very High"
	default:
		return string(c)
	}
}

// Hint returns the reference range for the category in both unit systems.
func (c TriglycerideCategory) Hint() string {
	switch c {
	case TriglyceridesNormal:
		return fmt.Sprintf("Below 150 mg/dL (%s mmol/L)", mmol(units.Triglyceride, 150))
	case TriglyceridesBorderline:
		return fmt.Sprintf("150-199 mg/dL (%s-%s mmol/L)", mmol(units.Triglyceride, 150), mmol(units.Triglyceride, 199))
	case TriglyceridesHigh:
		return fmt.Sprintf("200-499 mg/dL (%s-%s mmol/L)", mmol(units.Triglyceride, 200), mmol(units.Triglyceride, 499))
	case TriglyceridesVeryHigh:
		return fmt.Sprintf("500 mg/dL (%s mmol/L) and above", mmol(units.Triglyceride, 500))
	default:
		return ""
	}
}

// RatioCategory classifies the total/HDL cholesterol ratio. The ratio is
// dimensionless, so hints carry no units.
type RatioCategory string

const (
	RatioOptimal    RatioCategory = "optimal"
	RatioBorderline RatioCategory = "borderline"
	RatioHigh       RatioCategory = "high"
)

// ClassifyRatio buckets a total/HDL ratio.
func ClassifyRatio(ratio float64) RatioCategory {
	switch {
	case ratio < 3.5:
		return RatioOptimal
	case ratio < 5.0:
		return RatioBorderline
	default:
		return RatioHigh
	}
}

// Label returns the display name for the category.
func (c RatioCategory) Label() string {
	switch c {
	case RatioOptimal:
		return "Optimal"
	case RatioBorderline:
		return "Borderline"
	case RatioHigh:
		return "High"
	default:
		return string(c)
	}
}

// Hint returns the reference range for the category.
func (c RatioCategory) Hint() string {
	switch c {
	case RatioOptimal:
		return "Below 3.5"
	case RatioBorderline:
		return "3.5-4.9"
	case RatioHigh:
		return "5.0 and above"
	default:
		return ""
	}
}
