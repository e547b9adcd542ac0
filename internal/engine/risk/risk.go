// Package risk computes 10-year and 30-year cardiovascular risk from a
// demographic and lipid profile. Both models are sex-stratified with
// disjoint constant sets. The 10-year model is a log-linear equation in
// the Framingham family; the 30-year model is an illustrative point-based
// approximation that keeps the usual long-horizon shape (additive
// categorical points pushed through an exponential transform) and should
// not be read as a validated clinical instrument.
//
// The models assume positive age, cholesterol, HDL, and systolic values;
// callers gate invocation behind Profile.IsComplete rather than the models
// re-validating (ln of a non-positive input is undefined).
package risk

import "math"

// Sex selects the coefficient set.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Profile carries the model inputs. Cholesterol values are canonical
// mg/dL, systolic pressure is mmHg.
type Profile struct {
	Age                     int     `json:"age"`
	Sex                     Sex     `json:"sex"`
	TotalCholesterol        float64 `json:"total_cholesterol"`
	HDL                     float64 `json:"hdl"`
	SystolicBP              int     `json:"systolic_bp"`
	OnHypertensionTreatment bool    `json:"on_hypertension_treatment"`
	Smoker                  bool    `json:"smoker"`
	Diabetic                bool    `json:"diabetic"`
}

// Age domain of the 10-year model. The 30-year point model tolerates a wider
// range but assessments gate on the stricter one.
const (
	MinAge = 30
	MaxAge = 79
)

// IsComplete reports whether the profile lies in the 10-year model's input
// domain: age 30-79 with both cholesterol values positive.
func (p Profile) IsComplete() bool {
	return p.Age >= MinAge && p.Age <= MaxAge && p.TotalCholesterol > 0 && p.HDL > 0
}

// Category buckets a risk percentage.
type Category string

const (
	Low          Category = "low"
	Intermediate Category = "intermediate"
	High         Category = "high"
)

// Result is a computed risk score.
type Result struct {
	RiskPercent float64  `json:"risk_percent"`
	Category    Category `json:"category"`
}

// tenYearModel holds the log-linear coefficients for one sex.
type tenYearModel struct {
	lnAge            float64
	lnTotalChol      float64
	lnHDL            float64
	lnSBPUntreated   float64
	lnSBPTreated     float64
	smoker           float64
	diabetic         float64
	meanScore        float64
	baselineSurvival float64
}

var tenYearModels = map[Sex]tenYearModel{
	SexMale: {
		lnAge:            3.06117,
		lnTotalChol:      1.12370,
		lnHDL:            -0.93263,
		lnSBPUntreated:   1.93303,
		lnSBPTreated:     1.99881,
		smoker:           0.65451,
		diabetic:         0.57367,
		meanScore:        23.9802,
		baselineSurvival: 0.88936,
	},
	SexFemale: {
		lnAge:            2.32888,
		lnTotalChol:      1.20904,
		lnHDL:            -0.70833,
		lnSBPUntreated:   2.76157,
		lnSBPTreated:     2.82263,
		smoker:           0.52873,
		diabetic:         0.69154,
		meanScore:        26.1931,
		baselineSurvival: 0.95012,
	},
}

// thirtyYearModel holds the per-sex transform constants.
type thirtyYearModel struct {
	baseRisk float64
	offset   float64
}

var thirtyYearModels = map[Sex]thirtyYearModel{
	SexMale:   {baseRisk: 15.0, offset: 1.0},
	SexFemale: {baseRisk: 10.0, offset: 0.8},
}

// normalize collapses any unrecognized sex value to male so the model
// lookups stay total.
func normalize(s Sex) Sex {
	if s == SexFemale {
		return SexFemale
	}
	return SexMale
}

// TenYear evaluates the 10-year model. Valid for ages 30-79.
func TenYear(p Profile) Result {
	m := tenYearModels[normalize(p.Sex)]

	sbpCoeff := m.lnSBPUntreated
	if p.OnHypertensionTreatment {
		sbpCoeff = m.lnSBPTreated
	}

	score := m.lnAge*math.Log(float64(p.Age)) +
		m.lnTotalChol*math.Log(p.TotalCholesterol) +
		m.lnHDL*math.Log(p.HDL) +
		sbpCoeff*math.Log(float64(p.SystolicBP))
	if p.Smoker {
		score += m.smoker
	}
	if p.Diabetic {
		score += m.diabetic
	}

	pct := (1 - math.Pow(m.baselineSurvival, math.Exp(score-m.meanScore))) * 100
	pct = clampPercent(pct)
	return Result{RiskPercent: pct, Category: categorizeTenYear(pct)}
}

// Point values for the 30-year score.
const (
	pointsPerYear     = 0.04
	cholHighPoints    = 0.35
	cholBorderPoints  = 0.20
	hdlLowPoints      = 0.30
	hdlMidPoints      = 0.15
	sbpSeverePoints   = 0.40
	sbpHighPoints     = 0.25
	sbpElevatedPoints = 0.10
	treatmentPoints   = 0.15
	smokerPoints      = 0.35
	diabeticPoints    = 0.40
)

func agePoints(age int) float64 {
	return float64(age-20) * pointsPerYear
}

func cholesterolPoints(total float64) float64 {
	switch {
	case total > 240:
		return cholHighPoints
	case total > 200:
		return cholBorderPoints
	default:
		return 0
	}
}

func hdlPoints(hdl float64) float64 {
	switch {
	case hdl < 40:
		return hdlLowPoints
	case hdl < 50:
		return hdlMidPoints
	default:
		return 0
	}
}

func pressurePoints(systolic int) float64 {
	switch {
	case systolic >= 160:
		return sbpSeverePoints
	case systolic >= 140:
		return sbpHighPoints
	case systolic >= 120:
		return sbpElevatedPoints
	default:
		return 0
	}
}

// ThirtyYear evaluates the 30-year model. Best suited to ages 20-59 but
// tolerates a wider range.
func ThirtyYear(p Profile) Result {
	score := agePoints(p.Age) +
		cholesterolPoints(p.TotalCholesterol) +
		hdlPoints(p.HDL) +
		pressurePoints(p.SystolicBP)
	if p.OnHypertensionTreatment {
		score += treatmentPoints
	}
	if p.Smoker {
		score += smokerPoints
	}
	if p.Diabetic {
		score += diabeticPoints
	}

	m := thirtyYearModels[normalize(p.Sex)]
	pct := clampPercent(m.baseRisk * math.Exp(score-m.offset))
	return Result{RiskPercent: pct, Category: categorizeThirtyYear(pct)}
}

func categorizeTenYear(pct float64) Category {
	switch {
	case pct < 10:
		return Low
	case pct < 20:
		return Intermediate
	default:
		return High
	}
}

func categorizeThirtyYear(pct float64) Category {
	switch {
	case pct < 12:
		return Low
	case pct < 40:
		return Intermediate
	default:
		return High
	}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
