// Package vitals derives hemodynamic indicators from a systolic/diastolic
// pair and classifies them. All functions are pure and total: degenerate
// inputs (diastolic above systolic, zero pressures) produce mathematically
// defined values, never panics. Physiological validation happens upstream.
package vitals

// diastolicFraction approximates the fraction of the cardiac cycle spent in
// diastole. Fixed empirical constant.
const diastolicFraction = 0.412

// PulsePressure is the spread between systolic and diastolic pressure in
// mmHg. Not clamped.
func PulsePressure(systolic, diastolic int) int {
	return systolic - diastolic
}

// MeanArterialPressure estimates the average pressure over one cardiac
// cycle: diastolic + 0.412 x pulse pressure.
func MeanArterialPressure(systolic, diastolic int) float64 {
	return float64(diastolic) + diastolicFraction*float64(PulsePressure(systolic, diastolic))
}

// FractionalPulsePressure is pulse pressure normalized by mean arterial
// pressure, a unitless marker of arterial stiffness. Returns 0 when MAP is
// non-positive.
func FractionalPulsePressure(systolic, diastolic int) float64 {
	mean := MeanArterialPressure(systolic, diastolic)
	if mean <= 0 {
		return 0
	}
	return float64(PulsePressure(systolic, diastolic)) / mean
}

// BPCategory is the five-level blood-pressure classification.
type BPCategory string

const (
	BPNormal   BPCategory = "normal"
	BPElevated BPCategory = "elevated"
	BPStage1   BPCategory = "hypertensionStage1"
	BPStage2   BPCategory = "hypertensionStage2"
	BPCrisis   BPCategory = "hypertensiveCrisis"
)

// Classification thresholds in mmHg.
const (
	CrisisSystolic   = 180
	CrisisDiastolic  = 120
	Stage2Systolic   = 140
	Stage2Diastolic  = 90
	Stage1Systolic   = 130
	Stage1Diastolic  = 80
	ElevatedSystolic = 120
)

// ClassifyBP maps a reading to its category. Rules are evaluated most
// severe first, so the worse of the two pressures decides.
func ClassifyBP(systolic, diastolic int) BPCategory {
	switch {
	case systolic >= CrisisSystolic || diastolic >= CrisisDiastolic:
		return BPCrisis
	case systolic >= Stage2Systolic || diastolic >= Stage2Diastolic:
		return BPStage2
	case systolic >= Stage1Systolic || diastolic >= Stage1Diastolic:
		return BPStage1
	case systolic >= ElevatedSystolic:
		return BPElevated
	default:
		return BPNormal
	}
}

// IsUrgent reports whether the category calls for immediate medical
// attention.
func (c BPCategory) IsUrgent() bool {
	return c == BPCrisis
}

// OverridesFPP reports whether blood pressure is severe enough that
// arterial-stiffness messaging should step aside.
func (c BPCategory) OverridesFPP() bool {
	return c == BPCrisis || c == BPStage2
}

// Label returns the display name for the category.
func (c BPCategory) Label() string {
	switch c {
	case BPNormal:
		return "Normal"
	case BPElevated:
		return "Elevated"
	case BPStage1:
		return "Hypertension Stage 1"
	case BPStage2:
		return "Hypertension Stage 2"
	case BPCrisis:
		return "Hypertensive Crisis"
	default:
		return string(c)
	}
}

// Description returns the standing guidance for the category.
func (c BPCategory) Description() string {
	switch c {
	case BPNormal:
		return "Blood pressure is in the normal range. Keep up current habits."
	case BPElevated:
		return "Systolic pressure is creeping above normal. Lifestyle changes now can head off hypertension."
	case BPStage1:
		return "Stage 1 hypertension. Worth discussing lifestyle changes and possibly medication with a clinician."
	case BPStage2:
		return "Stage 2 hypertension. A clinician will likely recommend medication alongside lifestyle changes."
	case BPCrisis:
		return "Readings this high need prompt medical attention. If they persist on recheck, seek care immediately."
	default:
		return ""
	}
}

// FPPCategory is the three-level fractional-pulse-pressure classification.
type FPPCategory string

const (
	FPPNormal   FPPCategory = "normal"
	FPPElevated FPPCategory = "elevated"
	FPPHigh     FPPCategory = "high"
)

// fPP classification boundaries.
const (
	fppElevatedFloor = 0.40
	fppHighFloor     = 0.50
)

// ClassifyFPP maps a fractional pulse pressure to its category.
func ClassifyFPP(fpp float64) FPPCategory {
	switch {
	case fpp < fppElevatedFloor:
		return FPPNormal
	case fpp < fppHighFloor:
		return FPPElevated
	default:
		return FPPHigh
	}
}

// Label returns the display name for the category.
func (c FPPCategory) Label() string {
	switch c {
	case FPPNormal:
		return "Normal"
	case FPPElevated:
		return "Elevated"
	case FPPHigh:
		return "High"
	default:
		return string(c)
	}
}

// Description returns the plain reading of the category on its own,
// without blood-pressure context.
func (c FPPCategory) Description() string {
	switch c {
	case FPPNormal:
		return "Fractional pulse pressure is in the expected range, consistent with compliant arteries."
	case FPPElevated:
		return "Fractional pulse pressure is mildly raised, an early marker of arterial stiffening."
	case FPPHigh:
		return "Fractional pulse pressure is high, which suggests meaningful arterial stiffness. Worth raising with a clinician."
	default:
		return ""
	}
}

// Interpret combines the fPP reading with the blood-pressure category into
// one narrative. Severe hypertension gates the message: stiffness markers
// are secondary while pressure itself is the dominant concern.
func Interpret(fpp float64, bp BPCategory) string {
	cat := ClassifyFPP(fpp)
	switch {
	case bp.OverridesFPP():
		return "Blood pressure control takes priority right now. Fractional pulse pressure reflects long-term arterial stiffness and is secondary until pressure is brought down."
	case bp == BPStage1:
		return cat.Description() + " Note that blood pressure is also in stage 1 hypertension, which adds to overall cardiovascular load."
	default:
		return cat.Description()
	}
}
