// Package trend classifies the joint direction of pulse pressure and mean
// arterial pressure across an ordered reading history. The window is split
// into an earlier and a more recent half, each half is averaged, and the
// pair of per-metric directions maps through a fixed decision table to a
// clinical narrative. Falling pulse pressure is good news only when overall
// pressure is not rising, and rising pulse pressure is concerning in every
// combination.
package trend

import "time"

// Direction of a metric between the two window halves.
type Direction string

const (
	DirectionDecreasing   Direction = "decreasing"
	DirectionStable       Direction = "stable"
	DirectionIncreasing   Direction = "increasing"
	DirectionInsufficient Direction = "insufficient"
)

// Category is the trend outcome.
type Category string

const (
	BestScenario   Category = "bestScenario"
	Good           Category = "good"
	Neutral        Category = "neutral"
	NeedsAttention Category = "needsAttention"
	Concerning     Category = "concerning"
	MostConcerning Category = "mostConcerning"
	Insufficient   Category = "insufficient"
)

// Severity is the display color attached to an outcome.
type Severity string

const (
	SeverityGreen     Severity = "green"
	SeverityBlue      Severity = "blue"
	SeverityOrange    Severity = "orange"
	SeverityRed       Severity = "red"
	SeveritySecondary Severity = "secondary"
)

// DefaultMinSamples is the smallest window Analyze accepts. Two samples is
// the mathematical floor for a half split; callers usually require more.
const DefaultMinSamples = 2

// Half-average change thresholds in mmHg. MAP's is wider because it moves
// on a larger natural scale.
const (
	pulsePressureThreshold = 2.0
	meanArterialThreshold  = 3.0
)

// Sample is one reading's derived pressure pair.
type Sample struct {
	PulsePressure        float64   `json:"pulse_pressure"`
	MeanArterialPressure float64   `json:"mean_arterial_pressure"`
	Timestamp            time.Time `json:"timestamp"`
}

// Interpretation is the display narrative for an outcome.
type Interpretation struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Analysis is the full result of one trend evaluation.
type Analysis struct {
	SampleCount             int            `json:"sample_count"`
	PulsePressureDirection  Direction      `json:"pulse_pressure_direction"`
	MeanArterialDirection   Direction      `json:"mean_arterial_direction"`
	FirstHalfPulsePressure  float64        `json:"first_half_pulse_pressure"`
	SecondHalfPulsePressure float64        `json:"second_half_pulse_pressure"`
	FirstHalfMeanArterial   float64        `json:"first_half_mean_arterial"`
	SecondHalfMeanArterial  float64        `json:"second_half_mean_arterial"`
	Interpretation          Interpretation `json:"interpretation"`
}

type directionPair struct {
	pulse    Direction
	arterial Direction
}

var outcomes = map[directionPair]Category{
	{DirectionDecreasing, DirectionDecreasing}: BestScenario,
	{DirectionDecreasing, DirectionStable}:     Good,
	{DirectionDecreasing, DirectionIncreasing}: NeedsAttention,
	{DirectionStable, DirectionDecreasing}:     Good,
	{DirectionStable, DirectionStable}:         Neutral,
	{DirectionStable, DirectionIncreasing}:     Concerning,
	{DirectionIncreasing, DirectionDecreasing}: Concerning,
	{DirectionIncreasing, DirectionStable}:     Concerning,
	{DirectionIncreasing, DirectionIncreasing}: MostConcerning,
}

var interpretations = map[Category]Interpretation{
	BestScenario: {
		Category:    BestScenario,
		Title:       "Best Case Trend",
		Description: "Pulse pressure and mean arterial pressure are both coming down. Arterial load is easing across the board; whatever changed recently is working.",
		Severity:    SeverityGreen,
	},
	Good: {
		Category:    Good,
		Title:       "Improving",
		Description: "One pressure indicator is improving while the other holds steady. The overall direction is favorable.",
		Severity:    SeverityGreen,
	},
	Neutral: {
		Category:    Neutral,
		Title:       "Holding Steady",
		Description: "Both indicators are stable across this window. No meaningful change in either direction.",
		Severity:    SeverityBlue,
	},
	NeedsAttention: {
		Category:    NeedsAttention,
		Title:       "Mixed Signals",
		Description: "Pulse pressure is falling while mean arterial pressure rises, so the apparent improvement may reflect growing diastolic load rather than better arterial elasticity. Worth watching closely.",
		Severity:    SeverityOrange,
	},
	Concerning: {
		Category:    Concerning,
		Title:       "Concerning",
		Description: "At least one pressure indicator is moving the wrong way. Keep a close eye on upcoming readings and review recent habits and medication adherence.",
		Severity:    SeverityOrange,
	},
	MostConcerning: {
		Category:    MostConcerning,
		Title:       "Action Needed",
		Description: "Pulse pressure and mean arterial pressure are both rising, so combined arterial load is increasing. Bring this trend to a clinician.",
		Severity:    SeverityRed,
	},
	Insufficient: {
		Category:    Insufficient,
		Title:       "Not Enough Data",
		Description: "Record more readings to unlock trend analysis. A handful spread across several days gives the clearest picture.",
		Severity:    SeveritySecondary,
	},
}

// Describe returns the fixed display metadata for a category. Unknown
// categories read as insufficient.
func Describe(c Category) Interpretation {
	if i, ok := interpretations[c]; ok {
		return i
	}
	return interpretations[Insufficient]
}

// Analyze evaluates a chronologically ordered window, oldest first.
// minSamples below the floor is raised to it; pass 0 for the default. For
// odd counts the extra sample joins the more recent half.
func Analyze(samples []Sample, minSamples int) Analysis {
	if minSamples < DefaultMinSamples {
		minSamples = DefaultMinSamples
	}

	n := len(samples)
	if n < minSamples {
		return Analysis{
			SampleCount:            n,
			PulsePressureDirection: DirectionInsufficient,
			MeanArterialDirection:  DirectionInsufficient,
			Interpretation:         Describe(Insufficient),
		}
	}

	firstPP, firstMAP := averages(samples[:n/2])
	secondPP, secondMAP := averages(samples[n/2:])

	ppDir := direction(firstPP, secondPP, pulsePressureThreshold)
	mapDir := direction(firstMAP, secondMAP, meanArterialThreshold)

	return Analysis{
		SampleCount:             n,
		PulsePressureDirection:  ppDir,
		MeanArterialDirection:   mapDir,
		FirstHalfPulsePressure:  firstPP,
		SecondHalfPulsePressure: secondPP,
		FirstHalfMeanArterial:   firstMAP,
		SecondHalfMeanArterial:  secondMAP,
		Interpretation:          Describe(outcomes[directionPair{ppDir, mapDir}]),
	}
}

func averages(samples []Sample) (pp, mean float64) {
	for _, s := range samples {
		pp += s.PulsePressure
		mean += s.MeanArterialPressure
	}
	n := float64(len(samples))
	return pp / n, mean / n
}

// direction compares half averages. A move within the threshold counts as
// stable; the change must strictly exceed it to register.
func direction(first, second, threshold float64) Direction {
	diff := second - first
	switch {
	case diff < -threshold:
		return DirectionDecreasing
	case diff > threshold:
		return DirectionIncreasing
	default:
		return DirectionStable
	}
}
