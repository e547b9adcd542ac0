package lipidpanel

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/engine/lipids"
	"github.com/cardio/cardio/internal/engine/units"
)

// Panel is a stored lipid panel. Values are always canonical mg/dL; unit
// conversion happens at the API boundary and never touches storage.
type Panel struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	TotalCholesterol float64   `db:"total_cholesterol" json:"total_cholesterol"`
	HDL              float64   `db:"hdl" json:"hdl"`
	LDLMeasured      *float64  `db:"ldl_measured" json:"ldl_measured,omitempty"`
	Triglycerides    *float64  `db:"triglycerides" json:"triglycerides,omitempty"`
	CollectedAt      time.Time `db:"collected_at" json:"collected_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LDL provenance markers on the derived view.
const (
	LDLSourceMeasured   = "measured"
	LDLSourceCalculated = "calculated"
)

// Values holds the panel's measured and computed numbers expressed in a
// single unit system. A nil LDL means the value is unavailable, not zero.
type Values struct {
	Unit             units.Unit `json:"unit"`
	TotalCholesterol float64    `json:"total_cholesterol"`
	HDL              float64    `json:"hdl"`
	LDL              *float64   `json:"ldl,omitempty"`
	LDLSource        string     `json:"ldl_source,omitempty"`
	NonHDL           float64    `json:"non_hdl"`
	Triglycerides    *float64   `json:"triglycerides,omitempty"`
	TotalHDLRatio    float64    `json:"total_hdl_ratio"`
}

// Classification pairs a category code with its display label and hint.
type Classification struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Hint     string `json:"hint"`
}

// Classifications carries one classification per available analyte.
// LDL and triglyceride entries are nil when the underlying value is.
type Classifications struct {
	TotalCholesterol Classification  `json:"total_cholesterol"`
	HDL              Classification  `json:"hdl"`
	LDL              *Classification `json:"ldl,omitempty"`
	Triglycerides    *Classification `json:"triglycerides,omitempty"`
	Ratio            Classification  `json:"ratio"`
}

// Derived is the computed view of a panel.
type Derived struct {
	Values          Values          `json:"values"`
	Classifications Classifications `json:"classifications"`
}

// WithDerived pairs a stored panel with its derived view for API responses.
type WithDerived struct {
	Panel
	Derived Derived `json:"derived"`
}

func (p *Panel) engine() lipids.Panel {
	return lipids.Panel{
		TotalCholesterol: p.TotalCholesterol,
		HDL:              p.HDL,
		LDLMeasured:      p.LDLMeasured,
		Triglycerides:    p.Triglycerides,
	}
}

// Derive computes calculated LDL, non-HDL, the TC/HDL ratio and all category
// ladders. Classification always runs on canonical mg/dL; the requested unit
// only affects the numbers in Values.
func (p *Panel) Derive(unit units.Unit) Derived {
	ep := p.engine()

	vals := Values{
		Unit:             unit,
		TotalCholesterol: units.Cholesterol.FromCanonical(p.TotalCholesterol, unit),
		HDL:              units.Cholesterol.FromCanonical(p.HDL, unit),
		NonHDL:           units.Cholesterol.FromCanonical(ep.NonHDL(), unit),
		TotalHDLRatio:    ep.TotalHDLRatio(),
	}
	if p.Triglycerides != nil {
		tg := units.Triglyceride.FromCanonical(*p.Triglycerides, unit)
		vals.Triglycerides = &tg
	}

	tcCat := lipids.ClassifyTotalCholesterol(p.TotalCholesterol)
	hdlCat := lipids.ClassifyHDL(p.HDL)
	ratioCat := lipids.ClassifyRatio(ep.TotalHDLRatio())
	cls := Classifications{
		TotalCholesterol: classify(string(tcCat), tcCat),
		HDL:              classify(string(hdlCat), hdlCat),
		Ratio:            classify(string(ratioCat), ratioCat),
	}
	if p.Triglycerides != nil {
		tgCat := lipids.ClassifyTriglycerides(*p.Triglycerides)
		c := classify(string(tgCat), tgCat)
		cls.Triglycerides = &c
	}

	if ldl, ok := ep.CalculatedLDL(); ok {
		display := units.Cholesterol.FromCanonical(ldl, unit)
		vals.LDL = &display
		vals.LDLSource = LDLSourceCalculated
		if p.LDLMeasured != nil {
			vals.LDLSource = LDLSourceMeasured
		}
		ldlCat := lipids.ClassifyLDL(ldl)
		c := classify(string(ldlCat), ldlCat)
		cls.LDL = &c
	}

	return Derived{Values: vals, Classifications: cls}
}

// WithDerived returns the panel bundled with its derived view.
func (p *Panel) WithDerived(unit units.Unit) WithDerived {
	return WithDerived{Panel: *p, Derived: p.Derive(unit)}
}

type category interface {
	Label() string
	Hint() string
}

func classify(code string, c category) Classification {
	return Classification{Category: code, Label: c.Label(), Hint: c.Hint()}
}
