package synthesis

import (
	"time"

	"valuation_synthesis/pkg/core/projection"
	"valuation_synthesis/pkg/core/valuation"
)

// Sensitivity table names.
const (
	SensitivityDCF       = "dcf"
	SensitivityLBO       = "lbo"
	SensitivityComps     = "comps"
	SensitivityAccretion = "accretion"
)

// Sensitivity is one named grid with its summary.
type Sensitivity struct {
	Name    string                `json:"name"`
	Grid    valuation.Grid        `json:"grid"`
	Summary valuation.GridSummary `json:"summary"`
}

// DCFReport is the DCF result with the inputs it resolved.
type DCFReport struct {
	Result      valuation.DCFResult    `json:"result"`
	WACC        *valuation.WACCResult  `json:"wacc,omitempty"`
	PeriodWACCs []float64              `json:"period_waccs,omitempty"`
	NetDebt     float64                `json:"net_debt"`
	Projection  *projection.Projection `json:"projection,omitempty"`
	Sensitivity *Sensitivity           `json:"sensitivity,omitempty"`
}

type LBOReport struct {
	Result      valuation.LBOResult    `json:"result"`
	Projection  *projection.Projection `json:"projection,omitempty"`
	Sensitivity *Sensitivity           `json:"sensitivity,omitempty"`
}

type AccretionReport struct {
	Result      valuation.AccretionResult `json:"result"`
	Sensitivity Sensitivity               `json:"sensitivity"`
}

// Report is the output of one synthesis run. Nil sections were not requested.
type Report struct {
	RunID       string    `json:"run_id"`
	Target      string    `json:"target"`
	GeneratedAt time.Time `json:"generated_at"`

	Comps            *valuation.RelativeValuationResult `json:"comps,omitempty"`
	Precedents       *valuation.RelativeValuationResult `json:"precedents,omitempty"`
	DCF              *DCFReport                         `json:"dcf,omitempty"`
	LBO              *LBOReport                         `json:"lbo,omitempty"`
	SOTP             *valuation.SOTPResult              `json:"sotp,omitempty"`
	Accretion        *AccretionReport                   `json:"accretion,omitempty"`
	CompsSensitivity *Sensitivity                       `json:"-"`

	// Sensitivity lists every grid in a fixed order: DCF, LBO, comps, accretion.
	Sensitivity        []Sensitivity           `json:"sensitivity"`
	SensitivityOverall *valuation.OverallRange `json:"sensitivity_overall,omitempty"`

	FootballField valuation.FootballField  `json:"football_field"`
	Summary       []valuation.SummaryTable `json:"summary"`

	// Insufficient names methodologies whose peer data produced no positive multiple.
	Insufficient []string `json:"insufficient,omitempty"`
}
