package synthesis

import (
	"valuation_synthesis/pkg/core/projection"
	"valuation_synthesis/pkg/core/valuation"
)

// Request is everything a synthesis run can use. Every methodology section is optional;
// a methodology runs only when its inputs are present.
type Request struct {
	Target valuation.FinancialEntity `json:"target" yaml:"target"`

	// Comparables may be given inline, by stored set name, or both.
	Peers   []valuation.FinancialEntity `json:"peers,omitempty" yaml:"peers"`
	PeerSet string                      `json:"peer_set,omitempty" yaml:"peer_set"`
	Deals   []valuation.FinancialEntity `json:"deals,omitempty" yaml:"deals"`
	DealSet string                      `json:"deal_set,omitempty" yaml:"deal_set"`

	DCF       *DCFRequest              `json:"dcf,omitempty" yaml:"dcf"`
	LBO       *LBORequest              `json:"lbo,omitempty" yaml:"lbo"`
	SOTP      *SOTPRequest             `json:"sotp,omitempty" yaml:"sotp"`
	Accretion *AccretionRequest        `json:"accretion,omitempty" yaml:"accretion"`
	Comps     *CompsSensitivityRequest `json:"comps_sensitivity,omitempty" yaml:"comps_sensitivity"`
}

// DCFRequest runs a DCF and its WACC x growth grid. WACC is derived from WACCInputs when
// not given; CapitalStructure turns that into a per-year series. Drivers build the cash
// flows when FreeCashFlows is empty.
type DCFRequest struct {
	valuation.DCFInput `yaml:",inline"`

	Drivers          *projection.Drivers          `json:"drivers,omitempty" yaml:"drivers"`
	WACCInputs       *valuation.WACCInput         `json:"wacc_inputs,omitempty" yaml:"wacc_inputs"`
	CapitalStructure []valuation.CapitalStructure `json:"capital_structure,omitempty" yaml:"capital_structure"`
	WACCAxis         *valuation.Axis              `json:"wacc_axis,omitempty" yaml:"wacc_axis"`
	GrowthAxis       *valuation.Axis              `json:"growth_axis,omitempty" yaml:"growth_axis"`
	Mode             valuation.TerminalMode       `json:"sensitivity_mode,omitempty" yaml:"sensitivity_mode"`
}

// LBORequest runs the ability-to-pay LBO and its leverage x exit multiple grid.
type LBORequest struct {
	valuation.LBOInput `yaml:",inline"`

	Drivers          *projection.Drivers `json:"drivers,omitempty" yaml:"drivers"` // Used when ProjectedEBITDA is empty
	DebtRepaymentPct float64             `json:"debt_repayment_pct,omitempty" yaml:"debt_repayment_pct"`
	LeverageAxis     *valuation.Axis     `json:"leverage_axis,omitempty" yaml:"leverage_axis"`
	ExitAxis         *valuation.Axis     `json:"exit_axis,omitempty" yaml:"exit_axis"`
}

// SOTPRequest values a multi-segment company.
type SOTPRequest struct {
	Segments    []valuation.Segment            `json:"segments" yaml:"segments"`
	Adjustments valuation.CorporateAdjustments `json:"adjustments" yaml:"adjustments"`
}

// AccretionRequest runs accretion / dilution and its premium x synergies grid.
type AccretionRequest struct {
	valuation.AccretionInput `yaml:",inline"`

	PremiumAxis *valuation.Axis `json:"premium_axis,omitempty" yaml:"premium_axis"`
	SynergyAxis *valuation.Axis `json:"synergy_axis,omitempty" yaml:"synergy_axis"`
}

// CompsSensitivityRequest overrides the P/E x EV/EBITDA grid. Without it the grid is
// centred on the peer medians.
type CompsSensitivityRequest struct {
	PEAxis       *valuation.Axis `json:"pe_axis,omitempty" yaml:"pe_axis"`
	EVEBITDAAxis *valuation.Axis `json:"ev_ebitda_axis,omitempty" yaml:"ev_ebitda_axis"`
}
