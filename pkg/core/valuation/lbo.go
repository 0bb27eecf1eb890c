package valuation

import (
	"math"
)

// LBOInput parameters for Ability-To-Pay analysis
type LBOInput struct {
	TargetEBITDA       float64   `json:"target_ebitda" yaml:"target_ebitda"`
	LeverageRatio      float64   `json:"leverage_ratio" yaml:"leverage_ratio"` // Debt / EBITDA (e.g. 5.0x)
	InterestRate       float64   `json:"interest_rate" yaml:"interest_rate"`
	TaxRate            float64   `json:"tax_rate" yaml:"tax_rate"`
	EntryMultiple      float64   `json:"entry_multiple,omitempty" yaml:"entry_multiple"` // Optional, enables AchievedIRR
	ExitMultiple       float64   `json:"exit_multiple" yaml:"exit_multiple"`
	HoldingPeriod      int       `json:"holding_period" yaml:"holding_period"` // Years; 0 means len(ProjectedEBITDA)
	ProjectedEBITDA    []float64 `json:"projected_ebitda" yaml:"projected_ebitda"`
	ProjectedCapex     []float64 `json:"projected_capex,omitempty" yaml:"projected_capex"`
	ProjectedChangeNWC []float64 `json:"projected_change_nwc,omitempty" yaml:"projected_change_nwc"`
	TargetIRR          float64   `json:"target_irr" yaml:"target_irr"` // e.g. 0.20
}

// LBOResult is the sponsor's ability to pay. Valid is false when there was nothing to model
// (no EBITDA or no projection years).
type LBOResult struct {
	MaxEntryEV           float64 `json:"max_entry_ev"`
	ImpliedEntryMultiple float64 `json:"implied_entry_multiple"`
	EquityCheck          float64 `json:"equity_check"`
	DebtRaised           float64 `json:"debt_raised"`
	DebtAtExit           float64 `json:"debt_at_exit"`
	ExitEquityValue      float64 `json:"exit_equity_value"`
	AchievedIRR          float64 `json:"achieved_irr,omitempty"` // Only when EntryMultiple is fixed
	Valid                bool    `json:"valid"`
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

// CalculateLBO determines the price a sponsor can pay to achieve TargetIRR
func CalculateLBO(input LBOInput) LBOResult {
	period := input.HoldingPeriod
	if period <= 0 || period > len(input.ProjectedEBITDA) {
		period = len(input.ProjectedEBITDA)
	}
	if period == 0 || input.TargetEBITDA <= 0 {
		return LBOResult{}
	}

	initialDebt := input.TargetEBITDA * input.LeverageRatio

	// Clean waterfall: FCF sweeps debt, deficits are drawn on a revolver.
	currentDebt := initialDebt
	for i := 0; i < period; i++ {
		ebitda := input.ProjectedEBITDA[i]
		interest := currentDebt * input.InterestRate

		// Tax base ignores D&A, assumed roughly equal to capex.
		taxes := (ebitda - interest) * input.TaxRate
		if taxes < 0 {
			taxes = 0
		}

		fcf := ebitda - interest - taxes - at(input.ProjectedCapex, i) - at(input.ProjectedChangeNWC, i)
		currentDebt -= fcf
		if currentDebt < 0 {
			currentDebt = 0
		}
	}

	exitEV := input.ProjectedEBITDA[period-1] * input.ExitMultiple
	exitEquity := exitEV - currentDebt

	// Entry = Exit / (1+IRR)^T
	requiredEquity := exitEquity / math.Pow(1.0+input.TargetIRR, float64(period))
	maxEntryEV := requiredEquity + initialDebt

	res := LBOResult{
		MaxEntryEV:           maxEntryEV,
		ImpliedEntryMultiple: maxEntryEV / input.TargetEBITDA,
		EquityCheck:          requiredEquity,
		DebtRaised:           initialDebt,
		DebtAtExit:           currentDebt,
		ExitEquityValue:      exitEquity,
		Valid:                true,
	}

	if input.EntryMultiple > 0 {
		entryEquity := input.TargetEBITDA*input.EntryMultiple - initialDebt
		if entryEquity > 0 && exitEquity > 0 {
			res.AchievedIRR = math.Pow(exitEquity/entryEquity, 1/float64(period)) - 1
		}
	}
	return res
}

// MethodologyRanges exposes the LBO to the football field. An LBO values the equity a sponsor
// can write, so it only has an equity view: the sensitivity grid spread when available,
// otherwise the ability-to-pay equity value.
func (r LBOResult) MethodologyRanges(grid *GridSummary, netDebt float64) MethodologyRanges {
	eq := notApplicable()
	switch {
	case grid != nil:
		eq = grid.ValuationRange()
	case r.Valid:
		eq = PointRange(r.MaxEntryEV - netDebt)
	}
	return MethodologyRanges{
		Methodology: MethodLBO,
		Description: "Leveraged Buyout Analysis",
		Equity:      &eq,
	}
}
