package valuation

// DCFInput encapsulates all inputs required for a Discounted Cash Flow valuation
type DCFInput struct {
	FreeCashFlows     []float64 `json:"free_cash_flows" yaml:"free_cash_flows"` // Unlevered FCF per projection year, millions
	WACC              float64   `json:"wacc" yaml:"wacc"`                       // Fallback when PeriodWACCs is short
	PeriodWACCs       []float64 `json:"period_waccs,omitempty" yaml:"period_waccs"`
	TerminalGrowth    float64   `json:"terminal_growth" yaml:"terminal_growth"` // e.g. 0.025
	SharesOutstanding float64   `json:"shares_outstanding" yaml:"shares_outstanding"`
	NetDebt           float64   `json:"net_debt" yaml:"net_debt"`
	TerminalEBITDA    float64   `json:"terminal_ebitda,omitempty" yaml:"terminal_ebitda"` // For the implied exit multiple
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	SharePrice      float64 `json:"share_price"`
	PVFCF           float64 `json:"pv_fcf"`
	PVTerminal      float64 `json:"pv_terminal"`
	TerminalValue   float64 `json:"terminal_value"`
	FinalWACC       float64 `json:"final_wacc"`
	ImpliedMultiple float64 `json:"implied_multiple"` // TV / terminal-year EBITDA
}

// waccFor returns the discount rate of period i.
func (in DCFInput) waccFor(i int) float64 {
	if i < len(in.PeriodWACCs) {
		return in.PeriodWACCs[i]
	}
	return in.WACC
}

// CalculateDCF performs a standard 2-stage DCF analysis
func CalculateDCF(input DCFInput) DCFResult {
	var pvFCF, terminalFCF float64

	// Track cumulative discount factor for dynamic WACC
	cumDiscountFactor := 1.0
	for i, fcf := range input.FreeCashFlows {
		wacc := input.waccFor(i)
		if wacc <= -1 {
			continue
		}
		cumDiscountFactor /= 1.0 + wacc
		pvFCF += fcf * cumDiscountFactor

		if i == len(input.FreeCashFlows)-1 {
			terminalFCF = fcf * (1 + input.TerminalGrowth)
		}
	}

	// Gordon growth on the final year WACC
	finalWACC := input.WACC
	if n := len(input.FreeCashFlows); n > 0 {
		finalWACC = input.waccFor(n - 1)
	}

	tv := 0.0
	if finalWACC > input.TerminalGrowth {
		tv = terminalFCF / (finalWACC - input.TerminalGrowth)
	}
	pvTerminal := tv * cumDiscountFactor

	ev := pvFCF + pvTerminal
	eqVal := ev - input.NetDebt
	sharePrice := 0.0
	if input.SharesOutstanding > 0 {
		sharePrice = eqVal / input.SharesOutstanding
	}

	impliedMultiple := 0.0
	if input.TerminalEBITDA > 0 {
		impliedMultiple = tv / input.TerminalEBITDA
	}

	return DCFResult{
		EnterpriseValue: ev,
		EquityValue:     eqVal,
		SharePrice:      sharePrice,
		PVFCF:           pvFCF,
		PVTerminal:      pvTerminal,
		TerminalValue:   tv,
		FinalWACC:       finalWACC,
		ImpliedMultiple: impliedMultiple,
	}
}

// SensitivityInput seeds a WACC x growth grid from this valuation. The grid rescales the
// discounted terminal value so that the base cell reproduces EnterpriseValue.
func (r DCFResult) SensitivityInput(wacc, growth Axis, mode TerminalMode) DCFSensitivityInput {
	tv := r.PVTerminal
	if mode == TerminalGordon {
		// Back out the discounted terminal-year cash flow so the base cell still matches.
		tv = 0
		if g := growth.Base; 1+g > 0 && r.FinalWACC > g {
			tv = r.PVTerminal * (r.FinalWACC - g) / (1 + g)
		}
	}
	return DCFSensitivityInput{
		PVFCF:         r.PVFCF,
		TerminalValue: tv,
		WACC:          wacc,
		Growth:        growth,
		Mode:          mode,
	}
}

// MethodologyRanges exposes the DCF to the football field. With a sensitivity grid the EV
// range spans the grid; otherwise it is the point estimate.
func (r DCFResult) MethodologyRanges(grid *GridSummary, netDebt float64) MethodologyRanges {
	ev := PointRange(r.EnterpriseValue)
	if grid != nil {
		ev = grid.ValuationRange()
	}
	if r.EnterpriseValue <= 0 && grid == nil {
		ev = notApplicable()
	}
	eq := ToEquity(ev, netDebt)
	return MethodologyRanges{
		Methodology: MethodDCF,
		Description: "Intrinsic Value",
		EV:          &ev,
		Equity:      &eq,
	}
}
