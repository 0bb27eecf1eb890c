package valuation

// WACCInput parameters for calculating Cost of Capital
type WACCInput struct {
	UnleveredBeta     float64 `json:"unlevered_beta" yaml:"unlevered_beta"`
	RiskFreeRate      float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	MarketRiskPremium float64 `json:"market_risk_premium" yaml:"market_risk_premium"`
	PreTaxCostOfDebt  float64 `json:"pre_tax_cost_of_debt" yaml:"pre_tax_cost_of_debt"`
	TaxRate           float64 `json:"tax_rate" yaml:"tax_rate"`
	DebtToEquityRatio float64 `json:"debt_to_equity" yaml:"debt_to_equity"` // Target leverage (D/E)
}

// WACCResult holds the calculated rates
type WACCResult struct {
	LeveredBeta  float64 `json:"levered_beta"`
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"` // After-tax
	WACC         float64 `json:"wacc"`
	WeightDebt   float64 `json:"weight_debt"`
	WeightEquity float64 `json:"weight_equity"`
}

// CalculateWACC computes the Weighted Average Cost of Capital using CAPM and the Hamada equation.
// A negative D/E is treated as unlevered.
func CalculateWACC(input WACCInput) WACCResult {
	de := input.DebtToEquityRatio
	if de < 0 {
		de = 0
	}

	// BetaL = BetaU * (1 + (1-t)*(D/E))
	leveredBeta := input.UnleveredBeta * (1 + (1-input.TaxRate)*de)
	ke := input.RiskFreeRate + leveredBeta*input.MarketRiskPremium
	kd := input.PreTaxCostOfDebt * (1 - input.TaxRate)

	// D = xE, V = E(1+x)
	wd := de / (1 + de)
	we := 1.0 / (1 + de)

	return WACCResult{
		LeveredBeta:  leveredBeta,
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WACC:         ke*we + kd*wd,
		WeightDebt:   wd,
		WeightEquity: we,
	}
}

// CapitalStructure is the projected debt and book equity of one year.
type CapitalStructure struct {
	Debt   float64 `json:"debt" yaml:"debt"`
	Equity float64 `json:"equity" yaml:"equity"`
}

// WACCSeries calculates WACC for each projection year from its projected capital structure.
// Years with non-positive equity fall back to the target D/E of base.
func WACCSeries(base WACCInput, years []CapitalStructure) []float64 {
	waccs := make([]float64, len(years))
	for i, y := range years {
		yearInput := base
		if y.Equity > 0 {
			yearInput.DebtToEquityRatio = y.Debt / y.Equity
		}
		waccs[i] = CalculateWACC(yearInput).WACC
	}
	return waccs
}
