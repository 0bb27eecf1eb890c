package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDCF_Perpetuity(t *testing.T) {
	// Setup: flat 100 FCF at 10% with zero growth is worth 1,000
	input := DCFInput{
		FreeCashFlows:     []float64{100, 100},
		WACC:              0.10,
		TerminalGrowth:    0,
		SharesOutstanding: 10,
		NetDebt:           100,
		TerminalEBITDA:    200,
	}

	// Execute
	res := CalculateDCF(input)

	// Verify
	assert.InDelta(t, 100/1.1+100/1.21, res.PVFCF, 1e-6)
	assert.InDelta(t, 1000.0, res.TerminalValue, 1e-6)
	assert.InDelta(t, 1000.0, res.EnterpriseValue, 1e-6)
	assert.InDelta(t, 900.0, res.EquityValue, 1e-6)
	assert.InDelta(t, 90.0, res.SharePrice, 1e-6)
	assert.InDelta(t, 5.0, res.ImpliedMultiple, 1e-6)
}

func TestCalculateDCF_PeriodWACCFallback(t *testing.T) {
	res := CalculateDCF(DCFInput{
		FreeCashFlows: []float64{100, 100},
		WACC:          0.20,
		PeriodWACCs:   []float64{0.10},
	})

	assert.Equal(t, 0.20, res.FinalWACC)
	assert.InDelta(t, 100/1.1+100/(1.1*1.2), res.PVFCF, 1e-6)
}

func TestCalculateDCF_Degenerate(t *testing.T) {
	res := CalculateDCF(DCFInput{FreeCashFlows: []float64{50}, WACC: 0.02, TerminalGrowth: 0.03})
	assert.Equal(t, 0.0, res.TerminalValue, "growth above WACC has no terminal value")
	assert.Equal(t, 0.0, res.SharePrice, "no shares")

	empty := CalculateDCF(DCFInput{WACC: 0.1})
	assert.Equal(t, 0.0, empty.EnterpriseValue)
}

func TestDCFResult_MethodologyRanges(t *testing.T) {
	res := DCFResult{EnterpriseValue: 1000}

	point := res.MethodologyRanges(nil, 100)
	assert.Equal(t, PointRange(1000), *point.EV)
	assert.Equal(t, PointRange(900), *point.Equity)

	grid := GridSummary{Min: 800, Median: 1000, Max: 1300}
	spread := res.MethodologyRanges(&grid, 100)
	assert.Equal(t, ValuationRange{Low: 700, Median: 900, High: 1200}, *spread.Equity)

	none := DCFResult{}.MethodologyRanges(nil, 0)
	assert.False(t, none.EV.IsApplicable())
}

func TestCalculateWACC(t *testing.T) {
	res := CalculateWACC(WACCInput{
		UnleveredBeta:     1.0,
		RiskFreeRate:      0.04,
		MarketRiskPremium: 0.05,
		PreTaxCostOfDebt:  0.06,
		TaxRate:           0.25,
		DebtToEquityRatio: 0.5,
	})

	assert.InDelta(t, 1.375, res.LeveredBeta, eps)
	assert.InDelta(t, 0.10875, res.CostOfEquity, eps)
	assert.InDelta(t, 0.045, res.CostOfDebt, eps)
	assert.InDelta(t, 1.0/3, res.WeightDebt, eps)
	assert.InDelta(t, 0.0875, res.WACC, eps)
}

func TestWACCSeries(t *testing.T) {
	base := WACCInput{UnleveredBeta: 1, RiskFreeRate: 0.04, MarketRiskPremium: 0.05, PreTaxCostOfDebt: 0.06, TaxRate: 0.25}

	series := WACCSeries(base, []CapitalStructure{{Debt: 50, Equity: 100}, {Debt: 10, Equity: 0}})

	assert.Len(t, series, 2)
	assert.InDelta(t, 0.0875, series[0], eps)
	assert.InDelta(t, 0.09, series[1], eps, "non-positive equity uses the target leverage")
}

func TestCalculateLBO(t *testing.T) {
	input := LBOInput{
		TargetEBITDA:    100,
		LeverageRatio:   5,
		InterestRate:    0.10,
		ExitMultiple:    8,
		EntryMultiple:   7,
		HoldingPeriod:   1,
		ProjectedEBITDA: []float64{100},
		TargetIRR:       0.20,
	}

	res := CalculateLBO(input)

	assert.True(t, res.Valid)
	assert.InDelta(t, 500.0, res.DebtRaised, eps)
	assert.InDelta(t, 450.0, res.DebtAtExit, eps)
	assert.InDelta(t, 350.0, res.ExitEquityValue, eps)
	assert.InDelta(t, 350/1.2, res.EquityCheck, 1e-6)
	assert.InDelta(t, 350/1.2+500, res.MaxEntryEV, 1e-6)
	assert.InDelta(t, (350/1.2+500)/100, res.ImpliedEntryMultiple, 1e-6)
	assert.InDelta(t, 0.75, res.AchievedIRR, 1e-9)
}

func TestCalculateLBO_ShortProjections(t *testing.T) {
	assert.NotPanics(t, func() {
		res := CalculateLBO(LBOInput{TargetEBITDA: 100, HoldingPeriod: 5, ProjectedEBITDA: []float64{100, 110}, ExitMultiple: 8})
		assert.True(t, res.Valid)
	})
	assert.False(t, CalculateLBO(LBOInput{TargetEBITDA: 100, HoldingPeriod: 5}).Valid)
	assert.False(t, CalculateLBO(LBOInput{ProjectedEBITDA: []float64{1}}).Valid)
}

func TestLBOResult_MethodologyRangesIsEquityOnly(t *testing.T) {
	m := LBOResult{MaxEntryEV: 900, Valid: true}.MethodologyRanges(nil, 100)

	assert.Nil(t, m.EV)
	assert.Equal(t, PointRange(800), *m.Equity)
	assert.False(t, LBOResult{}.MethodologyRanges(nil, 0).Equity.IsApplicable())
}
