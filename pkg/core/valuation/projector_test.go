package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStats() Stats {
	return Summarize([]float64{6.0, 8.0, 10.0, 12.0, 9.0})
}

func TestProject_Scenario(t *testing.T) {
	r := Project(100, scenarioStats())

	assert.True(t, r.IsApplicable())
	assert.InDelta(t, 800.0, r.Low, eps)
	assert.InDelta(t, 900.0, r.Median, eps)
	assert.InDelta(t, 1000.0, r.High, eps)
}

func TestProject_NonPositiveMetricIsNotApplicable(t *testing.T) {
	for _, m := range []float64{0, -25} {
		r := Project(m, scenarioStats())
		assert.False(t, r.IsApplicable())
		assert.Equal(t, 0.0, r.Low)
		assert.Equal(t, 0.0, r.Median)
		assert.Equal(t, 0.0, r.High)
	}

	assert.False(t, Project(100, Stats{}).IsApplicable(), "empty stats carry no signal")
}

func TestProject_Proportional(t *testing.T) {
	s := scenarioStats()
	prev := ValuationRange{}
	for _, m := range []float64{1, 10, 55.5, 100, 2500} {
		r := Project(m, s)
		assert.InDelta(t, s.Median, r.Median/m, eps)
		assert.InDelta(t, s.P25, r.Low/m, eps)
		assert.InDelta(t, s.P75, r.High/m, eps)
		assert.Greater(t, r.Median, prev.Median)
		assert.LessOrEqual(t, r.Low, r.Median)
		assert.LessOrEqual(t, r.Median, r.High)
		prev = r
	}
}

func TestEquityAndSharePrice_Scenario(t *testing.T) {
	ev := ValuationRange{Low: 800, Median: 900, High: 1000}

	equity := ToEquity(ev, 150)
	price := ToSharePrice(equity, 50)

	assert.Equal(t, ValuationRange{Low: 650, Median: 750, High: 850}, equity)
	assert.InDelta(t, 13.0, price.Low, eps)
	assert.InDelta(t, 15.0, price.Median, eps)
	assert.InDelta(t, 17.0, price.High, eps)
}

func TestToSharePrice_Degenerate(t *testing.T) {
	equity := ValuationRange{Low: 650, Median: 750, High: 850}

	assert.False(t, ToSharePrice(equity, 0).IsApplicable())
	assert.False(t, ToSharePrice(equity, -10).IsApplicable())
	assert.False(t, ToSharePrice(notApplicable(), 50).IsApplicable())
	assert.False(t, ToEquity(notApplicable(), 150).IsApplicable())
}

func TestCalculateComps_EndToEnd(t *testing.T) {
	// Setup: five peers with EBITDA 10 and EV/EBITDA of 6, 8, 10, 12, 9
	var peers []FinancialEntity
	for i, ev := range []float64{60, 80, 100, 120, 90} {
		p, err := NewFinancialEntity(FinancialEntity{
			Name:                    string(rune('A' + i)),
			Revenue:                 40,
			EBITDA:                  10,
			NetIncome:               5,
			SharesOutstanding:       10,
			SharePrice:              ev / 20,
			ReportedEnterpriseValue: ev,
		})
		require.NoError(t, err)
		peers = append(peers, p)
	}
	target := FinancialEntity{Name: "Target", Revenue: 400, EBITDA: 100, NetIncome: 40, EPS: 0.8, NetDebt: 150, SharesOutstanding: 50}

	// Execute
	res := CalculateComps(target, peers)

	// Verify
	assert.Equal(t, MethodTradingComps, res.Methodology)
	assert.False(t, res.Insufficient)
	assert.Equal(t, EVEBITDA, res.PrimaryMultiple)
	assert.Len(t, res.Rows, 5)
	assert.InDelta(t, 9.0, res.Stats[EVEBITDA].Median, eps)

	assert.InDelta(t, 800.0, res.EVRange.Low, eps)
	assert.InDelta(t, 900.0, res.EVRange.Median, eps)
	assert.InDelta(t, 1000.0, res.EVRange.High, eps)
	assert.InDelta(t, 650.0, res.EquityRange.Low, eps)
	assert.InDelta(t, 850.0, res.EquityRange.High, eps)
	assert.InDelta(t, 13.0, res.SharePriceRange.Low, eps)
	assert.InDelta(t, 15.0, res.SharePriceRange.Median, eps)
	assert.InDelta(t, 17.0, res.SharePriceRange.High, eps)

	// EV/Revenue projects onto revenue, not EBITDA
	assert.InDelta(t, 400*res.Stats[EVRevenue].Median, res.Implied[EVRevenue].Median, eps)
	assert.Contains(t, res.Implied, PriceToEPS)
}

func TestCalculateTransactions_SkipsPriceToEPS(t *testing.T) {
	deals := []FinancialEntity{
		{Name: "D1", EBITDA: 50, Revenue: 200, NetIncome: 20, ReportedEnterpriseValue: 500, ReportedEquityValue: 400},
		{Name: "D2", EBITDA: 40, Revenue: 100, NetIncome: 10, ReportedEnterpriseValue: 480, ReportedEquityValue: 300},
	}
	target := FinancialEntity{Name: "T", EBITDA: 10, NetDebt: 20, SharesOutstanding: 5}

	res := CalculateTransactions(target, deals)

	assert.Equal(t, MethodPrecedents, res.Methodology)
	assert.NotContains(t, res.Implied, PriceToEPS)
	assert.NotContains(t, res.Stats, PriceToEPS)
	// EV/EBITDA 10x and 12x
	assert.InDelta(t, 110.0, res.EVRange.Median, eps)
	assert.InDelta(t, 90.0, res.EquityRange.Median, eps)
	assert.False(t, res.Implied[PE].IsApplicable(), "target has no earnings")
}

func TestCalculateComps_InsufficientPeers(t *testing.T) {
	peers := []FinancialEntity{{Name: "Loss maker", EBITDA: -10, SharePrice: 5, SharesOutstanding: 10}}
	target := FinancialEntity{Name: "T", EBITDA: 100, SharesOutstanding: 10}

	res := CalculateComps(target, peers)

	assert.True(t, res.Insufficient)
	assert.False(t, res.EVRange.IsApplicable())
	assert.False(t, res.EquityRange.IsApplicable())
	assert.False(t, res.SharePriceRange.IsApplicable())
}
