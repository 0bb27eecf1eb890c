package valuation

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestCalculateMultiple(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		expected float64
	}{
		{"positive", 900, 100, 9},
		{"zero denominator", 900, 0, 0},
		{"negative denominator", 900, -50, 0},
		{"negative numerator", -200, 100, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateMultiple(tt.num, tt.den), eps)
		})
	}
}

func TestCalculateMultiple_TotalOverNonPositiveDenominators(t *testing.T) {
	for _, den := range []float64{0, -1e-12, -1, -1e9, math.Inf(-1)} {
		assert.Equal(t, 0.0, CalculateMultiple(123.4, den), "denominator %v", den)
	}
}

func TestComputeMultiples(t *testing.T) {
	peer, err := NewFinancialEntity(FinancialEntity{
		Name:              "Peer Co",
		Ticker:            "peer",
		Revenue:           400,
		EBITDA:            100,
		NetIncome:         50,
		EPS:               2,
		NetDebt:           200,
		SharesOutstanding: 25,
		SharePrice:        40,
	})
	require.NoError(t, err)

	set := ComputeMultiples(peer)

	// Equity 1000, EV 1200
	assert.InDelta(t, 3.0, set[EVRevenue], eps)
	assert.InDelta(t, 12.0, set[EVEBITDA], eps)
	assert.InDelta(t, 20.0, set[PE], eps)
	assert.InDelta(t, 20.0, set[PriceToEPS], eps)
	assert.Equal(t, "PEER", peer.Ticker)
	assert.Equal(t, "Peer Co (PEER)", peer.Label())
}

func TestComputeMultiples_DealUsesReportedValues(t *testing.T) {
	deal := FinancialEntity{
		Name:                    "Target Inc",
		Acquirer:                "Buyer Corp",
		Revenue:                 500,
		EBITDA:                  80,
		NetIncome:               0,
		ReportedEnterpriseValue: 960,
		ReportedEquityValue:     800,
	}

	set := ComputeMultiples(deal)

	assert.InDelta(t, 12.0, set[EVEBITDA], eps)
	assert.InDelta(t, 1.92, set[EVRevenue], eps)
	assert.Equal(t, 0.0, set[PE], "no earnings means no signal")
	assert.Equal(t, 0.0, set[PriceToEPS])
}

func TestNewFinancialEntity_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input FinancialEntity
	}{
		{"missing name and ticker", FinancialEntity{Revenue: 1}},
		{"NaN metric", FinancialEntity{Name: "X", EBITDA: math.NaN()}},
		{"infinite metric", FinancialEntity{Name: "X", Revenue: math.Inf(1)}},
		{"negative shares", FinancialEntity{Name: "X", SharesOutstanding: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFinancialEntity(tt.input)
			assert.ErrorIs(t, err, ErrInvalidEntity)
		})
	}

	e, err := NewFinancialEntity(FinancialEntity{Ticker: " abc "})
	require.NoError(t, err)
	assert.Equal(t, "ABC", e.Name)
}

func TestNewEntities_DefaultsKindAndReportsPosition(t *testing.T) {
	out, err := NewEntities([]FinancialEntity{{Name: "A"}, {Name: "B", Kind: KindDeal}}, KindPeer)
	require.NoError(t, err)
	assert.Equal(t, KindPeer, out[0].Kind)
	assert.Equal(t, KindDeal, out[1].Kind)

	_, err = NewEntities([]FinancialEntity{{Name: "A"}, {}}, KindPeer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 2")
}

func TestSummarize_Scenario(t *testing.T) {
	s := Summarize([]float64{6.0, 8.0, 10.0, 12.0, 9.0})

	assert.InDelta(t, 9.0, s.Median, eps)
	assert.InDelta(t, 8.0, s.P25, eps)
	assert.InDelta(t, 10.0, s.P75, eps)
	assert.InDelta(t, 9.0, s.Mean, eps)
	assert.InDelta(t, 6.0, s.Min, eps)
	assert.InDelta(t, 12.0, s.Max, eps)
	assert.Equal(t, 5, s.Count)
}

func TestSummarize_EmptyInputs(t *testing.T) {
	inputs := map[string][]float64{
		"nil":           nil,
		"empty":         {},
		"zero":          {0},
		"all negative":  {-5, -3},
		"NaN and zeros": {math.NaN(), 0, -0},
		"infinite only": {math.Inf(1)},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			s := Summarize(in)
			assert.Equal(t, Stats{}, s)
			assert.True(t, s.IsEmpty())
		})
	}
}

func TestSummarize_FiltersNonPositive(t *testing.T) {
	s := Summarize([]float64{-4, 0, 10, 20})

	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 10.0, s.Min, eps)
	assert.InDelta(t, 15.0, s.Median, eps)
	assert.InDelta(t, 12.5, s.P25, eps)
}

func TestSummarize_SingleElementAndDuplicates(t *testing.T) {
	s := Summarize([]float64{7.5})
	for _, v := range []float64{s.Mean, s.Median, s.P25, s.P75, s.Min, s.Max} {
		assert.InDelta(t, 7.5, v, eps)
	}

	d := Summarize([]float64{4, 4, 4, 4})
	assert.InDelta(t, 4.0, d.P25, eps)
	assert.InDelta(t, 4.0, d.P75, eps)
	assert.Equal(t, 4, d.Count)
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, Percentile(sorted, 0.25), eps)
	assert.InDelta(t, 2.5, Percentile(sorted, 0.5), eps)
	assert.InDelta(t, 3.25, Percentile(sorted, 0.75), eps)
	assert.InDelta(t, 1.0, Percentile(sorted, 0), eps)
	assert.InDelta(t, 4.0, Percentile(sorted, 1), eps)
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}

func TestSummarize_OrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(25)
		values := make([]float64, n)
		for j := range values {
			values[j] = rng.NormFloat64()*10 + 5
		}
		values[0] = math.Abs(values[0]) + 0.1 // at least one positive

		s := Summarize(values)

		require.LessOrEqual(t, s.Min, s.P25)
		require.LessOrEqual(t, s.P25, s.Median)
		require.LessOrEqual(t, s.Median, s.P75)
		require.LessOrEqual(t, s.P75, s.Max)
		require.Positive(t, s.Min)
	}
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	assert.False(t, sort.Float64sAreSorted(in))
}

func TestSummarizeSets(t *testing.T) {
	sets := []MultipleSet{
		{EVEBITDA: 8, PE: 0},
		{EVEBITDA: 10, PE: 20},
	}

	stats := SummarizeSets(sets)

	assert.Len(t, stats, len(AllMultiples))
	assert.InDelta(t, 9.0, stats[EVEBITDA].Median, eps)
	assert.Equal(t, 1, stats[PE].Count)
	assert.True(t, stats[EVRevenue].IsEmpty())
}
