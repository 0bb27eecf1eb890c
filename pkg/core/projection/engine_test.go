package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDrivers() Drivers {
	return Drivers{
		StartingRevenue: 1000,
		Growth:          []float64{0.10},
		Years:           3,
		EBITDAMargin:    0.20,
		DepreciationPct: 0.05,
		CapexPct:        0.04,
		NWCPct:          0.10,
		TaxRate:         0.25,
	}
}

func TestProject_CashFlowBuild(t *testing.T) {
	// Execute
	p, err := Project(sampleDrivers())

	// Verify
	require.NoError(t, err)
	require.Len(t, p.Years, 3)

	y1 := p.Years[0]
	assert.Equal(t, 1, y1.Year)
	assert.InDelta(t, 1000, y1.Revenue, 1e-9)
	assert.InDelta(t, 150, y1.EBIT, 1e-9)
	assert.InDelta(t, 0, y1.ChangeNWC, 1e-9, "first year carries no working capital change")
	assert.InDelta(t, 122.5, y1.UFCF, 1e-9)

	y2 := p.Years[1]
	assert.InDelta(t, 1100, y2.Revenue, 1e-9)
	assert.InDelta(t, 10, y2.ChangeNWC, 1e-9)
	assert.InDelta(t, 124.75, y2.UFCF, 1e-9)

	// The single growth rate repeats into year three.
	assert.InDelta(t, 1210, p.Years[2].Revenue, 1e-9)
	assert.InDelta(t, 137.225, p.Years[2].UFCF, 1e-9)

	assert.InDeltaSlice(t, []float64{122.5, 124.75, 137.225}, p.FreeCashFlows(), 1e-9)
	assert.InDeltaSlice(t, []float64{200, 220, 242}, p.EBITDA(), 1e-9)
	assert.InDeltaSlice(t, []float64{40, 44, 48.4}, p.Capex(), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 10, 11}, p.ChangeNWC(), 1e-9)
	assert.InDelta(t, 242, p.TerminalEBITDA(), 1e-9)
}

func TestProject_YearsFromGrowth(t *testing.T) {
	d := sampleDrivers()
	d.Years = 0
	d.Growth = []float64{0.10, 0.05}

	p, err := Project(d)

	require.NoError(t, err)
	require.Len(t, p.Years, 3)
	assert.InDelta(t, 1155, p.Years[2].Revenue, 1e-9)
}

func TestProject_InvalidDrivers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Drivers)
	}{
		{name: "no revenue", mutate: func(d *Drivers) { d.StartingRevenue = 0 }},
		{name: "negative years", mutate: func(d *Drivers) { d.Years = -1 }},
		{name: "too many years", mutate: func(d *Drivers) { d.Years = 51 }},
		{name: "no horizon", mutate: func(d *Drivers) { d.Years = 0; d.Growth = nil }},
		{name: "tax rate of one", mutate: func(d *Drivers) { d.TaxRate = 1 }},
		{name: "growth missing for later years", mutate: func(d *Drivers) { d.Growth = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDrivers()
			tt.mutate(&d)

			_, err := Project(d)

			assert.ErrorIs(t, err, ErrInvalidDrivers)
		})
	}
}

func TestStrategies(t *testing.T) {
	g := &GrowthStrategy{Base: 100, Rates: []float64{0.5}}
	v, err := g.Calculate(Context{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	v, err = g.Calculate(Context{Index: 4, LastYearValue: 200})
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)

	m := &MarginStrategy{Margin: 0.3}
	v, err = m.Calculate(Context{Revenue: 50})
	require.NoError(t, err)
	assert.InDelta(t, 15, v, 1e-12)
	assert.Equal(t, "PercentOfRevenue", m.Name())
	assert.Equal(t, "GrowthRate", g.Name())
}
