package projection

import (
	"fmt"
)

// maxYears bounds a projection; anything longer is a typo, not a forecast.
const maxYears = 50

// Drivers are the operating assumptions behind a free cash flow forecast. All rates are
// fractions of revenue except Growth and TaxRate.
type Drivers struct {
	StartingRevenue float64   `json:"starting_revenue" yaml:"starting_revenue"` // First forecast year
	Growth          []float64 `json:"growth" yaml:"growth"`                     // Year-over-year; last repeats
	Years           int       `json:"years" yaml:"years"`                       // 0 means len(Growth)+1
	EBITDAMargin    float64   `json:"ebitda_margin" yaml:"ebitda_margin"`
	DepreciationPct float64   `json:"depreciation_pct" yaml:"depreciation_pct"`
	CapexPct        float64   `json:"capex_pct" yaml:"capex_pct"`
	NWCPct          float64   `json:"nwc_pct" yaml:"nwc_pct"` // Net working capital balance
	TaxRate         float64   `json:"tax_rate" yaml:"tax_rate"`
}

// Year is one projected year.
type Year struct {
	Year         int     `json:"year"` // 1-based
	Revenue      float64 `json:"revenue"`
	EBITDA       float64 `json:"ebitda"`
	Depreciation float64 `json:"depreciation"`
	EBIT         float64 `json:"ebit"`
	NOPAT        float64 `json:"nopat"`
	Capex        float64 `json:"capex"`
	NWC          float64 `json:"nwc"`
	ChangeNWC    float64 `json:"change_nwc"`
	UFCF         float64 `json:"ufcf"`
}

// Projection is the full forecast.
type Projection struct {
	Years []Year `json:"years"`
}

// Validate checks the drivers before projecting.
func (d Drivers) Validate() error {
	switch {
	case d.StartingRevenue <= 0:
		return fmt.Errorf("%w: starting revenue must be positive", ErrInvalidDrivers)
	case d.Years < 0 || d.Years > maxYears:
		return fmt.Errorf("%w: years must be between 1 and %d", ErrInvalidDrivers, maxYears)
	case d.Years == 0 && len(d.Growth) == 0:
		return fmt.Errorf("%w: need years or growth rates", ErrInvalidDrivers)
	case d.TaxRate < 0 || d.TaxRate >= 1:
		return fmt.Errorf("%w: tax rate must be in [0, 1)", ErrInvalidDrivers)
	}
	return nil
}

func (d Drivers) years() int {
	if d.Years > 0 {
		return d.Years
	}
	return len(d.Growth) + 1
}

// Project builds the forecast. UFCF = EBIT x (1 - t) + D&A - capex - change in NWC, where
// EBIT = EBITDA - D&A and the first year carries no NWC change.
func Project(d Drivers) (*Projection, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	revenue := Strategy(&GrowthStrategy{Base: d.StartingRevenue, Rates: d.Growth})
	ebitda := Strategy(&MarginStrategy{Margin: d.EBITDAMargin})
	da := Strategy(&MarginStrategy{Margin: d.DepreciationPct})
	capex := Strategy(&MarginStrategy{Margin: d.CapexPct})
	nwc := Strategy(&MarginStrategy{Margin: d.NWCPct})

	n := d.years()
	p := &Projection{Years: make([]Year, 0, n)}
	var prev Year
	for i := 0; i < n; i++ {
		rev, err := revenue.Calculate(Context{Index: i, LastYearValue: prev.Revenue})
		if err != nil {
			return nil, err
		}
		ctx := Context{Index: i, Revenue: rev}
		y := Year{Year: i + 1, Revenue: rev}
		for _, line := range []struct {
			s   Strategy
			dst *float64
		}{{ebitda, &y.EBITDA}, {da, &y.Depreciation}, {capex, &y.Capex}, {nwc, &y.NWC}} {
			v, err := line.s.Calculate(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", line.s.Name(), err)
			}
			*line.dst = v
		}

		y.EBIT = y.EBITDA - y.Depreciation
		y.NOPAT = y.EBIT * (1 - d.TaxRate)
		if i > 0 {
			y.ChangeNWC = y.NWC - prev.NWC
		}
		y.UFCF = y.NOPAT + y.Depreciation - y.Capex - y.ChangeNWC

		p.Years = append(p.Years, y)
		prev = y
	}
	return p, nil
}

// FreeCashFlows returns the UFCF series.
func (p *Projection) FreeCashFlows() []float64 {
	return p.series(func(y Year) float64 { return y.UFCF })
}

// EBITDA returns the EBITDA series.
func (p *Projection) EBITDA() []float64 {
	return p.series(func(y Year) float64 { return y.EBITDA })
}

// Capex returns the capital expenditure series.
func (p *Projection) Capex() []float64 {
	return p.series(func(y Year) float64 { return y.Capex })
}

// ChangeNWC returns the working capital investment series.
func (p *Projection) ChangeNWC() []float64 {
	return p.series(func(y Year) float64 { return y.ChangeNWC })
}

// TerminalEBITDA is the last projected year's EBITDA.
func (p *Projection) TerminalEBITDA() float64 {
	if len(p.Years) == 0 {
		return 0
	}
	return p.Years[len(p.Years)-1].EBITDA
}

func (p *Projection) series(f func(Year) float64) []float64 {
	out := make([]float64, len(p.Years))
	for i, y := range p.Years {
		out[i] = f(y)
	}
	return out
}
