package valuation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// axisTolerance is how close a declared base value must be to an axis point to match it.
const axisTolerance = 1e-9

// Axis is one varied assumption: its values in display order and the base-case value.
type Axis struct {
	Label  string    `json:"label" yaml:"label"`
	Values []float64 `json:"values" yaml:"values"`
	Base   float64   `json:"base" yaml:"base"`
}

// Index returns the position of the base value in the axis. When the base value is absent
// the index falls back to 0 and found is false; callers must not trust base-case
// highlighting in that case.
func (a Axis) Index() (idx int, found bool) {
	for i, v := range a.Values {
		if math.Abs(v-a.Base) <= axisTolerance {
			return i, true
		}
	}
	return 0, false
}

// AxisAround builds an axis of 2*half+1 points centred on base with the given step.
func AxisAround(label string, base, step float64, half int) Axis {
	values := make([]float64, 0, 2*half+1)
	for i := -half; i <= half; i++ {
		values = append(values, base+float64(i)*step)
	}
	return Axis{Label: label, Values: values, Base: base}
}

// Grid is a two-way sensitivity table: Values[i][j] = f(Rows.Values[i], Cols.Values[j]).
type Grid struct {
	Rows         Axis        `json:"rows"`
	Cols         Axis        `json:"cols"`
	ValueLabel   string      `json:"value_label"`
	Values       [][]float64 `json:"values"`
	BaseRow      int         `json:"base_row"`
	BaseCol      int         `json:"base_col"`
	BaseRowFound bool        `json:"base_row_found"`
	BaseColFound bool        `json:"base_col_found"`
	BaseValue    float64     `json:"base_value"`
}

// BuildGrid evaluates f at every (row, col) point and records the base-case cell.
// BaseValue is f evaluated at the declared base assumptions, whether or not they lie on the axes.
func BuildGrid(rows, cols Axis, valueLabel string, f func(row, col float64) float64) Grid {
	values := make([][]float64, len(rows.Values))
	for i, r := range rows.Values {
		values[i] = make([]float64, len(cols.Values))
		for j, c := range cols.Values {
			values[i][j] = f(r, c)
		}
	}

	g := Grid{
		Rows:       rows,
		Cols:       cols,
		ValueLabel: valueLabel,
		Values:     values,
		BaseValue:  f(rows.Base, cols.Base),
	}
	g.BaseRow, g.BaseRowFound = rows.Index()
	g.BaseCol, g.BaseColFound = cols.Index()
	return g
}

// Cells flattens the grid row by row.
func (g Grid) Cells() []float64 {
	out := make([]float64, 0, len(g.Rows.Values)*len(g.Cols.Values))
	for _, row := range g.Values {
		out = append(out, row...)
	}
	return out
}

// GridSummary describes the spread of a grid. Unlike Summarize, negative cells are kept:
// a grid cell is a valuation, not a multiple.
type GridSummary struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Median   float64 `json:"median"`
	Mean     float64 `json:"mean"`
	BaseCase float64 `json:"base_case"`
}

// SummarizeGrid computes min/max/median/mean over every cell.
func SummarizeGrid(g Grid) GridSummary {
	cells := g.Cells()
	if len(cells) == 0 {
		return GridSummary{BaseCase: g.BaseValue}
	}
	sort.Float64s(cells)
	lo, hi := floats.Min(cells), floats.Max(cells)
	return GridSummary{
		Min:      lo,
		Max:      hi,
		Range:    hi - lo,
		Median:   Percentile(cells, 0.5),
		Mean:     stat.Mean(cells, nil),
		BaseCase: g.BaseValue,
	}
}

// ValuationRange exposes the grid spread as a valuation range for the football field.
func (s GridSummary) ValuationRange() ValuationRange {
	if s.Min == 0 && s.Max == 0 {
		return notApplicable()
	}
	return ValuationRange{Low: s.Min, Median: s.Median, High: s.Max}
}

// OverallAcrossGrids spans the min and max of every summary.
func OverallAcrossGrids(summaries []GridSummary) OverallRange {
	ranges := make([]NamedRange, 0, len(summaries))
	for _, s := range summaries {
		ranges = append(ranges, NamedRange{Range: ValuationRange{Low: s.Min, High: s.Max}})
	}
	return Aggregate(ranges)
}

// =============================================================================
// DCF: WACC x terminal growth
// =============================================================================

// TerminalMode selects how the terminal value responds to the grid axes.
type TerminalMode string

const (
	// TerminalRescale scales the base terminal value by (1+g)/(1+g_base). The WACC axis does
	// not re-discount anything, so every row is identical. This is a modelling approximation,
	// not a re-discounted terminal value.
	TerminalRescale TerminalMode = "rescale"
	// TerminalGordon recapitalises: TV_base * (1+g) / (wacc - g). The terminal term is
	// dropped when wacc <= g.
	TerminalGordon TerminalMode = "gordon"
)

// DCFSensitivityInput varies WACC (rows) against terminal growth (cols).
type DCFSensitivityInput struct {
	PVFCF         float64      `json:"pv_fcf" yaml:"pv_fcf"`
	TerminalValue float64      `json:"terminal_value" yaml:"terminal_value"`
	WACC          Axis         `json:"wacc" yaml:"wacc"`
	Growth        Axis         `json:"growth" yaml:"growth"`
	Mode          TerminalMode `json:"mode,omitempty" yaml:"mode"`
}

// DCFSensitivity builds the enterprise value grid.
func DCFSensitivity(in DCFSensitivityInput) Grid {
	baseGrowth := in.Growth.Base
	f := func(wacc, g float64) float64 {
		switch in.Mode {
		case TerminalGordon:
			if wacc <= g {
				return in.PVFCF
			}
			return in.PVFCF + in.TerminalValue*(1+g)/(wacc-g)
		default:
			if 1+baseGrowth <= 0 {
				return in.PVFCF
			}
			return in.PVFCF + in.TerminalValue*(1+g)/(1+baseGrowth)
		}
	}
	return BuildGrid(in.WACC, in.Growth, "Enterprise Value ($M)", f)
}

// =============================================================================
// LBO: entry leverage x exit multiple
// =============================================================================

// lboTaxShieldFactor approximates the annual tax shield captured over the hold.
const lboTaxShieldFactor = 0.3

// LBOSensitivityInput varies entry leverage (rows) against the exit multiple (cols).
type LBOSensitivityInput struct {
	EBITDA           float64 `json:"ebitda" yaml:"ebitda"`
	TaxRate          float64 `json:"tax_rate" yaml:"tax_rate"`
	DebtRepaymentPct float64 `json:"debt_repayment_pct" yaml:"debt_repayment_pct"`
	Leverage         Axis    `json:"leverage" yaml:"leverage"`
	ExitMultiple     Axis    `json:"exit_multiple" yaml:"exit_multiple"`
}

// LBOSensitivity builds the sponsor equity value grid:
//
//	equity = EBITDA*exit - EBITDA*lev*(1-repaid) + EBITDA*lev*tax*0.3
//
// The base case goes through the same formula, tax shield included, so it always equals
// the base cell.
func LBOSensitivity(in LBOSensitivityInput) Grid {
	f := func(leverage, exit float64) float64 {
		entryDebt := in.EBITDA * leverage
		debtAtExit := entryDebt * (1 - in.DebtRepaymentPct)
		taxShield := entryDebt * in.TaxRate * lboTaxShieldFactor
		return in.EBITDA*exit - debtAtExit + taxShield
	}
	return BuildGrid(in.Leverage, in.ExitMultiple, "Equity Value ($M)", f)
}

// =============================================================================
// Comps: P/E x EV/EBITDA
// =============================================================================

// compsNetDebtTurns estimates net debt as a multiple of EBITDA when none is supplied.
const compsNetDebtTurns = 2.0

// CompsSensitivityInput varies P/E (rows) against EV/EBITDA (cols).
type CompsSensitivityInput struct {
	EBITDA            float64 `json:"ebitda" yaml:"ebitda"`
	EPS               float64 `json:"eps" yaml:"eps"`
	SharesOutstanding float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
	PE                Axis    `json:"pe" yaml:"pe"`
	EVEBITDA          Axis    `json:"ev_ebitda" yaml:"ev_ebitda"`
}

// CompsSensitivity builds the implied equity value grid, taking the higher of the P/E value
// and the EV/EBITDA value net of an estimated 2x EBITDA of net debt.
func CompsSensitivity(in CompsSensitivityInput) Grid {
	f := func(pe, evx float64) float64 {
		fromPE := in.EPS * pe * in.SharesOutstanding
		fromEV := in.EBITDA*evx - in.EBITDA*compsNetDebtTurns
		return math.Max(fromPE, fromEV)
	}
	return BuildGrid(in.PE, in.EVEBITDA, "Equity Value ($M)", f)
}
