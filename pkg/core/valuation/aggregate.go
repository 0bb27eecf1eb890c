package valuation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	MethodDCF           = "DCF"
	MethodLBO           = "LBO"
	MethodCurrentMarket = "Current Market"
	MethodSOTP          = "Sum of the Parts"
)

// NamedRange pairs a methodology with one of its ranges.
type NamedRange struct {
	Methodology string         `json:"methodology"`
	Range       ValuationRange `json:"range"`
}

// OverallRange spans every applicable range of one view.
type OverallRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// Aggregate returns min(low) / max(high) over the applicable ranges. The result does not
// depend on input order. With no applicable range it is all zero.
func Aggregate(ranges []NamedRange) OverallRange {
	lows := make([]float64, 0, len(ranges))
	highs := make([]float64, 0, len(ranges))
	for _, r := range ranges {
		if !r.Range.IsApplicable() {
			continue
		}
		lows = append(lows, r.Range.Low)
		highs = append(highs, r.Range.High)
	}
	if len(lows) == 0 {
		return OverallRange{}
	}
	lo, hi := floats.Min(lows), floats.Max(highs)
	return OverallRange{Min: lo, Max: hi, Range: hi - lo}
}

// MethodologyRanges is one methodology's contribution to the football field. A nil EV or
// Equity means the methodology does not produce that view (LBO and current market have no EV).
type MethodologyRanges struct {
	Methodology string          `json:"methodology" yaml:"methodology"`
	Description string          `json:"description,omitempty" yaml:"description"`
	EV          *ValuationRange `json:"ev,omitempty" yaml:"ev"`
	Equity      *ValuationRange `json:"equity,omitempty" yaml:"equity"`
}

// FootballField is the synthesis view across methodologies. EV and equity are aggregated in
// two independent passes and are never mixed.
type FootballField struct {
	Methods             []string     `json:"methods"`
	EVRanges            []NamedRange `json:"ev_ranges"`
	EquityRanges        []NamedRange `json:"equity_ranges"`
	EVOverall           OverallRange `json:"ev_overall"`
	EquityOverall       OverallRange `json:"equity_overall"`
	EVAverageMedian     float64      `json:"ev_average_median"`
	EquityAverageMedian float64      `json:"equity_average_median"`
}

// BuildFootballField organises methodology ranges into the EV and equity views, keeping input
// order for table rendering. A zero median is replaced by the midpoint of low and high.
func BuildFootballField(methods []MethodologyRanges) FootballField {
	ff := FootballField{
		Methods:      make([]string, 0, len(methods)),
		EVRanges:     []NamedRange{},
		EquityRanges: []NamedRange{},
	}
	for _, m := range methods {
		ff.Methods = append(ff.Methods, m.Methodology)
		if m.EV != nil && m.EV.IsApplicable() {
			ff.EVRanges = append(ff.EVRanges, NamedRange{Methodology: m.Methodology, Range: withMidpoint(*m.EV)})
		}
		if m.Equity != nil && m.Equity.IsApplicable() {
			ff.EquityRanges = append(ff.EquityRanges, NamedRange{Methodology: m.Methodology, Range: withMidpoint(*m.Equity)})
		}
	}

	ff.EVOverall = Aggregate(ff.EVRanges)
	ff.EquityOverall = Aggregate(ff.EquityRanges)
	ff.EVAverageMedian = averageMedian(ff.EVRanges)
	ff.EquityAverageMedian = averageMedian(ff.EquityRanges)
	return ff
}

// CurrentMarketRanges is the market capitalisation as an equity-only point range.
func CurrentMarketRanges(sharePrice, sharesOutstanding float64) MethodologyRanges {
	eq := PointRange(sharePrice * sharesOutstanding)
	if sharePrice <= 0 || sharesOutstanding <= 0 {
		eq = notApplicable()
	}
	return MethodologyRanges{
		Methodology: MethodCurrentMarket,
		Description: "Current Trading Price",
		Equity:      &eq,
	}
}

func withMidpoint(r ValuationRange) ValuationRange {
	if r.Median == 0 {
		r.Median = (r.Low + r.High) / 2
	}
	return r
}

func averageMedian(ranges []NamedRange) float64 {
	if len(ranges) == 0 {
		return 0
	}
	medians := make([]float64, len(ranges))
	for i, r := range ranges {
		medians[i] = r.Range.Median
	}
	return stat.Mean(medians, nil)
}
