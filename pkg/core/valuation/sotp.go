package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSegment is returned when a business segment cannot be valued.
var ErrInvalidSegment = errors.New("invalid segment")

// SegmentMethod is how one business segment is valued.
type SegmentMethod string

const (
	SegmentEVEBITDA  SegmentMethod = "EV/EBITDA Multiple"
	SegmentPE        SegmentMethod = "P/E Multiple"
	SegmentEVRevenue SegmentMethod = "EV/Revenue Multiple"
	SegmentDCF       SegmentMethod = "DCF"
)

// Segment defaults applied when the caller leaves a field at zero.
const (
	defaultSegmentMultiple = 10.0
	defaultSegmentGrowth   = 0.03
	defaultSegmentBeta     = 1.0
)

// Simplified segment DCF parameters.
const (
	segmentRiskFreeRate      = 0.03
	segmentMarketRiskPremium = 0.055
	segmentTaxRate           = 0.25
	segmentTerminalGrowth    = 0.025
)

// Segment is one business line of a conglomerate.
type Segment struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Method      SegmentMethod `json:"valuation_method" yaml:"valuation_method"`
	Revenue     float64       `json:"revenue" yaml:"revenue"`
	EBITDA      float64       `json:"ebitda" yaml:"ebitda"`
	NetIncome   float64       `json:"net_income" yaml:"net_income"`
	Multiple    float64       `json:"multiple" yaml:"multiple"`
	GrowthRate  float64       `json:"growth_rate" yaml:"growth_rate"`
	Beta        float64       `json:"beta" yaml:"beta"`
}

// NewSegment validates s and fills the defaults for the optional fields.
func NewSegment(s Segment) (Segment, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return Segment{}, fmt.Errorf("%w: missing name", ErrInvalidSegment)
	}
	switch s.Method {
	case SegmentEVEBITDA, SegmentPE, SegmentEVRevenue, SegmentDCF:
	default:
		return Segment{}, fmt.Errorf("%w: %s: unknown valuation method %q", ErrInvalidSegment, s.Name, s.Method)
	}
	for _, v := range []float64{s.Revenue, s.EBITDA, s.NetIncome, s.Multiple, s.GrowthRate, s.Beta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Segment{}, fmt.Errorf("%w: %s: non-finite input", ErrInvalidSegment, s.Name)
		}
	}
	if s.Multiple == 0 {
		s.Multiple = defaultSegmentMultiple
	}
	if s.GrowthRate == 0 {
		s.GrowthRate = defaultSegmentGrowth
	}
	if s.Beta == 0 {
		s.Beta = defaultSegmentBeta
	}
	return s, nil
}

// EnterpriseValue values the segment with its method.
func (s Segment) EnterpriseValue() float64 {
	switch s.Method {
	case SegmentEVEBITDA:
		return s.EBITDA * s.Multiple
	case SegmentPE:
		return s.NetIncome * s.Multiple
	case SegmentEVRevenue:
		return s.Revenue * s.Multiple
	case SegmentDCF:
		return segmentDCF(s)
	}
	return 0
}

// segmentDCF is a one-line perpetuity valuation: after-tax EBITDA capitalised at an unlevered
// cost of capital plus a grown terminal value.
func segmentDCF(s Segment) float64 {
	costOfEquity := segmentRiskFreeRate + s.Beta*segmentMarketRiskPremium
	wacc := costOfEquity * (1 - segmentTaxRate)
	if wacc <= segmentTerminalGrowth {
		return 0
	}
	afterTax := s.EBITDA * (1 - segmentTaxRate)
	terminal := afterTax * (1 + s.GrowthRate) / (wacc - segmentTerminalGrowth)
	return afterTax/wacc + terminal
}

// CorporateAdjustments bridges the sum of segment EVs to equity value.
type CorporateAdjustments struct {
	NetDebt            float64 `json:"net_debt" yaml:"net_debt"`
	MinorityInterests  float64 `json:"minority_interests" yaml:"minority_interests"`
	CashAndInvestments float64 `json:"cash_and_investments" yaml:"cash_and_investments"`
	OtherAssets        float64 `json:"other_assets" yaml:"other_assets"`
	OtherLiabilities   float64 `json:"other_liabilities" yaml:"other_liabilities"`
	SharesOutstanding  float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
	CurrentSharePrice  float64 `json:"current_share_price" yaml:"current_share_price"`
}

// SegmentValuation is one valued segment.
type SegmentValuation struct {
	Name            string        `json:"name"`
	Method          SegmentMethod `json:"valuation_method"`
	EnterpriseValue float64       `json:"enterprise_value"`
	ContributionPct float64       `json:"contribution_pct"` // Share of total segment EV, 0-100
}

// SOTPResult is the consolidated sum-of-the-parts valuation.
type SOTPResult struct {
	Segments              []SegmentValuation `json:"segments"`
	TotalSegmentEV        float64            `json:"total_segment_ev"`
	EquityValue           float64            `json:"equity_value"`
	ImpliedSharePrice     float64            `json:"implied_share_price"`
	PremiumDiscount       float64            `json:"premium_discount"`
	PremiumDiscountPct    float64            `json:"premium_discount_pct"`
	CurrentMarketCap      float64            `json:"current_market_cap"`
	ConglomerateEffect    float64            `json:"conglomerate_effect"` // Implied minus current market cap
	ConglomerateEffectPct float64            `json:"conglomerate_effect_pct"`
	LargestSegment        string             `json:"largest_segment"`
}

// CalculateSOTP values each segment and consolidates them with the corporate adjustments.
// Segments must come from NewSegment.
func CalculateSOTP(segments []Segment, adj CorporateAdjustments) SOTPResult {
	res := SOTPResult{Segments: make([]SegmentValuation, 0, len(segments))}
	largest := math.Inf(-1)
	for _, s := range segments {
		ev := s.EnterpriseValue()
		res.Segments = append(res.Segments, SegmentValuation{Name: s.Name, Method: s.Method, EnterpriseValue: ev})
		res.TotalSegmentEV += ev
		if ev > largest {
			largest = ev
			res.LargestSegment = s.Name
		}
	}
	if res.TotalSegmentEV > 0 {
		for i := range res.Segments {
			res.Segments[i].ContributionPct = res.Segments[i].EnterpriseValue / res.TotalSegmentEV * 100
		}
	}

	res.EquityValue = res.TotalSegmentEV - adj.NetDebt - adj.MinorityInterests +
		adj.CashAndInvestments + adj.OtherAssets - adj.OtherLiabilities

	if adj.SharesOutstanding > 0 {
		res.ImpliedSharePrice = res.EquityValue / adj.SharesOutstanding
	}
	res.PremiumDiscount = res.ImpliedSharePrice - adj.CurrentSharePrice
	if adj.CurrentSharePrice > 0 {
		res.PremiumDiscountPct = res.PremiumDiscount / adj.CurrentSharePrice
	}

	res.CurrentMarketCap = adj.CurrentSharePrice * adj.SharesOutstanding
	res.ConglomerateEffect = res.EquityValue - res.CurrentMarketCap
	if res.CurrentMarketCap > 0 {
		res.ConglomerateEffectPct = res.ConglomerateEffect / res.CurrentMarketCap
	}
	return res
}

// MethodologyRanges exposes the SOTP as point ranges. The EV view is the total segment EV,
// the equity view the consolidated equity value.
func (r SOTPResult) MethodologyRanges() MethodologyRanges {
	ev, eq := PointRange(r.TotalSegmentEV), PointRange(r.EquityValue)
	if len(r.Segments) == 0 || r.TotalSegmentEV <= 0 {
		ev, eq = notApplicable(), notApplicable()
	}
	return MethodologyRanges{
		Methodology: MethodSOTP,
		Description: "Segment Valuation",
		EV:          &ev,
		Equity:      &eq,
	}
}
