package valuation

// ValuationRange is a low / median / high value in millions (or per share for price ranges).
// Inapplicable marks a range derived from a non-positive metric or an empty comparable set;
// consumers must not render it as a valid zero range.
type ValuationRange struct {
	Low          float64 `json:"low" yaml:"low"`
	Median       float64 `json:"median" yaml:"median"`
	High         float64 `json:"high" yaml:"high"`
	Inapplicable bool    `json:"inapplicable,omitempty" yaml:"inapplicable"`
}

// IsApplicable reports whether r carries a usable valuation.
func (r ValuationRange) IsApplicable() bool {
	return !r.Inapplicable
}

// notApplicable is the zero range flagged as unusable.
func notApplicable() ValuationRange {
	return ValuationRange{Inapplicable: true}
}

// Project applies the interquartile multiples in s to the target metric m.
func Project(m float64, s Stats) ValuationRange {
	if m <= 0 || s.IsEmpty() {
		return notApplicable()
	}
	return ValuationRange{
		Low:    m * s.P25,
		Median: m * s.Median,
		High:   m * s.P75,
	}
}

// ToEquity converts an EV range to equity value using one net debt figure for all three points.
func ToEquity(ev ValuationRange, netDebt float64) ValuationRange {
	if !ev.IsApplicable() {
		return notApplicable()
	}
	return ValuationRange{
		Low:    ev.Low - netDebt,
		Median: ev.Median - netDebt,
		High:   ev.High - netDebt,
	}
}

// ToSharePrice divides an equity range by one share count for all three points.
func ToSharePrice(equity ValuationRange, sharesOutstanding float64) ValuationRange {
	if !equity.IsApplicable() || sharesOutstanding <= 0 {
		return notApplicable()
	}
	return ValuationRange{
		Low:    equity.Low / sharesOutstanding,
		Median: equity.Median / sharesOutstanding,
		High:   equity.High / sharesOutstanding,
	}
}

// PointRange is a degenerate range for single-point valuations (current market, SOTP).
func PointRange(v float64) ValuationRange {
	return ValuationRange{Low: v, Median: v, High: v}
}
