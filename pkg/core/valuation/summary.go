package valuation

// View selects which side of the football field a table shows.
type View string

const (
	ViewEnterprise View = "enterprise_value"
	ViewEquity     View = "equity_value"
)

// ValuationLineItem represents one row in the summary table
type ValuationLineItem struct {
	Methodology string  `json:"methodology"`
	Low         float64 `json:"low"`
	Median      float64 `json:"median"`
	High        float64 `json:"high"`
}

// SummaryTable is one view of the football field, ready for rendering.
type SummaryTable struct {
	View          View                `json:"view"`
	Rows          []ValuationLineItem `json:"rows"`
	Overall       OverallRange        `json:"overall"`
	AverageMedian float64             `json:"average_median"`
}

// SummaryTables returns the EV and equity tables of ff, rows in methodology order.
func (ff FootballField) SummaryTables() []SummaryTable {
	return []SummaryTable{
		{View: ViewEnterprise, Rows: lineItems(ff.EVRanges), Overall: ff.EVOverall, AverageMedian: ff.EVAverageMedian},
		{View: ViewEquity, Rows: lineItems(ff.EquityRanges), Overall: ff.EquityOverall, AverageMedian: ff.EquityAverageMedian},
	}
}

func lineItems(ranges []NamedRange) []ValuationLineItem {
	items := make([]ValuationLineItem, 0, len(ranges))
	for _, r := range ranges {
		items = append(items, ValuationLineItem{
			Methodology: r.Methodology,
			Low:         r.Range.Low,
			Median:      r.Range.Median,
			High:        r.Range.High,
		})
	}
	return items
}
