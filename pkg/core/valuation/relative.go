package valuation

const (
	MethodTradingComps = "Trading Comps"
	MethodPrecedents   = "Precedent Transactions"
)

// RelativeValuationResult holds the implied valuation derived from comparable multiples.
type RelativeValuationResult struct {
	Methodology     string                          `json:"methodology"`
	Target          string                          `json:"target"`
	Rows            []MultipleRow                   `json:"rows"`
	Stats           SummaryStatistics               `json:"stats"`
	Implied         map[MultipleName]ValuationRange `json:"implied"`
	PrimaryMultiple MultipleName                    `json:"primary_multiple"`
	EVRange         ValuationRange                  `json:"ev_range"`
	EquityRange     ValuationRange                  `json:"equity_range"`
	SharePriceRange ValuationRange                  `json:"share_price_range"`
	// Insufficient is set when the primary multiple had no meaningful comparable.
	Insufficient bool `json:"insufficient"`
}

// CalculateComps performs Comparable Companies Analysis against public peers.
func CalculateComps(target FinancialEntity, peers []FinancialEntity) RelativeValuationResult {
	return calculateMultiples(MethodTradingComps, target, peers, AllMultiples)
}

// CalculateTransactions performs Precedent Transaction Analysis.
// Deals carry no share price, so Price/EPS is not part of the analysis.
func CalculateTransactions(target FinancialEntity, deals []FinancialEntity) RelativeValuationResult {
	return calculateMultiples(MethodPrecedents, target, deals, []MultipleName{EVRevenue, EVEBITDA, PE})
}

func calculateMultiples(method string, target FinancialEntity, comparables []FinancialEntity, used []MultipleName) RelativeValuationResult {
	rows := MultipleRows(comparables)
	sets := make([]MultipleSet, 0, len(rows))
	for _, r := range rows {
		sets = append(sets, r.Multiples)
	}

	all := SummarizeSets(sets)
	stats := make(SummaryStatistics, len(used))
	implied := make(map[MultipleName]ValuationRange, len(used))
	for _, m := range used {
		stats[m] = all[m]
		implied[m] = Project(m.Metric(target), all[m])
	}

	// EV/EBITDA is the primary multiple for both comps and precedents.
	ev := implied[EVEBITDA]
	equity := ToEquity(ev, target.NetDebt)

	return RelativeValuationResult{
		Methodology:     method,
		Target:          target.Label(),
		Rows:            rows,
		Stats:           stats,
		Implied:         implied,
		PrimaryMultiple: EVEBITDA,
		EVRange:         ev,
		EquityRange:     equity,
		SharePriceRange: ToSharePrice(equity, target.SharesOutstanding),
		Insufficient:    stats[EVEBITDA].IsEmpty(),
	}
}

// MethodologyRanges exposes the result to the football field.
func (r RelativeValuationResult) MethodologyRanges() MethodologyRanges {
	desc := "Public Market Comparables"
	if r.Methodology == MethodPrecedents {
		desc = "Historical M&A Deals"
	}
	ev, eq := r.EVRange, r.EquityRange
	return MethodologyRanges{
		Methodology: r.Methodology,
		Description: desc,
		EV:          &ev,
		Equity:      &eq,
	}
}
