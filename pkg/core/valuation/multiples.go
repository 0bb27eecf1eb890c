package valuation

// MultipleName identifies a valuation ratio.
type MultipleName string

const (
	EVRevenue  MultipleName = "ev_revenue"
	EVEBITDA   MultipleName = "ev_ebitda"
	PE         MultipleName = "pe"
	PriceToEPS MultipleName = "price_to_eps"
)

// AllMultiples is the fixed display order for multiple tables.
var AllMultiples = []MultipleName{EVRevenue, EVEBITDA, PE, PriceToEPS}

// Basis is what an implied value from a multiple represents.
type Basis string

const (
	BasisEnterprise Basis = "enterprise_value"
	BasisEquity     Basis = "equity_value"
	BasisPerShare   Basis = "share_price"
)

// Label returns the conventional display form, e.g. "EV/EBITDA".
func (m MultipleName) Label() string {
	switch m {
	case EVRevenue:
		return "EV/Revenue"
	case EVEBITDA:
		return "EV/EBITDA"
	case PE:
		return "P/E"
	case PriceToEPS:
		return "Price/EPS"
	}
	return string(m)
}

// Basis reports whether applying m to a target metric yields an EV, an equity value or a price.
func (m MultipleName) Basis() Basis {
	switch m {
	case PE:
		return BasisEquity
	case PriceToEPS:
		return BasisPerShare
	}
	return BasisEnterprise
}

// Metric returns the denominator of m for e. The same field is used both to compute a
// comparable's multiple and to project the target's implied value.
func (m MultipleName) Metric(e FinancialEntity) float64 {
	switch m {
	case EVRevenue:
		return e.Revenue
	case EVEBITDA:
		return e.EBITDA
	case PE:
		return e.NetIncome
	case PriceToEPS:
		return e.EPS
	}
	return 0
}

// numerator returns the value side of m for e.
func (m MultipleName) numerator(e FinancialEntity) float64 {
	switch m {
	case EVRevenue, EVEBITDA:
		return e.EnterpriseValue()
	case PE:
		return e.EquityValue()
	case PriceToEPS:
		return e.SharePrice
	}
	return 0
}

// MultipleSet maps each multiple to its ratio for one entity.
type MultipleSet map[MultipleName]float64

// CalculateMultiple returns numerator/denominator, or 0 when the denominator is not positive.
func CalculateMultiple(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0.0
	}
	return numerator / denominator
}

// MultipleFor computes a single multiple for e.
func MultipleFor(e FinancialEntity, m MultipleName) float64 {
	return CalculateMultiple(m.numerator(e), m.Metric(e))
}

// ComputeMultiples computes every supported multiple for e.
func ComputeMultiples(e FinancialEntity) MultipleSet {
	set := make(MultipleSet, len(AllMultiples))
	for _, m := range AllMultiples {
		set[m] = MultipleFor(e, m)
	}
	return set
}

// MultipleRow is one comparable's line in a multiples table.
type MultipleRow struct {
	Name            string      `json:"name"`
	Ticker          string      `json:"ticker,omitempty"`
	Acquirer        string      `json:"acquirer,omitempty"`
	Date            string      `json:"date,omitempty"`
	EnterpriseValue float64     `json:"enterprise_value"`
	EquityValue     float64     `json:"equity_value"`
	Multiples       MultipleSet `json:"multiples"`
}

// MultipleRows computes one row per comparable, preserving input order.
func MultipleRows(entities []FinancialEntity) []MultipleRow {
	rows := make([]MultipleRow, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, MultipleRow{
			Name:            e.Name,
			Ticker:          e.Ticker,
			Acquirer:        e.Acquirer,
			Date:            e.Date,
			EnterpriseValue: e.EnterpriseValue(),
			EquityValue:     e.EquityValue(),
			Multiples:       ComputeMultiples(e),
		})
	}
	return rows
}
