package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidEntity is returned when a FinancialEntity cannot be built from caller input.
var ErrInvalidEntity = errors.New("invalid financial entity")

// EntityKind tells a valuation target apart from the comparables used to value it.
type EntityKind string

const (
	KindTarget EntityKind = "target"
	KindPeer   EntityKind = "peer"
	KindDeal   EntityKind = "deal"
)

// FinancialEntity is a company or a historical deal. Monetary fields are in millions,
// EPS and SharePrice per share, SharesOutstanding in millions of shares.
// Missing inputs stay at zero, which every calculator in this package treats as "no signal".
type FinancialEntity struct {
	Name              string     `json:"name" yaml:"name"`
	Ticker            string     `json:"ticker,omitempty" yaml:"ticker"`
	Kind              EntityKind `json:"kind,omitempty" yaml:"kind"`
	Revenue           float64    `json:"revenue" yaml:"revenue"`
	EBITDA            float64    `json:"ebitda" yaml:"ebitda"`
	NetIncome         float64    `json:"net_income" yaml:"net_income"`
	EPS               float64    `json:"eps" yaml:"eps"`
	NetDebt           float64    `json:"net_debt" yaml:"net_debt"`
	SharesOutstanding float64    `json:"shares_outstanding" yaml:"shares_outstanding"`
	SharePrice        float64    `json:"share_price,omitempty" yaml:"share_price"`

	// Deals report transaction values directly instead of a share price.
	ReportedEnterpriseValue float64 `json:"enterprise_value,omitempty" yaml:"enterprise_value"`
	ReportedEquityValue     float64 `json:"equity_value,omitempty" yaml:"equity_value"`
	Acquirer                string  `json:"acquirer,omitempty" yaml:"acquirer"`
	Date                    string  `json:"date,omitempty" yaml:"date"`
}

// NewFinancialEntity validates e and returns a normalised copy.
func NewFinancialEntity(e FinancialEntity) (FinancialEntity, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Ticker = strings.ToUpper(strings.TrimSpace(e.Ticker))
	if e.Name == "" && e.Ticker == "" {
		return FinancialEntity{}, fmt.Errorf("%w: name or ticker required", ErrInvalidEntity)
	}
	if e.Name == "" {
		e.Name = e.Ticker
	}

	fields := map[string]float64{
		"revenue":            e.Revenue,
		"ebitda":             e.EBITDA,
		"net_income":         e.NetIncome,
		"eps":                e.EPS,
		"net_debt":           e.NetDebt,
		"shares_outstanding": e.SharesOutstanding,
		"share_price":        e.SharePrice,
		"enterprise_value":   e.ReportedEnterpriseValue,
		"equity_value":       e.ReportedEquityValue,
	}
	for field, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FinancialEntity{}, fmt.Errorf("%w: %s %s is not a finite number", ErrInvalidEntity, e.Name, field)
		}
	}
	if e.SharesOutstanding < 0 || e.SharePrice < 0 {
		return FinancialEntity{}, fmt.Errorf("%w: %s has negative share data", ErrInvalidEntity, e.Name)
	}
	return e, nil
}

// NewEntities validates a batch, stopping at the first invalid entry.
func NewEntities(in []FinancialEntity, kind EntityKind) ([]FinancialEntity, error) {
	out := make([]FinancialEntity, 0, len(in))
	for i, raw := range in {
		if raw.Kind == "" {
			raw.Kind = kind
		}
		e, err := NewFinancialEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EquityValue is the reported equity value when present, otherwise price x shares.
func (e FinancialEntity) EquityValue() float64 {
	if e.ReportedEquityValue > 0 {
		return e.ReportedEquityValue
	}
	return e.SharePrice * e.SharesOutstanding
}

// EnterpriseValue is the reported EV when present, otherwise equity value + net debt.
func (e FinancialEntity) EnterpriseValue() float64 {
	if e.ReportedEnterpriseValue > 0 {
		return e.ReportedEnterpriseValue
	}
	return e.EquityValue() + e.NetDebt
}

// Label is the display name used in tables.
func (e FinancialEntity) Label() string {
	if e.Ticker != "" && e.Ticker != e.Name {
		return fmt.Sprintf("%s (%s)", e.Name, e.Ticker)
	}
	return e.Name
}
