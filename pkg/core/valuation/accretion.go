package valuation

import "math"

// mixTolerance is how far the consideration mix may drift from 100% before it is rescaled.
const mixTolerance = 0.01

// DealParty is the buyer or seller in a merger.
type DealParty struct {
	Name              string  `json:"name" yaml:"name"`
	NetIncome         float64 `json:"net_income" yaml:"net_income"`
	EPS               float64 `json:"eps" yaml:"eps"`
	SharesOutstanding float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
	PERatio           float64 `json:"pe_ratio" yaml:"pe_ratio"`
}

// ConsiderationMix is the share of the purchase price paid in cash, stock and new debt.
type ConsiderationMix struct {
	Cash  float64 `json:"cash_pct" yaml:"cash_pct"`
	Stock float64 `json:"stock_pct" yaml:"stock_pct"`
	Debt  float64 `json:"debt_pct" yaml:"debt_pct"`
}

// Normalized rescales the mix to sum to 1 when it is off by more than 1%.
func (m ConsiderationMix) Normalized() ConsiderationMix {
	total := m.Cash + m.Stock + m.Debt
	if total <= 0 || math.Abs(total-1) <= mixTolerance {
		return m
	}
	return ConsiderationMix{Cash: m.Cash / total, Stock: m.Stock / total, Debt: m.Debt / total}
}

// AccretionInput describes a proposed acquisition.
type AccretionInput struct {
	Buyer            DealParty        `json:"buyer" yaml:"buyer"`
	Seller           DealParty        `json:"seller" yaml:"seller"`
	PremiumPct       float64          `json:"purchase_premium_pct" yaml:"purchase_premium_pct"`
	Mix              ConsiderationMix `json:"consideration_mix" yaml:"consideration_mix"`
	InterestRate     float64          `json:"interest_rate" yaml:"interest_rate"`
	TaxRate          float64          `json:"tax_rate" yaml:"tax_rate"`
	RevenueSynergies float64          `json:"revenue_synergies" yaml:"revenue_synergies"`
	CostSynergies    float64          `json:"cost_synergies" yaml:"cost_synergies"`
	OneTimeCosts     float64          `json:"one_time_costs" yaml:"one_time_costs"`

	// TargetNetDebt is refinanced at close. TransactionFeesPct applies to the implied EV.
	TargetNetDebt      float64 `json:"target_net_debt" yaml:"target_net_debt"`
	TransactionFeesPct float64 `json:"transaction_fees_pct" yaml:"transaction_fees_pct"`
}

// sourcesUsesTolerance is the absolute gap under which the funding table is balanced.
const sourcesUsesTolerance = 1.0

// LineItem is one labelled row of a funding table.
type LineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// SourcesUses is the funding table of the deal. Sources only cover the consideration
// mix, so refinanced debt, fees and integration costs show up as a Shortfall.
type SourcesUses struct {
	Uses         []LineItem `json:"uses"`
	Sources      []LineItem `json:"sources"`
	TotalUses    float64    `json:"total_uses"`
	TotalSources float64    `json:"total_sources"`
	Shortfall    float64    `json:"shortfall"`
	Balanced     bool       `json:"balanced"`
}

// AccretionResult is the pro-forma EPS impact of the deal.
type AccretionResult struct {
	SellerMarketCap     float64          `json:"seller_market_cap"`
	EquityPurchasePrice float64          `json:"equity_purchase_price"`
	Mix                 ConsiderationMix `json:"consideration_mix"`
	CashConsideration   float64          `json:"cash_consideration"`
	StockConsideration  float64          `json:"stock_consideration"`
	DebtConsideration   float64          `json:"debt_consideration"`
	SharesIssued        float64          `json:"shares_issued"`
	NetInterestExpense  float64          `json:"net_interest_expense"`
	ForegoneInterest    float64          `json:"foregone_interest"`
	NetFinancingImpact  float64          `json:"net_financing_impact"`
	SynergiesImpact     float64          `json:"synergies_impact"`
	OneTimeImpact       float64          `json:"one_time_impact"`
	ProFormaNetIncome   float64          `json:"pro_forma_net_income"`
	ProFormaShares      float64          `json:"pro_forma_shares"`
	StandaloneEPS       float64          `json:"standalone_eps"`
	ProFormaEPS         float64          `json:"pro_forma_eps"`
	EPSImpact           float64          `json:"eps_impact"`
	AccretionPct        float64          `json:"accretion_pct"`
	Accretive           bool             `json:"accretive"`
	TransactionFees     float64          `json:"transaction_fees"`
	SourcesUses         SourcesUses      `json:"sources_uses"`
}

// SellerMarketCap values the seller at its P/E on current earnings.
func (in AccretionInput) SellerMarketCap() float64 {
	if in.Seller.PERatio > 0 && in.Seller.NetIncome > 0 {
		return in.Seller.NetIncome * in.Seller.PERatio
	}
	return in.Seller.EPS * in.Seller.SharesOutstanding
}

// CalculateAccretion computes the pro-forma EPS of the combined company.
func CalculateAccretion(in AccretionInput) AccretionResult {
	mix := in.Mix.Normalized()
	res := AccretionResult{Mix: mix, SellerMarketCap: in.SellerMarketCap()}

	res.EquityPurchasePrice = res.SellerMarketCap * (1 + in.PremiumPct)
	res.CashConsideration = res.EquityPurchasePrice * mix.Cash
	res.StockConsideration = res.EquityPurchasePrice * mix.Stock
	res.DebtConsideration = res.EquityPurchasePrice * mix.Debt

	// New shares are issued at the buyer's implied share price (EPS x P/E).
	if buyerPrice := in.Buyer.EPS * in.Buyer.PERatio; buyerPrice > 0 {
		res.SharesIssued = res.StockConsideration / buyerPrice
	}

	// Both the after-tax interest on new debt and the interest income lost on cash paid out
	// reduce pro-forma earnings.
	interest := res.DebtConsideration * in.InterestRate
	res.NetInterestExpense = interest * (1 - in.TaxRate)
	res.ForegoneInterest = res.CashConsideration * in.InterestRate * (1 - in.TaxRate)
	res.NetFinancingImpact = res.NetInterestExpense + res.ForegoneInterest

	res.SynergiesImpact = (in.RevenueSynergies + in.CostSynergies) * (1 - in.TaxRate)
	res.OneTimeImpact = in.OneTimeCosts * (1 - in.TaxRate)
	res.ProFormaNetIncome = in.Buyer.NetIncome + in.Seller.NetIncome +
		res.SynergiesImpact - res.NetFinancingImpact - res.OneTimeImpact

	res.ProFormaShares = in.Buyer.SharesOutstanding + res.SharesIssued
	if res.ProFormaShares > 0 {
		res.ProFormaEPS = res.ProFormaNetIncome / res.ProFormaShares
	}

	res.StandaloneEPS = in.Buyer.EPS
	res.EPSImpact = res.ProFormaEPS - res.StandaloneEPS
	if res.StandaloneEPS != 0 {
		res.AccretionPct = res.EPSImpact / res.StandaloneEPS
	}
	res.Accretive = res.AccretionPct > 0

	res.TransactionFees = (res.EquityPurchasePrice + in.TargetNetDebt) * in.TransactionFeesPct
	res.SourcesUses = sourcesUses(in, res)
	return res
}

func sourcesUses(in AccretionInput, res AccretionResult) SourcesUses {
	su := SourcesUses{
		Uses: []LineItem{
			{Label: "Equity Purchase Price", Amount: res.EquityPurchasePrice},
			{Label: "Refinance Target Net Debt", Amount: in.TargetNetDebt},
			{Label: "Transaction Fees", Amount: res.TransactionFees},
			{Label: "One-time Integration Costs", Amount: in.OneTimeCosts},
		},
		Sources: []LineItem{
			{Label: "Cash Portion", Amount: res.CashConsideration},
			{Label: "Stock Portion", Amount: res.StockConsideration},
			{Label: "New Debt Raised", Amount: res.DebtConsideration},
		},
	}
	for _, u := range su.Uses {
		su.TotalUses += u.Amount
	}
	for _, src := range su.Sources {
		su.TotalSources += src.Amount
	}
	su.Shortfall = su.TotalUses - su.TotalSources
	su.Balanced = math.Abs(su.Shortfall) < sourcesUsesTolerance
	return su
}

// AccretionSensitivity grids the accretion percentage over purchase premium (rows) and
// cost synergies (cols). Revenue synergies stay fixed.
func AccretionSensitivity(in AccretionInput, premium, costSynergies Axis) Grid {
	f := func(p, syn float64) float64 {
		scenario := in
		scenario.PremiumPct = p
		scenario.CostSynergies = syn
		return CalculateAccretion(scenario).AccretionPct
	}
	return BuildGrid(premium, costSynergies, "Accretion / (Dilution) %", f)
}
