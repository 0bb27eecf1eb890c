// Package report renders a synthesis report as markdown tables, and as HTML through goldmark.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"valuation_synthesis/pkg/core/projection"
	"valuation_synthesis/pkg/core/synthesis"
	"valuation_synthesis/pkg/core/valuation"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML converts the markdown report to an HTML fragment.
func HTML(r *synthesis.Report) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders every section present in r.
func Markdown(r *synthesis.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Valuation Summary: %s\n\n", r.Target)
	if r.RunID != "" {
		fmt.Fprintf(&sb, "Run `%s`, generated %s.\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}

	writeFootballField(&sb, r)

	if len(r.Insufficient) > 0 {
		sb.WriteString("> Insufficient peer data, excluded from the football field: ")
		sb.WriteString(strings.Join(r.Insufficient, ", "))
		sb.WriteString("\n\n")
	}

	for _, rel := range []*valuation.RelativeValuationResult{r.Comps, r.Precedents} {
		if rel != nil {
			writeRelative(&sb, rel)
		}
	}
	if r.DCF != nil {
		writeDCF(&sb, r.DCF)
	}
	if r.LBO != nil {
		writeLBO(&sb, r.LBO)
	}
	if r.SOTP != nil {
		writeSOTP(&sb, r.SOTP)
	}
	if r.Accretion != nil {
		writeAccretion(&sb, r.Accretion)
	}

	if len(r.Sensitivity) > 0 {
		sb.WriteString("## Sensitivity Analysis\n\n")
		for _, s := range r.Sensitivity {
			writeGrid(&sb, s)
		}
		if r.SensitivityOverall != nil {
			fmt.Fprintf(&sb, "Overall valuation span across grids: %s to %s.\n\n",
				money(r.SensitivityOverall.Min), money(r.SensitivityOverall.Max))
		}
	}
	return sb.String()
}

// =============================================================================
// SECTIONS
// =============================================================================

func writeFootballField(sb *strings.Builder, r *synthesis.Report) {
	sb.WriteString("## Football Field\n\n")
	for _, table := range r.Summary {
		title := "Enterprise Value"
		if table.View == valuation.ViewEquity {
			title = "Equity Value"
		}
		fmt.Fprintf(sb, "### %s\n\n", title)
		if len(table.Rows) == 0 {
			sb.WriteString("No applicable methodology.\n\n")
			continue
		}
		sb.WriteString("| Methodology | Low | Median | High |\n|---|---:|---:|---:|\n")
		for _, row := range table.Rows {
			fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", row.Methodology, money(row.Low), money(row.Median), money(row.High))
		}
		fmt.Fprintf(sb, "| **Overall** | **%s** | %s | **%s** |\n\n",
			money(table.Overall.Min), money(table.AverageMedian), money(table.Overall.Max))
	}
}

func writeRelative(sb *strings.Builder, rel *valuation.RelativeValuationResult) {
	fmt.Fprintf(sb, "## %s\n\n", rel.Methodology)

	multiples := make([]valuation.MultipleName, 0, len(valuation.AllMultiples))
	for _, m := range valuation.AllMultiples {
		if _, ok := rel.Stats[m]; ok {
			multiples = append(multiples, m)
		}
	}

	if len(rel.Rows) > 0 {
		sb.WriteString("| Company | EV | Equity Value |")
		for _, m := range multiples {
			fmt.Fprintf(sb, " %s |", m.Label())
		}
		sb.WriteString("\n|---|---:|---:|")
		sb.WriteString(strings.Repeat("---:|", len(multiples)))
		sb.WriteString("\n")
		for _, row := range rel.Rows {
			fmt.Fprintf(sb, "| %s | %s | %s |", rowName(row), money(row.EnterpriseValue), money(row.EquityValue))
			for _, m := range multiples {
				fmt.Fprintf(sb, " %s |", multiple(row.Multiples[m]))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("| Multiple | Mean | Median | 25th | 75th | Min | Max | N | Implied Low | Implied Median | Implied High |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, m := range multiples {
		s, implied := rel.Stats[m], rel.Implied[m]
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s | %s | %d | %s | %s | %s |\n",
			m.Label(), multiple(s.Mean), multiple(s.Median), multiple(s.P25), multiple(s.P75),
			multiple(s.Min), multiple(s.Max), s.Count,
			rangePoint(implied, implied.Low), rangePoint(implied, implied.Median), rangePoint(implied, implied.High))
	}
	sb.WriteString("\n")

	if rel.Insufficient {
		fmt.Fprintf(sb, "No comparable had a positive %s; no range implied.\n\n", rel.PrimaryMultiple.Label())
		return
	}
	fmt.Fprintf(sb, "- Enterprise value (%s): %s\n", rel.PrimaryMultiple.Label(), formatRange(rel.EVRange))
	fmt.Fprintf(sb, "- Equity value: %s\n", formatRange(rel.EquityRange))
	fmt.Fprintf(sb, "- Share price: %s\n\n", formatPriceRange(rel.SharePriceRange))
}

func writeDCF(sb *strings.Builder, d *synthesis.DCFReport) {
	res := d.Result
	sb.WriteString("## Discounted Cash Flow\n\n| Item | Value |\n|---|---:|\n")
	if d.WACC != nil {
		fmt.Fprintf(sb, "| Levered beta | %.2f |\n| Cost of equity | %s |\n| WACC | %s |\n",
			d.WACC.LeveredBeta, pct(d.WACC.CostOfEquity), pct(d.WACC.WACC))
	}
	fmt.Fprintf(sb, "| PV of cash flows | %s |\n", money(res.PVFCF))
	fmt.Fprintf(sb, "| Terminal value | %s |\n", money(res.TerminalValue))
	fmt.Fprintf(sb, "| PV of terminal value | %s |\n", money(res.PVTerminal))
	fmt.Fprintf(sb, "| Enterprise value | %s |\n", money(res.EnterpriseValue))
	fmt.Fprintf(sb, "| Net debt | %s |\n", money(d.NetDebt))
	fmt.Fprintf(sb, "| Equity value | %s |\n", money(res.EquityValue))
	if res.SharePrice != 0 {
		fmt.Fprintf(sb, "| Implied share price | %s |\n", price(res.SharePrice))
	}
	if res.ImpliedMultiple > 0 {
		fmt.Fprintf(sb, "| Implied exit multiple | %s |\n", multiple(res.ImpliedMultiple))
	}
	sb.WriteString("\n")
	if d.Projection != nil {
		writeProjection(sb, d.Projection)
	}
}

// writeProjection lays the forecast out with years as columns.
func writeProjection(sb *strings.Builder, p *projection.Projection) {
	sb.WriteString("### Cash Flow Projection\n\n| Line |")
	for _, y := range p.Years {
		fmt.Fprintf(sb, " Year %d |", y.Year)
	}
	sb.WriteString("\n|---|")
	sb.WriteString(strings.Repeat("---:|", len(p.Years)))
	sb.WriteString("\n")
	for _, line := range []struct {
		name string
		get  func(projection.Year) float64
	}{
		{"Revenue", func(y projection.Year) float64 { return y.Revenue }},
		{"EBITDA", func(y projection.Year) float64 { return y.EBITDA }},
		{"EBIT", func(y projection.Year) float64 { return y.EBIT }},
		{"NOPAT", func(y projection.Year) float64 { return y.NOPAT }},
		{"Capex", func(y projection.Year) float64 { return y.Capex }},
		{"Change in NWC", func(y projection.Year) float64 { return y.ChangeNWC }},
		{"Unlevered FCF", func(y projection.Year) float64 { return y.UFCF }},
	} {
		fmt.Fprintf(sb, "| %s |", line.name)
		for _, y := range p.Years {
			fmt.Fprintf(sb, " %s |", money(line.get(y)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeLBO(sb *strings.Builder, l *synthesis.LBOReport) {
	res := l.Result
	sb.WriteString("## Leveraged Buyout\n\n")
	if !res.Valid {
		sb.WriteString("No EBITDA or projection years; ability to pay not computed.\n\n")
		return
	}
	sb.WriteString("| Item | Value |\n|---|---:|\n")
	fmt.Fprintf(sb, "| Max entry EV | %s |\n", money(res.MaxEntryEV))
	fmt.Fprintf(sb, "| Implied entry multiple | %s |\n", multiple(res.ImpliedEntryMultiple))
	fmt.Fprintf(sb, "| Debt raised | %s |\n", money(res.DebtRaised))
	fmt.Fprintf(sb, "| Sponsor equity | %s |\n", money(res.EquityCheck))
	fmt.Fprintf(sb, "| Debt at exit | %s |\n", money(res.DebtAtExit))
	fmt.Fprintf(sb, "| Exit equity value | %s |\n", money(res.ExitEquityValue))
	if res.AchievedIRR != 0 {
		fmt.Fprintf(sb, "| IRR at entry multiple | %s |\n", pct(res.AchievedIRR))
	}
	sb.WriteString("\n")
}

func writeSOTP(sb *strings.Builder, s *valuation.SOTPResult) {
	sb.WriteString("## Sum of the Parts\n\n| Segment | Method | EV | Contribution |\n|---|---|---:|---:|\n")
	for _, seg := range s.Segments {
		fmt.Fprintf(sb, "| %s | %s | %s | %.1f%% |\n", seg.Name, seg.Method, money(seg.EnterpriseValue), seg.ContributionPct)
	}
	fmt.Fprintf(sb, "| **Total** | | **%s** | 100.0%% |\n\n", money(s.TotalSegmentEV))
	fmt.Fprintf(sb, "- Equity value: %s\n", money(s.EquityValue))
	if s.ImpliedSharePrice != 0 {
		fmt.Fprintf(sb, "- Implied share price: %s (%s vs. current)\n", price(s.ImpliedSharePrice), signedPct(s.PremiumDiscountPct))
	}
	if s.CurrentMarketCap > 0 {
		fmt.Fprintf(sb, "- Conglomerate effect: %s (%s of market cap)\n", money(s.ConglomerateEffect), signedPct(s.ConglomerateEffectPct))
	}
	sb.WriteString("\n")
}

func writeAccretion(sb *strings.Builder, a *synthesis.AccretionReport) {
	res := a.Result
	verdict := "dilutive"
	if res.Accretive {
		verdict = "accretive"
	}
	sb.WriteString("## Accretion / Dilution\n\n| Item | Value |\n|---|---:|\n")
	fmt.Fprintf(sb, "| Equity purchase price | %s |\n", money(res.EquityPurchasePrice))
	fmt.Fprintf(sb, "| Cash / stock / debt | %.0f%% / %.0f%% / %.0f%% |\n", res.Mix.Cash*100, res.Mix.Stock*100, res.Mix.Debt*100)
	fmt.Fprintf(sb, "| New shares issued | %.2f |\n", res.SharesIssued)
	fmt.Fprintf(sb, "| Net financing cost | %s |\n", money(res.NetFinancingImpact))
	fmt.Fprintf(sb, "| Pro forma net income | %s |\n", money(res.ProFormaNetIncome))
	fmt.Fprintf(sb, "| Standalone EPS | %s |\n", price(res.StandaloneEPS))
	fmt.Fprintf(sb, "| Pro forma EPS | %s |\n", price(res.ProFormaEPS))
	fmt.Fprintf(sb, "| EPS impact | %s (%s) |\n\n", signedPct(res.AccretionPct), verdict)
	writeSourcesUses(sb, res.SourcesUses)
}

func writeSourcesUses(sb *strings.Builder, su valuation.SourcesUses) {
	sb.WriteString("### Sources & Uses\n\n| Uses | Amount | Sources | Amount |\n|---|---:|---|---:|\n")
	for i := 0; i < len(su.Uses) || i < len(su.Sources); i++ {
		use, src := "| | |", " | |"
		if i < len(su.Uses) {
			use = fmt.Sprintf("| %s | %s |", su.Uses[i].Label, money(su.Uses[i].Amount))
		}
		if i < len(su.Sources) {
			src = fmt.Sprintf(" %s | %s |", su.Sources[i].Label, money(su.Sources[i].Amount))
		}
		sb.WriteString(use + src + "\n")
	}
	fmt.Fprintf(sb, "| Total uses | %s | Total sources | %s |\n\n", money(su.TotalUses), money(su.TotalSources))
	switch {
	case su.Balanced:
	case su.Shortfall > 0:
		fmt.Fprintf(sb, "> Sources fall %s short of uses.\n\n", money(su.Shortfall))
	default:
		fmt.Fprintf(sb, "> Sources exceed uses by %s.\n\n", money(-su.Shortfall))
	}
}

func writeGrid(sb *strings.Builder, s synthesis.Sensitivity) {
	g := s.Grid
	fmt.Fprintf(sb, "### %s: %s vs. %s\n\n", g.ValueLabel, g.Rows.Label, g.Cols.Label)
	if len(g.Values) == 0 {
		sb.WriteString("Empty grid.\n\n")
		return
	}

	fmt.Fprintf(sb, "| %s \\ %s |", g.Rows.Label, g.Cols.Label)
	for _, c := range g.Cols.Values {
		fmt.Fprintf(sb, " %s |", axisValue(c))
	}
	sb.WriteString("\n|---|")
	sb.WriteString(strings.Repeat("---:|", len(g.Cols.Values)))
	sb.WriteString("\n")

	format := number
	if s.Name == synthesis.SensitivityAccretion {
		format = signedPct
	}
	for i, row := range g.Values {
		fmt.Fprintf(sb, "| %s |", axisValue(g.Rows.Values[i]))
		for j, v := range row {
			cell := format(v)
			if g.BaseRowFound && g.BaseColFound && i == g.BaseRow && j == g.BaseCol {
				cell = "**" + cell + "**"
			}
			fmt.Fprintf(sb, " %s |", cell)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "\nBase case %s; range %s to %s, median %s.\n\n",
		format(s.Summary.BaseCase), format(s.Summary.Min), format(s.Summary.Max), format(s.Summary.Median))
}

// =============================================================================
// FORMATTING
// =============================================================================

func rowName(row valuation.MultipleRow) string {
	name := row.Name
	if row.Ticker != "" && row.Ticker != row.Name {
		name += " (" + row.Ticker + ")"
	}
	if row.Acquirer != "" {
		name += " / " + row.Acquirer
	}
	return name
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.1fM", -v)
	}
	return fmt.Sprintf("$%.1fM", v)
}

func price(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func multiple(v float64) string {
	if v <= 0 {
		return "n/m"
	}
	return fmt.Sprintf("%.1fx", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v*100)
}

func number(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// axisValue prints rates as percentages and everything else as plain numbers.
func axisValue(v float64) string {
	if v > -1 && v < 1 && v != 0 {
		return pct(v)
	}
	return number(v)
}

func rangePoint(r valuation.ValuationRange, v float64) string {
	if !r.IsApplicable() {
		return "n/a"
	}
	return number(v)
}

func formatRange(r valuation.ValuationRange) string {
	if !r.IsApplicable() {
		return "n/a"
	}
	return fmt.Sprintf("%s / %s / %s", money(r.Low), money(r.Median), money(r.High))
}

func formatPriceRange(r valuation.ValuationRange) string {
	if !r.IsApplicable() {
		return "n/a"
	}
	return fmt.Sprintf("%s / %s / %s", price(r.Low), price(r.Median), price(r.High))
}
