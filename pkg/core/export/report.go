package export

import (
	"fmt"
	"sort"
	"strings"

	"dcfengine/pkg/core/utils"
)

// MarkdownReport renders the valuation as a Markdown document. notes, when
// non-empty, is appended as an analyst commentary section after code-fence
// cleanup; pass "" for none.
func (e *Exporter) MarkdownReport(notes string) string {
	if e.output == nil {
		return "# Company DCF Valuation\n\nNo valuation results available.\n"
	}

	var sb strings.Builder

	name := e.output.CompanyName
	if name == "" {
		name = "Company"
	}
	sb.WriteString(fmt.Sprintf("# %s DCF Valuation\n\n", name))

	if m := e.output.OperatingModel; m != nil {
		sb.WriteString(fmt.Sprintf("Latest fiscal year: %d. Projection horizon: %d years.\n\n",
			m.LatestYear, m.ProjectionYears))
	}

	dcf := e.output.DCFResults
	if dcf == nil {
		sb.WriteString("No valuation results available.\n")
		return sb.String()
	}

	a := dcf.Assumptions
	sb.WriteString("## Assumptions\n\n")
	sb.WriteString(fmt.Sprintf("- Risk-Free Rate: %s\n", pct(a.RiskFreeRate)))
	sb.WriteString(fmt.Sprintf("- Beta: %.2f\n", a.Beta))
	sb.WriteString(fmt.Sprintf("- Market Risk Premium: %s\n", pct(a.MarketRiskPremium)))
	sb.WriteString(fmt.Sprintf("- Cost of Debt: %s\n", pct(a.CostOfDebt)))
	sb.WriteString(fmt.Sprintf("- Tax Rate: %s\n", pct(a.TaxRate)))
	sb.WriteString(fmt.Sprintf("- Debt-to-Equity Ratio: %.2f\n", a.DebtToEquity))
	sb.WriteString(fmt.Sprintf("- Terminal Growth Rate: %s\n\n", pct(a.TerminalGrowthRate)))

	sb.WriteString("## Valuation\n\n")
	sb.WriteString(fmt.Sprintf("- WACC: %s\n", pct(dcf.WACC)))

	years := make([]int, 0, len(dcf.FreeCashFlows))
	for year := range dcf.FreeCashFlows {
		years = append(years, year)
	}
	sort.Ints(years)
	for _, year := range years {
		sb.WriteString(fmt.Sprintf("- FCF %d: %.2f (PV %.2f)\n",
			year, dcf.FreeCashFlows[year], dcf.PresentValueFCF[year]))
	}

	sb.WriteString(fmt.Sprintf("- Terminal Value: %.2f\n", dcf.TerminalValue))
	sb.WriteString(fmt.Sprintf("- PV of FCFs: %.2f\n", dcf.TotalPVFCF))
	sb.WriteString(fmt.Sprintf("- PV of Terminal Value: %.2f\n", dcf.PresentValueTerminal))
	sb.WriteString(fmt.Sprintf("- Enterprise Value: %.2f\n", dcf.EnterpriseValue))
	sb.WriteString(fmt.Sprintf("- Equity Value: %.2f\n", dcf.EquityValue))
	if dcf.PricePerShare != nil {
		sb.WriteString(fmt.Sprintf("- Price Per Share: %.2f\n", *dcf.PricePerShare))
	}

	if strings.TrimSpace(notes) != "" {
		sb.WriteString("\n## Notes\n\n")
		sb.WriteString(utils.CleanMarkdown(notes))
		sb.WriteString("\n")
	}

	return sb.String()
}

// HTMLReport renders the Markdown report to HTML.
func (e *Exporter) HTMLReport(notes string) (string, error) {
	return utils.RenderHTML(e.MarkdownReport(notes))
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
