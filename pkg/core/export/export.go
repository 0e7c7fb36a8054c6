package export

import (
	"regexp"
	"sort"
	"strconv"

	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/models"
)

// Exporter formats a completed model run for delivery. It is a pure data
// sink: every number it writes comes straight from the ModelOutput, nothing
// is re-derived here.
type Exporter struct {
	output      *models.ModelOutput
	companyName string
}

// NewExporter wraps a completed model output. The company name is sanitized
// once for use in generated filenames.
func NewExporter(output *models.ModelOutput) *Exporter {
	name := "Company"
	if output != nil && output.CompanyName != "" {
		name = output.CompanyName
	}
	return &Exporter{
		output:      output,
		companyName: SanitizeFilename(name),
	}
}

var filenamePattern = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces characters that are unsafe in filenames with
// underscores.
func SanitizeFilename(name string) string {
	return filenamePattern.ReplaceAllString(name, "_")
}

// sortedYears returns a table's year labels ordered by parsed fiscal year.
func sortedYears(table models.StatementTable) []string {
	years := make([]string, 0, len(table))
	for label := range table {
		years = append(years, label)
	}
	statement.SortYearLabels(years)
	return years
}

// tableItems returns the canonical line items that actually occur in the
// table, in presentation order.
func tableItems(kind statement.Kind, table models.StatementTable) []string {
	present := make(map[string]bool)
	for _, row := range table {
		for item := range row {
			present[item] = true
		}
	}
	var items []string
	for _, item := range statement.Items(kind) {
		if present[item] {
			items = append(items, item)
		}
	}
	return items
}

// summaryRow is one Metric/Value line of the DCF summary.
type summaryRow struct {
	Metric string
	Value  float64
}

// summaryRows flattens the valuation results into ordered Metric/Value
// pairs: the assumptions echo first, then WACC, the per-year free cash
// flows, and the valuation waterfall.
func (e *Exporter) summaryRows() []summaryRow {
	dcf := e.output.DCFResults
	if dcf == nil {
		return nil
	}
	a := dcf.Assumptions
	rows := []summaryRow{
		{"Risk-Free Rate", a.RiskFreeRate},
		{"Beta", a.Beta},
		{"Market Risk Premium", a.MarketRiskPremium},
		{"Cost of Debt", a.CostOfDebt},
		{"Tax Rate", a.TaxRate},
		{"Debt-to-Equity Ratio", a.DebtToEquity},
		{"Terminal Growth Rate", a.TerminalGrowthRate},
		{"WACC", dcf.WACC},
	}

	fcfYears := make([]int, 0, len(dcf.FreeCashFlows))
	for year := range dcf.FreeCashFlows {
		fcfYears = append(fcfYears, year)
	}
	sort.Ints(fcfYears)
	for _, year := range fcfYears {
		rows = append(rows, summaryRow{"Free Cash Flow " + strconv.Itoa(year), dcf.FreeCashFlows[year]})
	}

	rows = append(rows,
		summaryRow{"Terminal Value", dcf.TerminalValue},
		summaryRow{"PV of FCFs", dcf.TotalPVFCF},
		summaryRow{"PV of Terminal Value", dcf.PresentValueTerminal},
		summaryRow{"Enterprise Value", dcf.EnterpriseValue},
		summaryRow{"Equity Value", dcf.EquityValue},
	)
	if dcf.PricePerShare != nil {
		rows = append(rows, summaryRow{"Price Per Share", *dcf.PricePerShare})
	}
	return rows
}
