package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/export"
	"dcfengine/pkg/core/pipeline"
	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/models"
)

// Logger helper
func logStep(step string, details string) {
	fmt.Printf("\n[STEP] %s\n", step)
	fmt.Println("---------------------------------------------------------")
	fmt.Println(details)
	fmt.Println("---------------------------------------------------------")
}

func main() {
	logStep("0. Initialization", "Starting End-to-End Valuation Pipeline Demo...")

	// =========================================================================
	// STEP 1: BUILD SAMPLE COMPANY HISTORY
	// =========================================================================
	company := sampleCompany()
	logStep("1. Sample Data", fmt.Sprintf("Loaded %s: %d income years (values arrive as numbers or strings)",
		company.CompanyName, len(company.IncomeStatement)))

	// =========================================================================
	// STEP 2: RESOLVE ASSUMPTIONS
	// Operating drivers are left as "null" so the estimators fill them from
	// the historical statements.
	// =========================================================================
	payload := []byte(`{
		"revenue_growth": "null",
		"gross_margin": "null",
		"sga_percent": "null",
		"projection_years": 5,
		"tax_rate": 0.25,
		"terminal_growth_rate": 0.03
	}`)
	a, err := assumption.Parse(payload)
	if err != nil {
		fmt.Printf("Error parsing assumptions: %v\n", err)
		return
	}
	logStep("2. Assumptions", fmt.Sprintf(
		"Projection years: %d | Tax: %.2f | Terminal growth: %.2f\nOperating drivers left nil for estimation",
		a.ProjectionYears, a.TaxRate, a.TerminalGrowthRate))

	// =========================================================================
	// STEP 3: RUN THE PIPELINE
	// =========================================================================
	orchestrator := pipeline.NewModelOrchestrator()
	output, err := orchestrator.BuildModel(company, a)
	if err != nil {
		fmt.Printf("Error building model: %v\n", err)
		return
	}
	fmt.Println("✅ Model Build Complete")

	// =========================================================================
	// STEP 4: INSPECT THE OPERATING MODEL
	// =========================================================================
	model := output.OperatingModel
	years := make([]string, 0, len(model.IncomeStatement))
	for label := range model.IncomeStatement {
		years = append(years, label)
	}
	statement.SortYearLabels(years)

	fmt.Printf("\n%-22s", "Line Item")
	for _, y := range years {
		fmt.Printf("%14s", y)
	}
	fmt.Println()
	for _, item := range []string{statement.Revenue, statement.GrossProfit, statement.OperatingIncome, statement.NetIncome} {
		fmt.Printf("%-22s", item)
		for _, y := range years {
			fmt.Printf("%14.1f", model.IncomeStatement[y][item])
		}
		fmt.Println()
	}
	logStep("4. Operating Model", fmt.Sprintf("Latest historical year %d, %d projected years",
		model.LatestYear, model.ProjectionYears))

	// =========================================================================
	// STEP 5: VALUATION RESULTS
	// =========================================================================
	dcf := output.DCFResults
	details := fmt.Sprintf("WACC: %.4f\nTerminal Value: %.2f\nEnterprise Value: %.2f\nEquity Value: %.2f",
		dcf.WACC, dcf.TerminalValue, dcf.EnterpriseValue, dcf.EquityValue)
	if dcf.PricePerShare != nil {
		details += fmt.Sprintf("\nPrice Per Share: %.2f", *dcf.PricePerShare)
	}
	logStep("5. DCF Valuation", details)

	// =========================================================================
	// STEP 6: EXPORT ARTIFACTS
	// =========================================================================
	outDir := "demo_output"
	exporter := export.NewExporter(output)
	paths, err := exporter.WriteCSVs(outDir)
	if err != nil {
		fmt.Printf("Error writing CSVs: %v\n", err)
		return
	}
	html, err := exporter.HTMLReport("Generated by the pipeline demo.")
	if err != nil {
		fmt.Printf("Error rendering report: %v\n", err)
		return
	}
	reportPath := filepath.Join(outDir, "report.html")
	if err := os.WriteFile(reportPath, []byte(html), 0644); err != nil {
		fmt.Printf("Error writing report: %v\n", err)
		return
	}
	logStep("6. Exports", fmt.Sprintf("Wrote %d CSV files and %s", len(paths), reportPath))

	fmt.Println("\n✅ Demo Complete")
}

// sampleCompany builds three years of history with steady 10% growth.
// One revenue cell is a numeric string to show input coercion at work.
func sampleCompany() *models.CompanyData {
	shares := 10.0
	income := models.RawStatement{}
	revenues := []float64{800, 900, 1000}
	for i, rev := range revenues {
		year := strconv.Itoa(2021 + i)
		var revenue interface{} = rev
		if i == 0 {
			revenue = "800"
		}
		income[year] = map[string]interface{}{
			"Revenue":         revenue,
			"COGS":            -rev * 0.4,
			"SG&A":            -rev * 0.2,
			"D&A":             -rev * 0.05,
			"InterestExpense": -10,
		}
	}

	balance := models.RawStatement{
		"2023": {
			"Cash":                 200,
			"ShortTermInvestments": 50,
			"CurrentAssets":        500,
			"PPE":                  800,
			"OtherLongTermAssets":  100,
			"ShortTermLiabilities": 300,
			"LongTermDebt":         600,
			"RetainedEarnings":     400,
			"CommonStock":          10,
			"PaidInCapital":        90,
		},
	}

	cashflow := models.RawStatement{
		"2023": {
			"NetIncome":           255,
			"D&A":                 50,
			"OperatingCashFlow":   280,
			"CapitalExpenditures": -40,
		},
	}

	return &models.CompanyData{
		CompanyName:       "Democo Industries",
		Ticker:            "DMC",
		SharesOutstanding: &shares,
		IncomeStatement:   income,
		BalanceSheet:      balance,
		CashFlow:          cashflow,
	}
}
