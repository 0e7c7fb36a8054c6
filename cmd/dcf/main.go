package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"dcfengine/pkg/core/export"
	"dcfengine/pkg/core/ingest"
	"dcfengine/pkg/core/pipeline"
	"dcfengine/pkg/core/store"
	"dcfengine/pkg/models"
)

func main() {
	input := flag.String("input", "", "company data file (JSON/HJSON, required unless HTML statements are given)")
	assumptionsPath := flag.String("assumptions", "", "assumptions file (JSON/HJSON, optional)")
	incomeHTML := flag.String("income-html", "", "income statement HTML table (overrides the input file)")
	balanceHTML := flag.String("balance-html", "", "balance sheet HTML table (overrides the input file)")
	cashflowHTML := flag.String("cashflow-html", "", "cash flow HTML table (overrides the input file)")
	company := flag.String("company", "", "company name (overrides the input file)")
	outDir := flag.String("outdir", "out", "output directory for exports")
	format := flag.String("format", "both", "export format: csv | xlsx | both | none")
	report := flag.Bool("report", false, "write an HTML valuation report")
	notesPath := flag.String("notes", "", "markdown notes file appended to the report")
	save := flag.Bool("save", false, "persist the run to the local run store")
	storeDir := flag.String("store-dir", "", "run store directory (defaults to .cache/valuation/runs)")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		fmt.Println("[ENV] Loaded .env")
	}

	fmt.Println("🚀 DCF Valuation Pipeline Starting...")

	// 1. Load Data
	var companyData *models.CompanyData
	if *input != "" {
		loaded, err := ingest.LoadCompanyData(*input)
		if err != nil {
			log.Fatalf("Failed to load company data: %v", err)
		}
		companyData = loaded
	} else {
		companyData = &models.CompanyData{}
	}
	applyHTMLStatement(*incomeHTML, "income statement", &companyData.IncomeStatement)
	applyHTMLStatement(*balanceHTML, "balance sheet", &companyData.BalanceSheet)
	applyHTMLStatement(*cashflowHTML, "cash flow statement", &companyData.CashFlow)
	if *company != "" {
		companyData.CompanyName = *company
	}
	if len(companyData.IncomeStatement) == 0 {
		log.Fatal("No income statement data. Provide -input or -income-html.")
	}

	a, err := ingest.LoadAssumptions(*assumptionsPath)
	if err != nil {
		log.Fatalf("Failed to load assumptions: %v", err)
	}

	// 2. Build Model + DCF
	fmt.Printf("📂 Processing %s (%d projection years)...\n", companyData.CompanyName, a.ProjectionYears)
	output, err := pipeline.NewModelOrchestrator().BuildModel(companyData, a)
	if err != nil {
		log.Fatalf("Model build failed: %v", err)
	}

	// 3. Summary
	printSummary(output)

	// 4. Exports
	exporter := export.NewExporter(output)
	if *format != "none" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			log.Fatalf("Cannot create output directory: %v", err)
		}
	}
	if *format == "csv" || *format == "both" {
		paths, err := exporter.WriteCSVs(*outDir)
		if err != nil {
			log.Fatalf("CSV export failed: %v", err)
		}
		for _, p := range paths {
			fmt.Printf("  [CSV] %s\n", p)
		}
	}
	if *format == "xlsx" || *format == "both" {
		path := filepath.Join(*outDir, exporter.ExcelFilename())
		if err := exporter.WriteExcel(path); err != nil {
			log.Fatalf("Excel export failed: %v", err)
		}
		fmt.Printf("  [XLSX] %s\n", path)
	}
	if *report {
		notes := ""
		if *notesPath != "" {
			data, err := os.ReadFile(*notesPath)
			if err != nil {
				log.Fatalf("Cannot read notes file: %v", err)
			}
			notes = string(data)
		}
		html, err := exporter.HTMLReport(notes)
		if err != nil {
			log.Fatalf("Report rendering failed: %v", err)
		}
		path := filepath.Join(*outDir, export.SanitizeFilename(output.CompanyName)+"_Valuation_Report.html")
		if err := os.WriteFile(path, []byte(html), 0644); err != nil {
			log.Fatalf("Cannot write report: %v", err)
		}
		fmt.Printf("  [HTML] %s\n", path)
	}

	// 5. Persistence
	if *save {
		runs := store.NewRunStore(nil, *storeDir)
		id, err := runs.Save(context.Background(), companyData, output)
		if err != nil {
			log.Fatalf("Failed to save run: %v", err)
		}
		fmt.Printf("  [RUN] Saved as %s\n", id)
	}

	fmt.Println("\n[Done] Valuation Complete.")
}

// applyHTMLStatement replaces one raw statement with the contents of an
// HTML table export when the flag is set.
func applyHTMLStatement(path, label string, dst *models.RawStatement) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Cannot open %s HTML: %v", label, err)
	}
	defer f.Close()
	raw, err := ingest.ParseStatementTable(f)
	if err != nil {
		log.Fatalf("Cannot parse %s HTML: %v", label, err)
	}
	*dst = raw
	fmt.Printf("[INGEST] Parsed %s from %s (%d years)\n", label, path, len(raw))
}

func printSummary(output *models.ModelOutput) {
	model := output.OperatingModel
	dcf := output.DCFResults

	fmt.Println("\n################################################################################")
	fmt.Println("                         DCF VALUATION SUMMARY")
	fmt.Printf("                         Target: %s (FY%d)\n", output.CompanyName, model.LatestYear)
	fmt.Println("################################################################################")

	fmt.Println("\n[1] OPERATING MODEL")
	fmt.Printf("Historical years:      %8d\n", len(model.IncomeStatement)-model.ProjectionYears)
	fmt.Printf("Projection years:      %8d\n", model.ProjectionYears)
	finalYear := model.LatestYear + model.ProjectionYears
	if row, ok := model.IncomeStatement[fmt.Sprintf("%d", finalYear)]; ok {
		fmt.Printf("Revenue FY%d:         %10.2f\n", finalYear, row["Revenue"])
		fmt.Printf("Net Income FY%d:      %10.2f\n", finalYear, row["NetIncome"])
	}

	fmt.Println("\n[2] VALUATION")
	fmt.Printf("WACC:                  %8.2f%%\n", dcf.WACC*100)
	fmt.Printf("PV of FCFs:            %10.2f\n", dcf.TotalPVFCF)
	fmt.Printf("PV of Terminal Value:  %10.2f\n", dcf.PresentValueTerminal)
	fmt.Printf("Enterprise Value:      %10.2f\n", dcf.EnterpriseValue)
	fmt.Printf("Equity Value:          %10.2f\n", dcf.EquityValue)
	if dcf.PricePerShare != nil {
		fmt.Printf("Price Per Share:       %10.2f\n", *dcf.PricePerShare)
	}
}
