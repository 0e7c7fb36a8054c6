package export

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"dcfengine/pkg/models"
)

func fixtureOutput() *models.ModelOutput {
	price := 114.35
	return &models.ModelOutput{
		CompanyName: "Acme/Co",
		OperatingModel: &models.OperatingModel{
			IncomeStatement: models.StatementTable{
				"2023": {"Revenue": 1000, "NetIncome": 80},
				"2024": {"Revenue": 1100, "NetIncome": 87},
			},
			BalanceSheet: models.StatementTable{
				"2023": {"Cash": 200, "TotalAssets": 1900},
				"2024": {"Cash": 200, "TotalAssets": 1942},
			},
			CashFlow: models.StatementTable{
				"2024": {"NetIncome": 87, "OperatingCashFlow": 131, "NetCashFlow": 87},
			},
			LatestYear:      2023,
			ProjectionYears: 1,
		},
		DCFResults: &models.DCFResults{
			WACC:                 0.077885,
			FreeCashFlows:        map[int]float64{2024: 87},
			TerminalValue:        1874.3,
			PresentValueFCF:      map[int]float64{2024: 80.71},
			PresentValueTerminal: 1738.6,
			TotalPVFCF:           80.71,
			EnterpriseValue:      1819.31,
			EquityValue:          1469.31,
			PricePerShare:        &price,
			Assumptions: models.DCFAssumptions{
				RiskFreeRate:       0.03,
				Beta:               1.0,
				MarketRiskPremium:  0.06,
				CostOfDebt:         0.05,
				TaxRate:            0.25,
				DebtToEquity:       0.3,
				TerminalGrowthRate: 0.03,
			},
		},
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(`Acme <Holdings>: "A/B\C|D?E*F"`)
	want := "Acme _Holdings__ _A_B_C_D_E_F_"
	if got != want {
		t.Errorf("SanitizeFilename = %q, want %q", got, want)
	}
	if SanitizeFilename("Plain Name Inc.") != "Plain Name Inc." {
		t.Error("safe characters should pass through unchanged")
	}
}

func TestWriteCSVs(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(fixtureOutput())

	paths, err := e.WriteCSVs(dir)
	if err != nil {
		t.Fatalf("WriteCSVs failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("WriteCSVs wrote %d files, want 4", len(paths))
	}

	income, err := os.ReadFile(filepath.Join(dir, "Acme_Co_Income_Statement.csv"))
	if err != nil {
		t.Fatalf("income csv missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(income)), "\n")
	if lines[0] != "Line Item,2023,2024" {
		t.Errorf("income csv header = %q", lines[0])
	}
	if lines[1] != "Revenue,1000,1100" {
		t.Errorf("income csv revenue row = %q", lines[1])
	}

	summary, err := os.ReadFile(filepath.Join(dir, "Acme_Co_DCF_Summary.csv"))
	if err != nil {
		t.Fatalf("summary csv missing: %v", err)
	}
	text := string(summary)
	if !strings.Contains(text, "WACC,0.077885") {
		t.Errorf("summary csv missing WACC row:\n%s", text)
	}
	if !strings.Contains(text, "Tax Rate,0.25") {
		t.Errorf("summary csv missing assumptions echo:\n%s", text)
	}
	if !strings.Contains(text, "Free Cash Flow 2024,87") {
		t.Errorf("summary csv missing FCF row:\n%s", text)
	}
	if !strings.Contains(text, "Price Per Share,114.35") {
		t.Errorf("summary csv missing price row:\n%s", text)
	}
}

func TestCSVBundle(t *testing.T) {
	e := NewExporter(fixtureOutput())

	blob, err := e.CSVBundle()
	if err != nil {
		t.Fatalf("CSVBundle failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("bundle is not a valid zip: %v", err)
	}

	want := map[string]bool{
		"Acme_Co_Income_Statement.csv": false,
		"Acme_Co_Balance_Sheet.csv":    false,
		"Acme_Co_Cash_Flow.csv":        false,
		"Acme_Co_DCF_Summary.csv":      false,
	}
	for _, f := range zr.File {
		if _, ok := want[f.Name]; !ok {
			t.Errorf("unexpected file in bundle: %s", f.Name)
			continue
		}
		want[f.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("bundle missing %s", name)
		}
	}
	if e.BundleFilename() != "Acme_Co_DCF_Model.zip" {
		t.Errorf("BundleFilename = %q", e.BundleFilename())
	}
}

func TestExcelWorkbook(t *testing.T) {
	e := NewExporter(fixtureOutput())

	blob, err := e.ExcelBytes()
	if err != nil {
		t.Fatalf("ExcelBytes failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("workbook does not reopen: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	wantSheets := []string{SheetIncome, SheetBalance, SheetCashFlow, SheetSummary}
	if len(sheets) != len(wantSheets) {
		t.Fatalf("workbook has sheets %v, want %v", sheets, wantSheets)
	}
	for i, name := range wantSheets {
		if sheets[i] != name {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], name)
		}
	}

	// Income sheet: header row of years, Revenue in the first data row.
	if v, _ := f.GetCellValue(SheetIncome, "A1"); v != "Line Item" {
		t.Errorf("income A1 = %q", v)
	}
	if v, _ := f.GetCellValue(SheetIncome, "B1"); v != "2023" {
		t.Errorf("income B1 = %q", v)
	}
	if v, _ := f.GetCellValue(SheetIncome, "A2"); v != "Revenue" {
		t.Errorf("income A2 = %q", v)
	}
	if v, _ := f.GetCellValue(SheetIncome, "C2"); v != "1100" {
		t.Errorf("income C2 = %q, want 1100", v)
	}

	// Summary sheet starts with the assumptions echo.
	if v, _ := f.GetCellValue(SheetSummary, "A2"); v != "Risk-Free Rate" {
		t.Errorf("summary A2 = %q", v)
	}

	if e.ExcelFilename() != "Acme_Co_DCF_Model.xlsx" {
		t.Errorf("ExcelFilename = %q", e.ExcelFilename())
	}
}

func TestExcelWorkbookEmptyStatements(t *testing.T) {
	out := fixtureOutput()
	out.OperatingModel.CashFlow = models.StatementTable{}
	e := NewExporter(out)

	blob, err := e.ExcelBytes()
	if err != nil {
		t.Fatalf("ExcelBytes failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("workbook does not reopen: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue(SheetCashFlow, "A1"); v != "No data available" {
		t.Errorf("empty cash flow sheet A1 = %q", v)
	}
}

func TestMarkdownReport(t *testing.T) {
	e := NewExporter(fixtureOutput())

	md := e.MarkdownReport("")
	if !strings.Contains(md, "# Acme/Co DCF Valuation") {
		t.Errorf("report missing title:\n%s", md)
	}
	if !strings.Contains(md, "WACC: 7.79%") {
		t.Errorf("report missing formatted WACC:\n%s", md)
	}
	if !strings.Contains(md, "FCF 2024: 87.00 (PV 80.71)") {
		t.Errorf("report missing FCF line:\n%s", md)
	}
	if !strings.Contains(md, "Price Per Share: 114.35") {
		t.Errorf("report missing price line:\n%s", md)
	}
	if strings.Contains(md, "## Notes") {
		t.Error("report should omit the notes section when no notes given")
	}

	withNotes := e.MarkdownReport("```markdown\nManagement guidance looks conservative.\n```")
	if !strings.Contains(withNotes, "## Notes") {
		t.Error("report should include the notes section")
	}
	if !strings.Contains(withNotes, "Management guidance looks conservative.") {
		t.Error("notes content should survive code fence cleanup")
	}
	if strings.Contains(withNotes, "```") {
		t.Error("code fences should be stripped from notes")
	}
}

func TestHTMLReport(t *testing.T) {
	e := NewExporter(fixtureOutput())

	html, err := e.HTMLReport("")
	if err != nil {
		t.Fatalf("HTMLReport failed: %v", err)
	}
	if !strings.Contains(html, "Acme/Co DCF Valuation") {
		t.Errorf("html missing company title:\n%s", html)
	}
	if !strings.Contains(html, "7.79%") {
		t.Errorf("html missing formatted WACC:\n%s", html)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<li>") {
		t.Errorf("html should contain rendered heading and list markup:\n%s", html)
	}
}

func TestExporterNoPricePerShare(t *testing.T) {
	out := fixtureOutput()
	out.DCFResults.PricePerShare = nil
	e := NewExporter(out)

	md := e.MarkdownReport("")
	if strings.Contains(md, "Price Per Share") {
		t.Error("report should omit price when shares are unknown")
	}

	summary, err := e.summaryCSV()
	if err != nil {
		t.Fatalf("summaryCSV failed: %v", err)
	}
	if strings.Contains(string(summary), "Price Per Share") {
		t.Error("summary csv should omit price when shares are unknown")
	}
}
