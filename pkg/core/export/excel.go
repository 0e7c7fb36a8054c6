package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/models"
)

// Workbook sheet names.
const (
	SheetIncome   = "Income Statement"
	SheetBalance  = "Balance Sheet"
	SheetCashFlow = "Cash Flow Statement"
	SheetSummary  = "DCF Summary"
)

// ExcelFilename returns the download name for the workbook.
func (e *Exporter) ExcelFilename() string {
	return e.companyName + "_DCF_Model.xlsx"
}

// BundleFilename returns the download name for the CSV zip bundle.
func (e *Exporter) BundleFilename() string {
	return e.companyName + "_DCF_Model.zip"
}

// ExcelBytes builds the workbook and returns it serialized, for HTTP
// download responses.
func (e *Exporter) ExcelBytes() ([]byte, error) {
	f, err := e.buildWorkbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExcel builds the workbook and saves it to path.
func (e *Exporter) WriteExcel(path string) error {
	f, err := e.buildWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// buildWorkbook assembles the four-sheet workbook: one sheet per statement
// plus the DCF summary. Sheets are plain data dumps with a styled header
// row only.
func (e *Exporter) buildWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// The default sheet becomes the income statement.
	if err := f.SetSheetName("Sheet1", SheetIncome); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	var model *models.OperatingModel
	if e.output != nil {
		model = e.output.OperatingModel
	}
	sheets := []struct {
		name   string
		kind   statement.Kind
		table  models.StatementTable
		create bool
	}{
		{SheetIncome, statement.Income, tableOrNil(model, statement.Income), false},
		{SheetBalance, statement.Balance, tableOrNil(model, statement.Balance), true},
		{SheetCashFlow, statement.CashFlow, tableOrNil(model, statement.CashFlow), true},
	}
	for _, sh := range sheets {
		if sh.create {
			if _, err := f.NewSheet(sh.name); err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
			}
		}
		if err := writeStatementSheet(f, sh.name, sh.kind, sh.table, headerStyle); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetSummary, err)
	}
	if err := e.writeSummarySheet(f, headerStyle); err != nil {
		return nil, err
	}

	return f, nil
}

func tableOrNil(model *models.OperatingModel, kind statement.Kind) models.StatementTable {
	if model == nil {
		return nil
	}
	switch kind {
	case statement.Income:
		return model.IncomeStatement
	case statement.Balance:
		return model.BalanceSheet
	case statement.CashFlow:
		return model.CashFlow
	}
	return nil
}

// writeStatementSheet dumps one statement table: header row of years, one
// row per line item in presentation order.
func writeStatementSheet(f *excelize.File, sheet string, kind statement.Kind, table models.StatementTable, headerStyle int) error {
	if len(table) == 0 {
		return setCell(f, sheet, 1, 1, "No data available")
	}
	years := sortedYears(table)
	items := tableItems(kind, table)

	if err := setCell(f, sheet, 1, 1, "Line Item"); err != nil {
		return err
	}
	for i, year := range years {
		if err := setCell(f, sheet, i+2, 1, year); err != nil {
			return err
		}
	}
	for r, item := range items {
		if err := setCell(f, sheet, 1, r+2, item); err != nil {
			return err
		}
		for c, year := range years {
			if err := setCell(f, sheet, c+2, r+2, table[year][item]); err != nil {
				return err
			}
		}
	}

	if err := setColWidths(f, sheet, len(years)+1, 25, 15); err != nil {
		return err
	}
	return styleHeader(f, sheet, len(years)+1, headerStyle)
}

// writeSummarySheet dumps the Metric/Value summary rows.
func (e *Exporter) writeSummarySheet(f *excelize.File, headerStyle int) error {
	rows := e.summaryRows()
	if rows == nil {
		return setCell(f, SheetSummary, 1, 1, "No data available")
	}
	if err := setCell(f, SheetSummary, 1, 1, "Metric"); err != nil {
		return err
	}
	if err := setCell(f, SheetSummary, 2, 1, "Value"); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setCell(f, SheetSummary, 1, i+2, row.Metric); err != nil {
			return err
		}
		if err := setCell(f, SheetSummary, 2, i+2, row.Value); err != nil {
			return err
		}
	}
	if err := setColWidths(f, SheetSummary, 2, 30, 20); err != nil {
		return err
	}
	return styleHeader(f, SheetSummary, 2, headerStyle)
}

// styleHeader applies the header style across row 1.
func styleHeader(f *excelize.File, sheet string, cols int, styleID int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range on %s: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, styleID); err != nil {
		return fmt.Errorf("failed to style header on %s: %w", sheet, err)
	}
	return nil
}

// setColWidths widens the label column and the value columns.
func setColWidths(f *excelize.File, sheet string, cols int, labelWidth, dataWidth float64) error {
	if err := f.SetColWidth(sheet, "A", "A", labelWidth); err != nil {
		return fmt.Errorf("failed to size columns on %s: %w", sheet, err)
	}
	if cols > 1 {
		lastCol, err := excelize.ColumnNumberToName(cols)
		if err != nil {
			return fmt.Errorf("failed to resolve last column on %s: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "B", lastCol, dataWidth); err != nil {
			return fmt.Errorf("failed to size columns on %s: %w", sheet, err)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
