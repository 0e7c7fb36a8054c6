package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/models"
)

// statementCSV renders one statement table as CSV bytes: a header row of
// "Line Item" plus the fiscal years, then one row per line item in
// presentation order. An empty table yields nil.
func statementCSV(kind statement.Kind, table models.StatementTable) ([]byte, error) {
	if len(table) == 0 {
		return nil, nil
	}
	years := sortedYears(table)
	items := tableItems(kind, table)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"Line Item"}, years...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, item := range items {
		record := make([]string, 0, len(years)+1)
		record = append(record, item)
		for _, year := range years {
			record = append(record, formatValue(table[year][item]))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row %s: %w", item, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush error: %w", err)
	}
	return buf.Bytes(), nil
}

// summaryCSV renders the DCF summary as Metric/Value rows.
func (e *Exporter) summaryCSV() ([]byte, error) {
	rows := e.summaryRows()
	if rows == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Metric", "Value"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Metric, formatValue(row.Value)}); err != nil {
			return nil, fmt.Errorf("failed to write csv row %s: %w", row.Metric, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush error: %w", err)
	}
	return buf.Bytes(), nil
}

// csvFiles builds filename -> content for every non-empty CSV artifact.
func (e *Exporter) csvFiles() (map[string][]byte, error) {
	model := e.output.OperatingModel
	files := make(map[string][]byte)

	type source struct {
		suffix string
		kind   statement.Kind
		table  models.StatementTable
	}
	sources := []source{}
	if model != nil {
		sources = []source{
			{"Income_Statement", statement.Income, model.IncomeStatement},
			{"Balance_Sheet", statement.Balance, model.BalanceSheet},
			{"Cash_Flow", statement.CashFlow, model.CashFlow},
		}
	}
	for _, src := range sources {
		content, err := statementCSV(src.kind, src.table)
		if err != nil {
			return nil, err
		}
		if content == nil {
			continue
		}
		files[e.companyName+"_"+src.suffix+".csv"] = content
	}

	summary, err := e.summaryCSV()
	if err != nil {
		return nil, err
	}
	if summary != nil {
		files[e.companyName+"_DCF_Summary.csv"] = summary
	}
	return files, nil
}

// WriteCSVs writes the CSV artifacts into dir and returns the paths written.
func (e *Exporter) WriteCSVs(dir string) ([]string, error) {
	files, err := e.csvFiles()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	// Deterministic write order keeps logs and tests stable.
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// CSVBundle packs the CSV artifacts into an in-memory zip archive for
// download responses.
func (e *Exporter) CSVBundle() ([]byte, error) {
	files, err := e.csvFiles()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := f.Write(files[name]); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// formatValue renders a float with the shortest exact decimal form, the
// same way the raw payload serializes.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
