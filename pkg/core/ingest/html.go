package ingest

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dcfengine/pkg/models"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseStatementTable extracts a year-keyed statement from the first table
// in an HTML document. The header row carries the fiscal years and the
// first column of each data row carries the line item label. Blank cells
// ("—", "-", "N/A") are omitted so normalization can zero-fill them.
func ParseStatementTable(r io.Reader) (models.RawStatement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table found in document")
	}

	rows := table.Find("tr")

	// Locate the header row: the first row containing a parseable year.
	var years []int // years[j] is the fiscal year of value column j
	dataStart := -1
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() == 0 {
			return true
		}
		var headers []string
		cells.Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})

		hasYear := false
		for _, h := range headers {
			if parseColumnYear(h) > 0 {
				hasYear = true
				break
			}
		}
		if !hasYear {
			return true
		}

		// Value columns start after the label column.
		for _, h := range headers[1:] {
			years = append(years, parseColumnYear(h))
		}
		dataStart = i + 1
		return false
	})
	if dataStart < 0 || len(years) == 0 {
		return nil, errors.New("no year header row found in table")
	}

	out := make(models.RawStatement)
	rows.Slice(dataStart, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() == 0 {
			return
		}

		label := ""
		cells.Each(func(j int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if j == 0 {
				label = text
				return
			}
			col := j - 1
			if label == "" || col >= len(years) || years[col] == 0 {
				return
			}
			value, ok := parseCellValue(text)
			if !ok {
				return
			}
			yearKey := strconv.Itoa(years[col])
			if out[yearKey] == nil {
				out[yearKey] = make(map[string]interface{})
			}
			out[yearKey][label] = value
		})
	})

	if len(out) == 0 {
		return nil, errors.New("no data rows found in table")
	}
	return out, nil
}

// parseColumnYear extracts the fiscal year from a column header.
// Examples:
//
//	"December 31, 2024" → 2024
//	"FY 2023" → 2023
//	"2024" → 2024
func parseColumnYear(label string) int {
	matches := yearPattern.FindAllString(label, -1)
	if len(matches) == 0 {
		return 0
	}
	year, _ := strconv.Atoi(matches[len(matches)-1])
	return year
}

var nonNumericPattern = regexp.MustCompile(`[^0-9.\-]`)

// parseCellValue parses a raw cell text into a number.
// Handles:
//
//	"(1,234)" → -1234 (parentheses = negative)
//	"$1,234.56" → 1234.56
//	"—" or "-" or "N/A" → blank
func parseCellValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "—" || raw == "-" || raw == "–" || raw == "N/A" {
		return 0, false
	}

	isNegative := strings.Contains(raw, "(") && strings.Contains(raw, ")")

	cleaned := nonNumericPattern.ReplaceAllString(raw, "")
	if cleaned == "" || cleaned == "." || cleaned == "-" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if isNegative && value > 0 {
		value = -value
	}
	return value, true
}
