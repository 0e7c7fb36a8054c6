// Package statement defines the canonical statement vocabularies and the
// normalizer that turns raw caller-supplied maps into typed Statements.
// All downstream math assumes the conventions enforced here: expenses are
// stored as non-positive values, every known line item is present in every
// year (zero-filled), and aggregates are derived when the source omits them.
package statement

import (
	"errors"
	"sort"
	"strings"
)

// Kind identifies one of the three financial statements.
type Kind string

const (
	Income   Kind = "income_statement"
	Balance  Kind = "balance_sheet"
	CashFlow Kind = "cash_flow"
)

// =============================================================================
// LINE ITEM VOCABULARIES
// Canonical labels. Unknown labels in raw input are dropped at normalization.
// =============================================================================

// Income statement items.
const (
	Revenue                = "Revenue"
	COGS                   = "COGS"
	GrossProfit            = "GrossProfit"
	SGA                    = "SG&A"
	OtherOperatingExpenses = "OtherOperatingExpenses"
	EBITDA                 = "EBITDA"
	DA                     = "D&A"
	OperatingIncome        = "OperatingIncome"
	InterestExpense        = "InterestExpense"
	InterestIncome         = "InterestIncome"
	OtherUnusualItems      = "OtherUnusualItems"
	EBT                    = "EBT"
	TaxExpense             = "TaxExpense"
	NetIncome              = "NetIncome"
)

// Balance sheet items.
const (
	Cash                     = "Cash"
	ShortTermInvestments     = "ShortTermInvestments"
	CurrentAssets            = "CurrentAssets"
	PPE                      = "PPE"
	OtherLongTermAssets      = "OtherLongTermAssets"
	TotalAssets              = "TotalAssets"
	ShortTermLiabilities     = "ShortTermLiabilities"
	LongTermDebt             = "LongTermDebt"
	LongTermLeases           = "LongTermLeases"
	OtherLongTermLiabilities = "OtherLongTermLiabilities"
	TotalLiabilities         = "TotalLiabilities"
	RetainedEarnings         = "RetainedEarnings"
	CommonStock              = "CommonStock"
	PaidInCapital            = "PaidInCapital"
	TotalEquity              = "TotalEquity"
)

// Cash flow statement items.
const (
	ChangeInCurrentAssets      = "ChangeInCurrentAssets"
	ChangeInCurrentLiabilities = "ChangeInCurrentLiabilities"
	ChangeInWorkingCapital     = "ChangeInWorkingCapital"
	OperatingCashFlow          = "OperatingCashFlow"
	CapitalExpenditures        = "CapitalExpenditures"
	InvestingCashFlow          = "InvestingCashFlow"
	FinancingCashFlow          = "FinancingCashFlow"
	NetCashFlow                = "NetCashFlow"
)

// IncomeItems lists the income statement vocabulary in presentation order.
var IncomeItems = []string{
	Revenue, COGS, GrossProfit, SGA, OtherOperatingExpenses, EBITDA,
	DA, OperatingIncome, InterestExpense, InterestIncome,
	OtherUnusualItems, EBT, TaxExpense, NetIncome,
}

// BalanceItems lists the balance sheet vocabulary in presentation order.
var BalanceItems = []string{
	Cash, ShortTermInvestments, CurrentAssets, PPE, OtherLongTermAssets,
	TotalAssets, ShortTermLiabilities, LongTermDebt, LongTermLeases,
	OtherLongTermLiabilities, TotalLiabilities, RetainedEarnings,
	CommonStock, PaidInCapital, TotalEquity,
}

// CashFlowItems lists the cash flow vocabulary in presentation order.
var CashFlowItems = []string{
	NetIncome, DA, ChangeInWorkingCapital, ChangeInCurrentAssets,
	ChangeInCurrentLiabilities, OperatingCashFlow, CapitalExpenditures,
	InvestingCashFlow, FinancingCashFlow, NetCashFlow,
}

// Items returns the vocabulary for a statement kind.
func Items(kind Kind) []string {
	switch kind {
	case Income:
		return IncomeItems
	case Balance:
		return BalanceItems
	case CashFlow:
		return CashFlowItems
	}
	return nil
}

// =============================================================================
// STATEMENT RECORD
// =============================================================================

// Row holds a single fiscal year's line items keyed by canonical label.
type Row map[string]float64

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Statement is a normalized financial statement. Rows are keyed by the
// original year labels; Years holds those labels sorted by parsed fiscal
// year ascending.
type Statement struct {
	Kind  Kind
	Years []string
	Rows  map[string]Row
}

// Empty reports whether the statement has no year rows.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// Row returns the row for a year label, or nil.
func (s *Statement) Row(label string) Row {
	if s == nil {
		return nil
	}
	return s.Rows[label]
}

// RowForYear returns the row whose label parses to the given fiscal year.
// Handles both plain ("2023") and date-prefixed ("2023-12-31") labels.
func (s *Statement) RowForYear(year int) Row {
	if s == nil {
		return nil
	}
	for _, label := range s.Years {
		if y, ok := ParseYearLabel(label); ok && y == year {
			return s.Rows[label]
		}
	}
	return nil
}

// Series returns the item's values across all years in chronological order.
func (s *Statement) Series(item string) []float64 {
	if s.Empty() {
		return nil
	}
	out := make([]float64, 0, len(s.Years))
	for _, label := range s.Years {
		out = append(out, s.Rows[label][item])
	}
	return out
}

// Errors reported by normalization and year resolution.
var (
	ErrNoIncomeHistory = errors.New("income statement history is empty")
	ErrNoParseableYear = errors.New("no parseable fiscal year in statement labels")
)

// ParseYearLabel extracts a fiscal year from a label. Accepts plain years
// ("2023") and date-prefixed labels ("2023-12-31").
func ParseYearLabel(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	if len(s) == 0 {
		return 0, false
	}
	year := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}

// LatestYear returns the maximum parseable fiscal year across the
// statement's labels.
func (s *Statement) LatestYear() (int, error) {
	if s.Empty() {
		return 0, ErrNoParseableYear
	}
	latest := 0
	found := false
	for label := range s.Rows {
		if y, ok := ParseYearLabel(label); ok {
			found = true
			if y > latest {
				latest = y
			}
		}
	}
	if !found {
		return 0, ErrNoParseableYear
	}
	return latest, nil
}

// SortYearLabels orders year labels by parsed year ascending; unparseable
// labels sort last in lexical order so output stays deterministic.
func SortYearLabels(labels []string) {
	sort.Slice(labels, func(i, j int) bool {
		yi, oki := ParseYearLabel(labels[i])
		yj, okj := ParseYearLabel(labels[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return labels[i] < labels[j]
		}
		if yi != yj {
			return yi < yj
		}
		return labels[i] < labels[j]
	})
}
