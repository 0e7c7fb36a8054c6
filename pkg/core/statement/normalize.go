package statement

import (
	"math"
	"strconv"
	"strings"
)

// expenseItems are income statement items stored as non-positive values.
// InterestIncome and OtherUnusualItems can legitimately carry either sign.
var expenseItems = []string{COGS, SGA, OtherOperatingExpenses, DA, InterestExpense, TaxExpense}

// outflowItems are cash flow items stored as non-positive values.
var outflowItems = []string{CapitalExpenditures}

// NormalizeIncome converts a raw income statement map into a typed Statement.
// Returns ErrNoIncomeHistory when the map has no year rows.
func NormalizeIncome(raw map[string]map[string]interface{}) (*Statement, error) {
	if len(raw) == 0 {
		return nil, ErrNoIncomeHistory
	}
	s := normalize(Income, raw)
	for _, label := range s.Years {
		row := s.Rows[label]
		forceSigns(row, expenseItems)
		deriveIncomeAggregates(row)
	}
	return s, nil
}

// NormalizeBalance converts a raw balance sheet map into a typed Statement.
// An empty map yields an empty Statement, not an error: the projection layer
// degrades gracefully without balance history.
func NormalizeBalance(raw map[string]map[string]interface{}) *Statement {
	s := normalize(Balance, raw)
	for _, label := range s.Years {
		deriveBalanceTotals(s.Rows[label])
	}
	return s
}

// NormalizeCashFlow converts a raw cash flow map into a typed Statement.
func NormalizeCashFlow(raw map[string]map[string]interface{}) *Statement {
	s := normalize(CashFlow, raw)
	for _, label := range s.Years {
		row := s.Rows[label]
		forceSigns(row, outflowItems)
		deriveCashFlowTotals(row)
	}
	return s
}

// normalize builds the year rows: known items coerced and zero-filled,
// unknown items dropped, labels sorted by parsed year.
func normalize(kind Kind, raw map[string]map[string]interface{}) *Statement {
	s := &Statement{
		Kind: kind,
		Rows: make(map[string]Row, len(raw)),
	}
	items := Items(kind)
	for label, values := range raw {
		row := make(Row, len(items))
		for _, item := range items {
			row[item] = Coerce(values[item])
		}
		s.Rows[label] = row
		s.Years = append(s.Years, label)
	}
	SortYearLabels(s.Years)
	return s
}

// Coerce converts an untyped statement value to float64. Numbers pass
// through, numeric strings are parsed, everything else (null, junk, NaN,
// Inf) becomes 0.
func Coerce(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return Sanitize(t)
	case float32:
		return Sanitize(float64(t))
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return Sanitize(f)
	}
	return 0
}

// Sanitize maps NaN and Inf to 0 so they never propagate into projections
// or serialized output.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// forceSigns stores the listed items as non-positive values.
func forceSigns(row Row, items []string) {
	for _, item := range items {
		if v := row[item]; v > 0 {
			row[item] = -v
		}
	}
}

// deriveIncomeAggregates fills aggregate lines the source omitted. A zero
// value counts as omitted: upstream sources zero-fill missing concepts, so
// key presence carries no signal. Derivation order matters, later aggregates
// build on earlier ones.
func deriveIncomeAggregates(row Row) {
	if row[GrossProfit] == 0 {
		row[GrossProfit] = row[Revenue] + row[COGS]
	}
	if row[OperatingIncome] == 0 {
		row[OperatingIncome] = row[GrossProfit] + row[SGA] + row[OtherOperatingExpenses] + row[DA]
	}
	if row[EBITDA] == 0 {
		row[EBITDA] = row[OperatingIncome] - row[DA]
	}
	if row[EBT] == 0 {
		row[EBT] = row[OperatingIncome] + row[InterestExpense] + row[InterestIncome] + row[OtherUnusualItems]
	}
	if row[NetIncome] == 0 {
		row[NetIncome] = row[EBT] + row[TaxExpense]
	}
}

// deriveBalanceTotals fills total lines from their components when omitted,
// matching the component sums the projection layer produces.
func deriveBalanceTotals(row Row) {
	if row[TotalAssets] == 0 {
		row[TotalAssets] = row[CurrentAssets] + row[PPE] + row[OtherLongTermAssets]
	}
	if row[TotalLiabilities] == 0 {
		row[TotalLiabilities] = row[ShortTermLiabilities] + row[LongTermDebt] + row[LongTermLeases] + row[OtherLongTermLiabilities]
	}
	if row[TotalEquity] == 0 {
		row[TotalEquity] = row[RetainedEarnings] + row[CommonStock] + row[PaidInCapital]
	}
}

// deriveCashFlowTotals fills summary lines from their components when omitted.
func deriveCashFlowTotals(row Row) {
	if row[ChangeInWorkingCapital] == 0 {
		row[ChangeInWorkingCapital] = row[ChangeInCurrentAssets] + row[ChangeInCurrentLiabilities]
	}
	if row[NetCashFlow] == 0 {
		row[NetCashFlow] = row[OperatingCashFlow] + row[InvestingCashFlow] + row[FinancingCashFlow]
	}
}
