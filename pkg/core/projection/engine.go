// Package projection builds forward-looking financial statements from
// normalized history and resolved operating drivers. The three statements
// are articulated in sequence: income first, then balance sheet off the
// projected income, then cash flow off both.
package projection

import (
	"strconv"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/statement"
)

// ProjectionEngine articulates the three statements for future periods.
type ProjectionEngine struct {
	// CapexPercent sizes capital expenditures as a share of revenue.
	CapexPercent float64
	// DefaultInterestExpense substitutes for a zero or missing historical
	// interest expense line.
	DefaultInterestExpense float64
}

// NewProjectionEngine creates an engine with the given modeling constants.
func NewProjectionEngine(capexPercent, defaultInterestExpense float64) *ProjectionEngine {
	return &ProjectionEngine{
		CapexPercent:           capexPercent,
		DefaultInterestExpense: defaultInterestExpense,
	}
}

// Result holds the projected years of all three statements.
type Result struct {
	Income   *statement.Statement
	Balance  *statement.Statement
	CashFlow *statement.Statement
}

// Project builds all projection years. Statements without history project
// to empty tables rather than failing: a missing balance sheet degrades the
// cash flow linkage to zero working-capital changes, and a missing cash
// flow history suppresses the cash flow projection entirely (the valuation
// layer falls back to its income-statement FCF build in that case).
func (e *ProjectionEngine) Project(
	income, balance, cashflow *statement.Statement,
	drivers assumption.OperatingDrivers,
	latestYear, years int,
) *Result {
	projIncome := e.ProjectIncome(income, drivers, latestYear, years)
	projBalance := e.ProjectBalance(balance, income, projIncome, latestYear, years)
	projCashFlow := e.ProjectCashFlow(cashflow, balance, projIncome, projBalance, latestYear, years)
	return &Result{
		Income:   projIncome,
		Balance:  projBalance,
		CashFlow: projCashFlow,
	}
}

// ProjectIncome projects the income statement.
//
// Revenue compounds off the latest historical year, not the prior projected
// year: Rev_t = LatestRev * (1+g)^t. Margin lines are ratios of that
// revenue, D&A holds at a damped step above its latest level, and a zero
// interest expense line falls back to the configured default.
func (e *ProjectionEngine) ProjectIncome(
	income *statement.Statement,
	d assumption.OperatingDrivers,
	latestYear, years int,
) *statement.Statement {
	proj := emptyProjection(statement.Income)
	if income.Empty() {
		return proj
	}
	latest := income.RowForYear(latestYear)
	if latest == nil {
		return proj
	}

	latestRevenue := latest[statement.Revenue]
	latestDA := abs(latest[statement.DA])
	latestInterest := latest[statement.InterestExpense]

	for offset := 1; offset <= years; offset++ {
		rev := latestRevenue * pow1p(d.RevenueGrowth, offset)
		cogs := -rev * (1 - d.GrossMargin)
		grossProfit := rev + cogs
		sga := -rev * d.SGAPercent
		otherOpex := 0.0
		ebitda := grossProfit + sga + otherOpex

		// D&A grows slower than revenue; without history it tracks revenue.
		da := latestDA * (1 + d.RevenueGrowth*0.5)
		if latestDA == 0 {
			da = rev * 0.03
		}

		operatingIncome := ebitda - da

		interest := latestInterest
		if interest == 0 {
			interest = e.DefaultInterestExpense
		}

		otherUnusual := 0.0
		ebt := operatingIncome + interest + otherUnusual
		tax := -ebt * d.TaxRate
		netIncome := ebt + tax

		row := statement.Row{
			statement.Revenue:                rev,
			statement.COGS:                   cogs,
			statement.GrossProfit:            grossProfit,
			statement.SGA:                    sga,
			statement.OtherOperatingExpenses: otherOpex,
			statement.EBITDA:                 ebitda,
			statement.DA:                     -da,
			statement.OperatingIncome:        operatingIncome,
			statement.InterestExpense:        interest,
			statement.InterestIncome:         0,
			statement.OtherUnusualItems:      otherUnusual,
			statement.EBT:                    ebt,
			statement.TaxExpense:             tax,
			statement.NetIncome:              netIncome,
		}
		appendYear(proj, latestYear+offset, row)
	}
	return proj
}

// ProjectBalance projects the balance sheet off the projected income.
//
// Cash, short-term investments, debt, leases and contributed capital hold at
// their latest historical levels. Current assets and short-term liabilities
// scale with projected revenue. PP&E rolls forward with capex less
// depreciation, other long-term assets compound at 2% a year, and retained
// earnings accumulate projected net income.
func (e *ProjectionEngine) ProjectBalance(
	balance, income *statement.Statement,
	projIncome *statement.Statement,
	latestYear, years int,
) *statement.Statement {
	proj := emptyProjection(statement.Balance)
	if balance.Empty() || projIncome.Empty() {
		return proj
	}
	latest := balance.RowForYear(latestYear)
	if latest == nil {
		return proj
	}

	var latestRevenue float64
	if income != nil {
		if row := income.RowForYear(latestYear); row != nil {
			latestRevenue = row[statement.Revenue]
		}
	}

	// Roll-forward state
	ppe := latest[statement.PPE]
	otherLTA := latest[statement.OtherLongTermAssets]
	retained := latest[statement.RetainedEarnings]

	for offset := 1; offset <= years; offset++ {
		year := latestYear + offset
		projRow := projIncome.RowForYear(year)
		if projRow == nil {
			break
		}
		rev := projRow[statement.Revenue]

		cash := latest[statement.Cash]
		sti := latest[statement.ShortTermInvestments]

		currentAssets := latest[statement.CurrentAssets]
		stLiabilities := latest[statement.ShortTermLiabilities]
		if latestRevenue > 0 {
			scale := rev / latestRevenue
			currentAssets *= scale
			stLiabilities *= scale
		}

		capex := rev * e.CapexPercent
		da := abs(projRow[statement.DA])
		ppe = ppe + capex - da

		otherLTA *= 1.02

		totalAssets := currentAssets + ppe + otherLTA

		ltDebt := latest[statement.LongTermDebt]
		ltLeases := latest[statement.LongTermLeases]
		otherLTL := latest[statement.OtherLongTermLiabilities]
		totalLiabilities := stLiabilities + ltDebt + ltLeases + otherLTL

		retained += projRow[statement.NetIncome]
		commonStock := latest[statement.CommonStock]
		paidInCapital := latest[statement.PaidInCapital]
		totalEquity := retained + commonStock + paidInCapital

		row := statement.Row{
			statement.Cash:                     cash,
			statement.ShortTermInvestments:     sti,
			statement.CurrentAssets:            currentAssets,
			statement.PPE:                      ppe,
			statement.OtherLongTermAssets:      otherLTA,
			statement.TotalAssets:              totalAssets,
			statement.ShortTermLiabilities:     stLiabilities,
			statement.LongTermDebt:             ltDebt,
			statement.LongTermLeases:           ltLeases,
			statement.OtherLongTermLiabilities: otherLTL,
			statement.TotalLiabilities:         totalLiabilities,
			statement.RetainedEarnings:         retained,
			statement.CommonStock:              commonStock,
			statement.PaidInCapital:            paidInCapital,
			statement.TotalEquity:              totalEquity,
		}
		appendYear(proj, year, row)
	}
	return proj
}

// ProjectCashFlow derives the cash flow statement from the projected income
// statement and balance sheet movements.
//
// Working-capital changes compare each projected year against the prior
// projected year, seeded from the latest historical balance sheet in the
// first period. Financing activity is held at zero.
func (e *ProjectionEngine) ProjectCashFlow(
	cashflow, balance *statement.Statement,
	projIncome, projBalance *statement.Statement,
	latestYear, years int,
) *statement.Statement {
	proj := emptyProjection(statement.CashFlow)
	if cashflow.Empty() || projIncome.Empty() {
		return proj
	}

	latestBalance := balance.RowForYear(latestYear)

	for offset := 1; offset <= years; offset++ {
		year := latestYear + offset
		projRow := projIncome.RowForYear(year)
		if projRow == nil {
			break
		}

		netIncome := projRow[statement.NetIncome]
		da := abs(projRow[statement.DA])

		var prevCA, prevSTL float64
		if offset == 1 {
			if latestBalance != nil {
				prevCA = latestBalance[statement.CurrentAssets]
				prevSTL = latestBalance[statement.ShortTermLiabilities]
			}
		} else if prevRow := projBalance.RowForYear(year - 1); prevRow != nil {
			prevCA = prevRow[statement.CurrentAssets]
			prevSTL = prevRow[statement.ShortTermLiabilities]
		}

		var currCA, currSTL float64
		if currRow := projBalance.RowForYear(year); currRow != nil {
			currCA = currRow[statement.CurrentAssets]
			currSTL = currRow[statement.ShortTermLiabilities]
		}

		changeCA := prevCA - currCA
		changeCL := currSTL - prevSTL
		changeWC := changeCA + changeCL

		operatingCF := netIncome + da + changeWC

		capex := -projRow[statement.Revenue] * e.CapexPercent
		investingCF := capex
		financingCF := 0.0
		netCF := operatingCF + investingCF + financingCF

		row := statement.Row{
			statement.NetIncome:                  netIncome,
			statement.DA:                         da,
			statement.ChangeInWorkingCapital:     changeWC,
			statement.ChangeInCurrentAssets:      changeCA,
			statement.ChangeInCurrentLiabilities: changeCL,
			statement.OperatingCashFlow:          operatingCF,
			statement.CapitalExpenditures:        capex,
			statement.InvestingCashFlow:          investingCF,
			statement.FinancingCashFlow:          financingCF,
			statement.NetCashFlow:                netCF,
		}
		appendYear(proj, year, row)
	}
	return proj
}

func emptyProjection(kind statement.Kind) *statement.Statement {
	return &statement.Statement{
		Kind: kind,
		Rows: make(map[string]statement.Row),
	}
}

func appendYear(s *statement.Statement, year int, row statement.Row) {
	label := strconv.Itoa(year)
	s.Rows[label] = row
	s.Years = append(s.Years, label)
}

// pow1p computes (1+rate)^n without pulling in math.Pow for integer powers.
func pow1p(rate float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 1 + rate
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
