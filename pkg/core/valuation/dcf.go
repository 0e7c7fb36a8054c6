package valuation

import (
	"math"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/models"
)

// DCFInput encapsulates all inputs required for a Discounted Cash Flow
// valuation: the projected statements, the historical balance sheet used for
// the net debt bridge, and the priced assumption set.
type DCFInput struct {
	ProjIncome   *statement.Statement
	ProjCashFlow *statement.Statement
	Balance      *statement.Statement // historical, net debt source
	LatestYear   int
	Assumptions  assumption.Assumptions
	Shares       *float64 // resolved shares outstanding, nil when unknown
}

// FreeCashFlows extracts free cash flow for every projection year.
//
// Method 1 reads the projected cash flow statement:
// FCF = OCF - |CapEx|. When that nets to exactly zero (typically because no
// cash flow history existed to project from), Method 2 rebuilds from the
// projected income statement: FCF = NOPAT + D&A - |CapEx| - ChangeWC.
func FreeCashFlows(input DCFInput) map[int]float64 {
	out := make(map[int]float64, input.Assumptions.ProjectionYears)
	taxRate := input.Assumptions.TaxRate

	for offset := 1; offset <= input.Assumptions.ProjectionYears; offset++ {
		year := input.LatestYear + offset

		var ocf, capex, changeWC float64
		if row := input.ProjCashFlow.RowForYear(year); row != nil {
			ocf = row[statement.OperatingCashFlow]
			capex = row[statement.CapitalExpenditures]
			changeWC = row[statement.ChangeInWorkingCapital]
		}

		fcf := ocf - math.Abs(capex)
		if fcf == 0 {
			var nopat, da float64
			if row := input.ProjIncome.RowForYear(year); row != nil {
				nopat = row[statement.OperatingIncome] * (1 - taxRate)
				da = math.Abs(row[statement.DA])
			}
			fcf = nopat + da - math.Abs(capex) - changeWC
		}
		out[year] = fcf
	}
	return out
}

// TerminalValue capitalizes the final-year FCF with Gordon Growth.
// TV = FCF_n * (1+g) / (WACC - g)
// When the discount rate does not exceed the growth rate the perpetuity is
// undefined, so the value degrades to a 10x multiple of the final FCF.
func TerminalValue(finalFCF, wacc, growth float64) float64 {
	if wacc > growth {
		return finalFCF * (1 + growth) / (wacc - growth)
	}
	return finalFCF * 10
}

// NetDebt reads the latest historical balance sheet.
// NetDebt = LongTermDebt - (Cash + ShortTermInvestments)
// Zero when no balance history covers the latest year.
func NetDebt(balance *statement.Statement, latestYear int) float64 {
	row := balance.RowForYear(latestYear)
	if row == nil {
		return 0
	}
	return row[statement.LongTermDebt] - (row[statement.Cash] + row[statement.ShortTermInvestments])
}

// CalculateDCF performs a standard 2-stage DCF analysis
func CalculateDCF(input DCFInput) *models.DCFResults {
	a := input.Assumptions

	wacc := CalculateWACC(WACCInput{
		Beta:              a.Beta,
		RiskFreeRate:      a.RiskFreeRate,
		MarketRiskPremium: a.MarketRiskPremium,
		PreTaxCostOfDebt:  a.CostOfDebt,
		TaxRate:           a.TaxRate,
		DebtToEquityRatio: a.DebtToEquity,
	}).WACC

	fcfs := FreeCashFlows(input)

	// 1. Discount each projection year at (1+WACC)^(year - latest)
	pvs := make(map[int]float64, len(fcfs))
	totalPV := 0.0
	var finalFCF float64
	for offset := 1; offset <= a.ProjectionYears; offset++ {
		year := input.LatestYear + offset
		fcf := fcfs[year]
		pv := fcf / math.Pow(1+wacc, float64(offset))
		pvs[year] = pv
		totalPV += pv
		finalFCF = fcf
	}

	// 2. Terminal value capitalized off the final year, discounted over the
	// full horizon
	tv := TerminalValue(finalFCF, wacc, a.TerminalGrowthRate)
	pvTerminal := tv / math.Pow(1+wacc, float64(a.ProjectionYears))

	// 3. Enterprise to equity bridge
	ev := totalPV + pvTerminal
	equity := ev - NetDebt(input.Balance, input.LatestYear)

	var pricePerShare *float64
	if input.Shares != nil && *input.Shares > 0 {
		p := equity / *input.Shares
		pricePerShare = &p
	}

	return &models.DCFResults{
		WACC:                 wacc,
		FreeCashFlows:        fcfs,
		TerminalValue:        tv,
		PresentValueFCF:      pvs,
		PresentValueTerminal: pvTerminal,
		TotalPVFCF:           totalPV,
		EnterpriseValue:      ev,
		EquityValue:          equity,
		PricePerShare:        pricePerShare,
		Assumptions: models.DCFAssumptions{
			RiskFreeRate:       a.RiskFreeRate,
			Beta:               a.Beta,
			MarketRiskPremium:  a.MarketRiskPremium,
			CostOfDebt:         a.CostOfDebt,
			TaxRate:            a.TaxRate,
			DebtToEquity:       a.DebtToEquity,
			TerminalGrowthRate: a.TerminalGrowthRate,
		},
	}
}
