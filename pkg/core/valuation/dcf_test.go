package valuation

import (
	"math"
	"testing"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/statement"
)

func testStatement(kind statement.Kind, label string, row statement.Row) *statement.Statement {
	return &statement.Statement{
		Kind:  kind,
		Years: []string{label},
		Rows:  map[string]statement.Row{label: row},
	}
}

func TestCalculateWACC_Standard(t *testing.T) {
	// Ke = 0.03 + 1.0*0.06 = 0.09
	// Kd = 0.05 * (1 - 0.25) = 0.0375
	// Wd = 0.3/1.3 = 0.230769, We = 1/1.3 = 0.769231
	// WACC = 0.09*0.769231 + 0.0375*0.230769 = 0.077885
	res := CalculateWACC(WACCInput{
		Beta:              1.0,
		RiskFreeRate:      0.03,
		MarketRiskPremium: 0.06,
		PreTaxCostOfDebt:  0.05,
		TaxRate:           0.25,
		DebtToEquityRatio: 0.3,
	})

	if math.Abs(res.CostOfEquity-0.09) > 1e-9 {
		t.Errorf("Diff Ke: got %v, exp 0.09", res.CostOfEquity)
	}
	if math.Abs(res.CostOfDebt-0.0375) > 1e-9 {
		t.Errorf("Diff Kd: got %v, exp 0.0375", res.CostOfDebt)
	}
	if math.Abs(res.WeightEquity-0.769231) > 1e-6 {
		t.Errorf("Diff We: got %v, exp 0.769231", res.WeightEquity)
	}
	if math.Abs(res.WeightDebt-0.230769) > 1e-6 {
		t.Errorf("Diff Wd: got %v, exp 0.230769", res.WeightDebt)
	}
	if math.Abs(res.WACC-0.077885) > 1e-6 {
		t.Errorf("Diff WACC: got %v, exp 0.077885", res.WACC)
	}
}

func TestCalculateWACC_AllEquity(t *testing.T) {
	// No debt: WACC collapses to the cost of equity.
	res := CalculateWACC(WACCInput{
		Beta:              1.2,
		RiskFreeRate:      0.04,
		MarketRiskPremium: 0.05,
		PreTaxCostOfDebt:  0.06,
		TaxRate:           0.25,
		DebtToEquityRatio: 0,
	})
	if math.Abs(res.WACC-0.10) > 1e-9 {
		t.Errorf("Diff WACC: got %v, exp 0.10", res.WACC)
	}
	if res.WeightDebt != 0 || math.Abs(res.WeightEquity-1) > 1e-9 {
		t.Errorf("Diff weights: got Wd %v We %v", res.WeightDebt, res.WeightEquity)
	}
}

func TestTerminalValue_GordonGrowth(t *testing.T) {
	// TV = 500 * 1.03 / (0.084 - 0.03) = 515 / 0.054 = 9537.04
	tv := TerminalValue(500, 0.084, 0.03)
	if math.Abs(tv-9537.04) > 0.01 {
		t.Errorf("Diff TV: got %v, exp 9537.04", tv)
	}
}

func TestTerminalValue_FallbackMultiple(t *testing.T) {
	// Growth at or above WACC: perpetuity undefined, use 10x final FCF.
	if tv := TerminalValue(500, 0.02, 0.03); math.Abs(tv-5000) > 1e-9 {
		t.Errorf("Diff TV below growth: got %v, exp 5000", tv)
	}
	if tv := TerminalValue(500, 0.03, 0.03); math.Abs(tv-5000) > 1e-9 {
		t.Errorf("Diff TV at growth: got %v, exp 5000", tv)
	}
}

func TestFreeCashFlows_FromCashFlowStatement(t *testing.T) {
	projCF := &statement.Statement{
		Kind:  statement.CashFlow,
		Years: []string{"2024", "2025"},
		Rows: map[string]statement.Row{
			"2024": {statement.OperatingCashFlow: 131, statement.CapitalExpenditures: -44},
			"2025": {statement.OperatingCashFlow: 143.5, statement.CapitalExpenditures: -48.4},
		},
	}
	a := assumption.Defaults()
	a.ProjectionYears = 2

	fcfs := FreeCashFlows(DCFInput{
		ProjCashFlow: projCF,
		LatestYear:   2023,
		Assumptions:  a,
	})

	// FCF = OCF - |CapEx|
	if math.Abs(fcfs[2024]-87) > 1e-6 {
		t.Errorf("Diff FCF 2024: got %v, exp 87", fcfs[2024])
	}
	if math.Abs(fcfs[2025]-95.1) > 1e-6 {
		t.Errorf("Diff FCF 2025: got %v, exp 95.1", fcfs[2025])
	}
}

func TestFreeCashFlows_NOPATFallback(t *testing.T) {
	// No projected cash flow at all: Method 1 nets to zero, Method 2 builds
	// from the income statement.
	// NOPAT = 297 * 0.75 = 222.75, D&A = 33 -> FCF = 255.75
	projIncome := testStatement(statement.Income, "2024", statement.Row{
		statement.OperatingIncome: 297,
		statement.DA:              -33,
	})
	a := assumption.Defaults()
	a.ProjectionYears = 1
	a.TaxRate = 0.25

	fcfs := FreeCashFlows(DCFInput{
		ProjIncome:  projIncome,
		LatestYear:  2023,
		Assumptions: a,
	})
	if math.Abs(fcfs[2024]-255.75) > 1e-6 {
		t.Errorf("Diff FCF: got %v, exp 255.75", fcfs[2024])
	}
}

func TestFreeCashFlows_FallbackOnExactZero(t *testing.T) {
	// OCF exactly offsets CapEx, which triggers the rebuild with the cash
	// flow statement's own CapEx and working capital terms.
	// FCF = 100*0.75 + 20 - 44 - (-40) = 91
	projCF := testStatement(statement.CashFlow, "2024", statement.Row{
		statement.OperatingCashFlow:      44,
		statement.CapitalExpenditures:    -44,
		statement.ChangeInWorkingCapital: -40,
	})
	projIncome := testStatement(statement.Income, "2024", statement.Row{
		statement.OperatingIncome: 100,
		statement.DA:              -20,
	})
	a := assumption.Defaults()
	a.ProjectionYears = 1
	a.TaxRate = 0.25

	fcfs := FreeCashFlows(DCFInput{
		ProjIncome:   projIncome,
		ProjCashFlow: projCF,
		LatestYear:   2023,
		Assumptions:  a,
	})
	if math.Abs(fcfs[2024]-91) > 1e-6 {
		t.Errorf("Diff FCF: got %v, exp 91", fcfs[2024])
	}
}

func TestNetDebt(t *testing.T) {
	balance := testStatement(statement.Balance, "2023-12-31", statement.Row{
		statement.LongTermDebt:         600,
		statement.Cash:                 200,
		statement.ShortTermInvestments: 50,
	})

	// NetDebt = 600 - (200 + 50) = 350, resolved through the dated label.
	if nd := NetDebt(balance, 2023); math.Abs(nd-350) > 1e-9 {
		t.Errorf("Diff NetDebt: got %v, exp 350", nd)
	}
	if nd := NetDebt(&statement.Statement{Kind: statement.Balance}, 2023); nd != 0 {
		t.Errorf("Diff NetDebt empty: got %v, exp 0", nd)
	}
}

func TestCalculateDCF_EndToEnd(t *testing.T) {
	projCF := &statement.Statement{
		Kind:  statement.CashFlow,
		Years: []string{"2024", "2025"},
		Rows: map[string]statement.Row{
			"2024": {statement.OperatingCashFlow: 150, statement.CapitalExpenditures: -50},
			"2025": {statement.OperatingCashFlow: 160, statement.CapitalExpenditures: -52},
		},
	}
	balance := testStatement(statement.Balance, "2023", statement.Row{
		statement.LongTermDebt:         600,
		statement.Cash:                 200,
		statement.ShortTermInvestments: 50,
	})

	// All-equity so the discount rate is exactly Ke = 0.04 + 1.0*0.06 = 0.10.
	a := assumption.Defaults()
	a.RiskFreeRate = 0.04
	a.Beta = 1.0
	a.MarketRiskPremium = 0.06
	a.DebtToEquity = 0
	a.TaxRate = 0.25
	a.TerminalGrowthRate = 0.03
	a.ProjectionYears = 2

	shares := 10.0
	res := CalculateDCF(DCFInput{
		ProjCashFlow: projCF,
		Balance:      balance,
		LatestYear:   2023,
		Assumptions:  a,
		Shares:       &shares,
	})

	if math.Abs(res.WACC-0.10) > 1e-9 {
		t.Fatalf("Diff WACC: got %v, exp 0.10", res.WACC)
	}

	// FCF 2024 = 100, FCF 2025 = 108
	// PV 2024 = 100/1.1 = 90.9091
	// PV 2025 = 108/1.21 = 89.2562
	// Total PV = 180.1653
	if math.Abs(res.FreeCashFlows[2025]-108) > 1e-9 {
		t.Errorf("Diff FCF 2025: got %v, exp 108", res.FreeCashFlows[2025])
	}
	if math.Abs(res.PresentValueFCF[2024]-90.9091) > 0.01 {
		t.Errorf("Diff PV 2024: got %v, exp 90.9091", res.PresentValueFCF[2024])
	}
	if math.Abs(res.TotalPVFCF-180.1653) > 0.01 {
		t.Errorf("Diff total PV: got %v, exp 180.1653", res.TotalPVFCF)
	}

	// TV = 108 * 1.03 / (0.10 - 0.03) = 1589.1429
	// PV(TV) = 1589.1429 / 1.21 = 1313.3412
	// EV = 180.1653 + 1313.3412 = 1493.5065
	// Equity = EV - NetDebt(350) = 1143.5065
	// Price = 1143.5065 / 10 shares = 114.3506
	if math.Abs(res.TerminalValue-1589.1429) > 0.01 {
		t.Errorf("Diff TV: got %v, exp 1589.1429", res.TerminalValue)
	}
	if math.Abs(res.PresentValueTerminal-1313.3412) > 0.01 {
		t.Errorf("Diff PV terminal: got %v, exp 1313.3412", res.PresentValueTerminal)
	}
	if math.Abs(res.EnterpriseValue-1493.5065) > 0.01 {
		t.Errorf("Diff EV: got %v, exp 1493.5065", res.EnterpriseValue)
	}
	if math.Abs(res.EquityValue-1143.5065) > 0.01 {
		t.Errorf("Diff equity: got %v, exp 1143.5065", res.EquityValue)
	}
	if res.PricePerShare == nil {
		t.Fatal("expected a price per share")
	}
	if math.Abs(*res.PricePerShare-114.3506) > 0.01 {
		t.Errorf("Diff price: got %v, exp 114.3506", *res.PricePerShare)
	}

	// Assumption echo survives into the result payload.
	if res.Assumptions.TaxRate != 0.25 || res.Assumptions.TerminalGrowthRate != 0.03 {
		t.Errorf("Diff assumptions echo: got %+v", res.Assumptions)
	}
}

func TestCalculateDCF_NoShares(t *testing.T) {
	projCF := testStatement(statement.CashFlow, "2024", statement.Row{
		statement.OperatingCashFlow:   150,
		statement.CapitalExpenditures: -50,
	})
	a := assumption.Defaults()
	a.ProjectionYears = 1

	res := CalculateDCF(DCFInput{ProjCashFlow: projCF, LatestYear: 2023, Assumptions: a})
	if res.PricePerShare != nil {
		t.Errorf("expected nil price without shares, got %v", *res.PricePerShare)
	}

	zero := 0.0
	res = CalculateDCF(DCFInput{ProjCashFlow: projCF, LatestYear: 2023, Assumptions: a, Shares: &zero})
	if res.PricePerShare != nil {
		t.Errorf("expected nil price for zero shares, got %v", *res.PricePerShare)
	}
}
