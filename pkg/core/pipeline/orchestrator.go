package pipeline

import (
	"fmt"
	"math"
	"strings"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/projection"
	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/core/valuation"
	"dcfengine/pkg/models"
)

// ValidationConfig defines thresholds and behavior for post-build checks
type ValidationConfig struct {
	EnableStrictValidation bool    // If true, mismatches log as critical instead of warnings
	BalanceSheetTolerance  float64 // Allowed gap percent for A = L + E
	ArticulationTolerance  float64 // Allowed gap percent for statement flow-through checks
}

// ModelOrchestrator manages the end-to-end model build:
// Normalize -> Resolve Drivers -> Project -> Validate -> Value -> Assemble
type ModelOrchestrator struct {
	validationConfig ValidationConfig
}

// NewModelOrchestrator creates an orchestrator with default validation
// thresholds.
func NewModelOrchestrator() *ModelOrchestrator {
	return &ModelOrchestrator{
		validationConfig: ValidationConfig{
			EnableStrictValidation: false,
			BalanceSheetTolerance:  0.1,
			ArticulationTolerance:  0.1,
		},
	}
}

// SetValidationConfig updates the validation configuration
func (o *ModelOrchestrator) SetValidationConfig(config ValidationConfig) {
	o.validationConfig = config
}

// BuildModel runs the full modeling pipeline for one company: it normalizes
// the supplied history, projects the three statements, runs the DCF and
// assembles the combined payload.
//
// The only hard failures are an empty income statement and an income
// statement whose year labels cannot be parsed. Missing balance sheet or
// cash flow history degrades to empty projections for those statements.
func (o *ModelOrchestrator) BuildModel(company *models.CompanyData, a assumption.Assumptions) (*models.ModelOutput, error) {
	if company == nil {
		return nil, statement.ErrNoIncomeHistory
	}
	name := strings.TrimSpace(company.CompanyName)
	if name == "" {
		name = "Unknown Company"
	}
	fmt.Printf("[PIPELINE] Building model for %s (%d projection years)\n", name, a.ProjectionYears)

	// 1. Normalization
	income, err := statement.NormalizeIncome(company.IncomeStatement)
	if err != nil {
		return nil, fmt.Errorf("normalize income statement: %w", err)
	}
	latestYear, err := income.LatestYear()
	if err != nil {
		return nil, fmt.Errorf("resolve latest fiscal year: %w", err)
	}
	balance := statement.NormalizeBalance(company.BalanceSheet)
	cashflow := statement.NormalizeCashFlow(company.CashFlow)
	fmt.Printf("[PIPELINE] History normalized: %d income years, latest %d\n", len(income.Years), latestYear)

	// 2. Operating drivers (explicit overrides win, otherwise estimated)
	drivers := a.ResolveOperating(income)
	fmt.Printf("[PIPELINE] Drivers: growth %.4f, gross margin %.4f, SG&A %.4f, tax %.4f\n",
		drivers.RevenueGrowth, drivers.GrossMargin, drivers.SGAPercent, drivers.TaxRate)

	// 3. Projection
	engine := projection.NewProjectionEngine(a.CapexPercent, a.DefaultInterestExpense)
	projected := engine.Project(income, balance, cashflow, drivers, latestYear, a.ProjectionYears)

	model := &models.OperatingModel{
		IncomeStatement: combineTable(statement.Income, income, projected.Income),
		BalanceSheet:    combineTable(statement.Balance, balance, projected.Balance),
		CashFlow:        combineTable(statement.CashFlow, cashflow, projected.CashFlow),
		LatestYear:      latestYear,
		ProjectionYears: a.ProjectionYears,
	}

	// 4. Validation (log-only unless strict)
	o.validateModel(projected)

	// 5. Valuation
	dcf := valuation.CalculateDCF(valuation.DCFInput{
		ProjIncome:   projected.Income,
		ProjCashFlow: projected.CashFlow,
		Balance:      balance,
		LatestYear:   latestYear,
		Assumptions:  a,
		Shares:       resolveShares(company, a),
	})
	scrubResults(dcf)
	fmt.Printf("[PIPELINE] DCF complete: WACC %.4f, EV %.2f, equity %.2f\n",
		dcf.WACC, dcf.EnterpriseValue, dcf.EquityValue)

	return &models.ModelOutput{
		CompanyName:    name,
		OperatingModel: model,
		DCFResults:     dcf,
	}, nil
}

// resolveShares prefers an explicit assumption override, then the company
// payload.
func resolveShares(company *models.CompanyData, a assumption.Assumptions) *float64 {
	if a.SharesOutstanding != nil {
		return a.SharesOutstanding
	}
	return company.SharesOutstanding
}

// combineTable stitches historical and projected years into one serializable
// table. Every known line item is emitted for every year and all values are
// scrubbed of NaN and infinities.
func combineTable(kind statement.Kind, hist, proj *statement.Statement) models.StatementTable {
	table := make(models.StatementTable)
	appendRows := func(s *statement.Statement) {
		if s.Empty() {
			return
		}
		for _, label := range s.Years {
			row := s.Rows[label]
			out := make(map[string]float64, len(statement.Items(kind)))
			for _, item := range statement.Items(kind) {
				out[item] = statement.Sanitize(row[item])
			}
			table[label] = out
		}
	}
	appendRows(hist)
	appendRows(proj)
	return table
}

// scrubResults normalizes non-finite valuation outputs to zero so the
// payload always serializes cleanly.
func scrubResults(r *models.DCFResults) {
	r.WACC = statement.Sanitize(r.WACC)
	r.TerminalValue = statement.Sanitize(r.TerminalValue)
	r.PresentValueTerminal = statement.Sanitize(r.PresentValueTerminal)
	r.TotalPVFCF = statement.Sanitize(r.TotalPVFCF)
	r.EnterpriseValue = statement.Sanitize(r.EnterpriseValue)
	r.EquityValue = statement.Sanitize(r.EquityValue)
	for year, v := range r.FreeCashFlows {
		r.FreeCashFlows[year] = statement.Sanitize(v)
	}
	for year, v := range r.PresentValueFCF {
		r.PresentValueFCF[year] = statement.Sanitize(v)
	}
	if r.PricePerShare != nil {
		p := statement.Sanitize(*r.PricePerShare)
		r.PricePerShare = &p
	}
}

// validateModel runs articulation checks on the projected statements and
// logs warnings based on ValidationConfig. The projected balance sheet
// carries no plug, so an equity gap is reported rather than forced closed.
func (o *ModelOrchestrator) validateModel(projected *projection.Result) {
	fmt.Printf("\n--- [Validation] Projected statement checks ---\n")

	if !projected.Balance.Empty() {
		for _, label := range projected.Balance.Years {
			row := projected.Balance.Rows[label]
			assets := row[statement.TotalAssets]
			liabEquity := row[statement.TotalLiabilities] + row[statement.TotalEquity]
			diff := math.Abs(assets - liabEquity)
			var diffPercent float64
			if assets != 0 {
				diffPercent = (diff / math.Abs(assets)) * 100
			}
			fmt.Printf("  [BS %s] Assets: %.2f | L+E: %.2f | Diff: %.2f (%.4f%%)\n",
				label, assets, liabEquity, assets-liabEquity, diffPercent)
			o.checkTolerance("Balance Sheet Equation", diffPercent, diff, o.validationConfig.BalanceSheetTolerance)
		}
	}

	if !projected.Income.Empty() {
		for _, label := range projected.Income.Years {
			row := projected.Income.Rows[label]
			niCalc := row[statement.EBT] + row[statement.TaxExpense]
			niRep := row[statement.NetIncome]
			if niRep != 0 {
				diff := math.Abs(niCalc - niRep)
				pct := (diff / math.Abs(niRep)) * 100
				fmt.Printf("  [IS %s] Net Income Calc: %.2f | Rep: %.2f (%.4f%%)\n", label, niCalc, niRep, pct)
				o.checkTolerance("Net Income", pct, diff, o.validationConfig.ArticulationTolerance)
			}
		}
	}

	if !projected.CashFlow.Empty() {
		for _, label := range projected.CashFlow.Years {
			row := projected.CashFlow.Rows[label]
			netCalc := row[statement.OperatingCashFlow] + row[statement.InvestingCashFlow] + row[statement.FinancingCashFlow]
			netRep := row[statement.NetCashFlow]
			if netRep != 0 {
				diff := math.Abs(netCalc - netRep)
				pct := (diff / math.Abs(netRep)) * 100
				fmt.Printf("  [CF %s] Net Change Calc: %.2f | Rep: %.2f (%.4f%%)\n", label, netCalc, netRep, pct)
				o.checkTolerance("CF Net Change", pct, diff, o.validationConfig.ArticulationTolerance)
			}
		}
	}
}

// checkTolerance is a helper to log validation results
func (o *ModelOrchestrator) checkTolerance(label string, diffPercent float64, absoluteDiff float64, tolerance float64) {
	if diffPercent > tolerance {
		msg := fmt.Sprintf("%s mismatch > %.2f%% tolerance (Diff: %.2f)", label, tolerance, absoluteDiff)
		if o.validationConfig.EnableStrictValidation {
			fmt.Printf("    ❌ CRITICAL: %s\n", msg)
		} else {
			fmt.Printf("    ⚠️ WARNING: %s\n", msg)
		}
	} else {
		fmt.Printf("    ✅ %s Valid\n", label)
	}
}
