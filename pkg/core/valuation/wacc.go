package valuation

// WACCInput parameters for calculating Cost of Capital
type WACCInput struct {
	Beta              float64
	RiskFreeRate      float64
	MarketRiskPremium float64
	PreTaxCostOfDebt  float64
	TaxRate           float64
	DebtToEquityRatio float64 // Target Leverage (D/E)
}

// WACCResult holds the calculated rates
type WACCResult struct {
	CostOfEquity float64
	CostOfDebt   float64 // After-tax
	WACC         float64
	WeightDebt   float64
	WeightEquity float64
}

// CalculateWACC computes the Weighted Average Cost of Capital using CAPM.
// Beta is taken as supplied rather than re-levered to the target structure.
func CalculateWACC(input WACCInput) WACCResult {
	// 1. Cost of Equity (CAPM)
	// Ke = Rf + Beta * ERP
	ke := input.RiskFreeRate + input.Beta*input.MarketRiskPremium

	// 2. Cost of Debt (After-tax)
	// Kd = PreTaxKd * (1 - t)
	kd := input.PreTaxCostOfDebt * (1 - input.TaxRate)

	// 3. Weights
	// D/E = x -> D = xE
	// V = D + E = xE + E = E(1+x)
	// Wd = D/V = x / (1+x)
	// We = E/V = 1 / (1+x)
	wd := input.DebtToEquityRatio / (1 + input.DebtToEquityRatio)
	we := 1.0 / (1 + input.DebtToEquityRatio)

	// 4. WACC
	wacc := (ke * we) + (kd * wd)

	return WACCResult{
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WACC:         wacc,
		WeightDebt:   wd,
		WeightEquity: we,
	}
}
