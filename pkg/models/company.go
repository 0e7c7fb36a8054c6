package models

// RawStatement holds statement data as it arrives from callers:
// fiscal year label -> line item -> value. Values are untyped because
// upstream sources emit numbers, numeric strings, or nulls interchangeably.
type RawStatement map[string]map[string]interface{}

// CompanyData is the input contract for a model run. Statements are optional
// except the income statement, which the engine requires.
type CompanyData struct {
	CompanyName       string       `json:"company_name"`
	Ticker            string       `json:"ticker,omitempty"`
	SharesOutstanding *float64     `json:"shares_outstanding,omitempty"`
	IncomeStatement   RawStatement `json:"income_statement"`
	BalanceSheet      RawStatement `json:"balance_sheet"`
	CashFlow          RawStatement `json:"cash_flow"`
}

// StatementTable is a finished statement: year label -> line item -> value.
// Historical rows keep their input labels; projected rows use plain years.
type StatementTable map[string]map[string]float64

// OperatingModel is the combined historical + projected three-statement model.
type OperatingModel struct {
	IncomeStatement StatementTable `json:"income_statement"`
	BalanceSheet    StatementTable `json:"balance_sheet"`
	CashFlow        StatementTable `json:"cash_flow"`
	LatestYear      int            `json:"latest_year"`
	ProjectionYears int            `json:"projection_years"`
}

// DCFAssumptions echoes the valuation inputs actually used, so downstream
// consumers (exports, reports) never re-derive them.
type DCFAssumptions struct {
	RiskFreeRate       float64 `json:"risk_free_rate"`
	Beta               float64 `json:"beta"`
	MarketRiskPremium  float64 `json:"market_risk_premium"`
	CostOfDebt         float64 `json:"cost_of_debt"`
	TaxRate            float64 `json:"tax_rate"`
	DebtToEquity       float64 `json:"debt_to_equity"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
}

// DCFResults is the valuation output contract.
// FreeCashFlows and PresentValueFCF are keyed by projected fiscal year.
type DCFResults struct {
	WACC                 float64         `json:"wacc"`
	FreeCashFlows        map[int]float64 `json:"free_cash_flows"`
	TerminalValue        float64         `json:"terminal_value"`
	PresentValueFCF      map[int]float64 `json:"present_value_fcf"`
	PresentValueTerminal float64         `json:"present_value_terminal"`
	TotalPVFCF           float64         `json:"total_pv_fcf"`
	EnterpriseValue      float64         `json:"enterprise_value"`
	EquityValue          float64         `json:"equity_value"`
	PricePerShare        *float64        `json:"price_per_share"`
	Assumptions          DCFAssumptions  `json:"assumptions"`
}

// ModelOutput is the full result of one pipeline run.
type ModelOutput struct {
	CompanyName    string          `json:"company_name"`
	OperatingModel *OperatingModel `json:"operating_model"`
	DCFResults     *DCFResults     `json:"dcf_results"`
}
