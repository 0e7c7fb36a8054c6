// Package assumption defines the model run assumptions, their defaults, and
// the estimators that fill operating drivers from history when the caller
// leaves them blank.
package assumption

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Assumptions carries every knob for a model run.
//
// The three operating drivers are pointers: nil means "estimate from the
// historical income statement". Valuation inputs and modeling constants are
// plain values pre-filled by Defaults, so a JSON payload only overrides what
// it names.
type Assumptions struct {
	// Operating drivers
	RevenueGrowth *float64 `json:"revenue_growth" validate:"omitempty,gte=-1,lte=10"`
	GrossMargin   *float64 `json:"gross_margin" validate:"omitempty,gte=0,lte=1"`
	SGAPercent    *float64 `json:"sga_percent" validate:"omitempty,gte=0,lte=1"`

	// Valuation inputs
	TaxRate            float64  `json:"tax_rate" validate:"gte=0,lte=1"`
	ProjectionYears    int      `json:"projection_years" validate:"gte=1,lte=30"`
	RiskFreeRate       float64  `json:"risk_free_rate" validate:"gte=-0.05,lte=0.5"`
	Beta               float64  `json:"beta" validate:"gte=-5,lte=10"`
	MarketRiskPremium  float64  `json:"market_risk_premium" validate:"gte=0,lte=0.5"`
	CostOfDebt         float64  `json:"cost_of_debt" validate:"gte=0,lte=1"`
	DebtToEquity       float64  `json:"debt_to_equity" validate:"gte=0"`
	TerminalGrowthRate float64  `json:"terminal_growth_rate" validate:"gte=-0.1,lte=0.2"`
	SharesOutstanding  *float64 `json:"shares_outstanding" validate:"omitempty,gt=0"`

	// Modeling constants
	CapexPercent           float64 `json:"capex_percent" validate:"gte=0,lte=1"`
	DefaultInterestExpense float64 `json:"default_interest_expense" validate:"lte=0"`
}

// Defaults returns the assumption set used when the caller specifies nothing.
func Defaults() Assumptions {
	return Assumptions{
		TaxRate:                0.25,
		ProjectionYears:        5,
		RiskFreeRate:           0.03,
		Beta:                   1.0,
		MarketRiskPremium:      0.06,
		CostOfDebt:             0.05,
		DebtToEquity:           0.3,
		TerminalGrowthRate:     0.03,
		CapexPercent:           0.04,
		DefaultInterestExpense: -10.0,
	}
}

var validate = validator.New()

// Validate checks the assumption ranges via struct tags.
func (a *Assumptions) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid assumptions: %w", err)
	}
	return nil
}

// rawAssumptions mirrors Assumptions with loose typing for the operating
// drivers. Frontends send these as numbers, numeric strings, or the literal
// strings "null"/"None" for "estimate it".
type rawAssumptions struct {
	RevenueGrowth     interface{} `json:"revenue_growth"`
	GrossMargin       interface{} `json:"gross_margin"`
	SGAPercent        interface{} `json:"sga_percent"`
	SharesOutstanding interface{} `json:"shares_outstanding"`

	TaxRate            *float64 `json:"tax_rate"`
	ProjectionYears    *int     `json:"projection_years"`
	RiskFreeRate       *float64 `json:"risk_free_rate"`
	Beta               *float64 `json:"beta"`
	MarketRiskPremium  *float64 `json:"market_risk_premium"`
	CostOfDebt         *float64 `json:"cost_of_debt"`
	DebtToEquity       *float64 `json:"debt_to_equity"`
	TerminalGrowthRate *float64 `json:"terminal_growth_rate"`

	CapexPercent           *float64 `json:"capex_percent"`
	DefaultInterestExpense *float64 `json:"default_interest_expense"`
}

// Parse decodes an assumptions JSON payload on top of the defaults and
// validates the result. Absent keys keep their default values, and the
// operating drivers tolerate "null"/"None" strings.
func Parse(data []byte) (Assumptions, error) {
	a := Defaults()
	if len(data) == 0 {
		return a, nil
	}

	var raw rawAssumptions
	if err := json.Unmarshal(data, &raw); err != nil {
		return a, fmt.Errorf("failed to decode assumptions: %w", err)
	}

	a.RevenueGrowth = coerceOptional(raw.RevenueGrowth)
	a.GrossMargin = coerceOptional(raw.GrossMargin)
	a.SGAPercent = coerceOptional(raw.SGAPercent)
	a.SharesOutstanding = coerceOptional(raw.SharesOutstanding)

	setIf(&a.TaxRate, raw.TaxRate)
	setIfInt(&a.ProjectionYears, raw.ProjectionYears)
	setIf(&a.RiskFreeRate, raw.RiskFreeRate)
	setIf(&a.Beta, raw.Beta)
	setIf(&a.MarketRiskPremium, raw.MarketRiskPremium)
	setIf(&a.CostOfDebt, raw.CostOfDebt)
	setIf(&a.DebtToEquity, raw.DebtToEquity)
	setIf(&a.TerminalGrowthRate, raw.TerminalGrowthRate)
	setIf(&a.CapexPercent, raw.CapexPercent)
	setIf(&a.DefaultInterestExpense, raw.DefaultInterestExpense)

	if err := a.Validate(); err != nil {
		return a, err
	}
	return a, nil
}

// coerceOptional converts a loosely typed optional value to *float64.
// nil, "null", "None", "" and unparseable strings all mean "not provided".
func coerceOptional(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

func setIf(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setIfInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
