package assumption

import (
	"dcfengine/pkg/core/statement"
)

// Fallbacks when history is too thin to estimate from.
const (
	fallbackGrossMargin = 0.5
	fallbackSGAPercent  = 0.4

	// Estimated gross margins are clamped into a plausible band so a single
	// distorted year cannot push projections into nonsense territory.
	minGrossMargin = 0.1
	maxGrossMargin = 0.9
)

// OperatingDrivers are the resolved inputs the projection engine runs on.
type OperatingDrivers struct {
	RevenueGrowth float64
	GrossMargin   float64
	SGAPercent    float64
	TaxRate       float64
}

// ResolveOperating fills the operating drivers, estimating from the
// historical income statement wherever the caller left an assumption nil.
func (a *Assumptions) ResolveOperating(income *statement.Statement) OperatingDrivers {
	d := OperatingDrivers{TaxRate: a.TaxRate}

	if a.RevenueGrowth != nil {
		d.RevenueGrowth = *a.RevenueGrowth
	} else {
		d.RevenueGrowth = AverageGrowthRate(income.Series(statement.Revenue))
	}

	if a.GrossMargin != nil {
		d.GrossMargin = *a.GrossMargin
	} else {
		d.GrossMargin = AverageGrossMargin(
			income.Series(statement.Revenue),
			income.Series(statement.COGS),
		)
	}

	if a.SGAPercent != nil {
		d.SGAPercent = *a.SGAPercent
	} else {
		d.SGAPercent = AverageSGARatio(
			income.Series(statement.Revenue),
			income.Series(statement.SGA),
		)
	}

	return d
}

// AverageGrowthRate returns the mean year-over-year growth of a series.
//
// FORMULA: g_i = (v_i - v_{i-1}) / |v_{i-1}|
//
// Pairs with a zero predecessor are skipped. Fewer than two values, or no
// usable pair, yields 0.
func AverageGrowthRate(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	var n int
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		sum += (values[i] - prev) / abs(prev)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageGrossMargin returns the mean gross margin across years where both
// revenue and COGS are non-zero, clamped into the plausible band.
//
// FORMULA: margin_i = (Revenue_i + COGS_i) / Revenue_i   (COGS stored negative)
func AverageGrossMargin(revenue, cogs []float64) float64 {
	var sum float64
	var n int
	for i := range revenue {
		if i >= len(cogs) {
			break
		}
		if revenue[i] == 0 || cogs[i] == 0 {
			continue
		}
		sum += (revenue[i] + cogs[i]) / revenue[i]
		n++
	}
	if n == 0 {
		return fallbackGrossMargin
	}
	return clamp(sum/float64(n), minGrossMargin, maxGrossMargin)
}

// AverageSGARatio returns the mean of |SG&A| / Revenue across years with
// non-zero revenue.
func AverageSGARatio(revenue, sga []float64) float64 {
	var sum float64
	var n int
	for i := range revenue {
		if i >= len(sga) {
			break
		}
		if revenue[i] == 0 {
			continue
		}
		sum += abs(sga[i]) / revenue[i]
		n++
	}
	if n == 0 {
		return fallbackSGAPercent
	}
	return sum / float64(n)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
