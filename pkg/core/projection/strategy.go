// Package projection turns operating drivers (revenue growth and margins) into the
// per-year cash flow lines a DCF or LBO consumes.
//
// Each line item is projected by a Strategy, so revenue compounds with growth while the
// cost and investment lines follow revenue as a percentage.
package projection

import (
	"errors"
	"fmt"
)

// ErrInvalidDrivers is returned when the drivers cannot produce a projection.
var ErrInvalidDrivers = errors.New("invalid projection drivers")

// =============================================================================
// STRATEGIES
// =============================================================================

// Context is what a strategy sees for one projection year.
type Context struct {
	Index         int     // 0-based projection year
	LastYearValue float64 // Previous year's value of this line
	Revenue       float64 // Same-year revenue
}

// Strategy projects one line item.
type Strategy interface {
	Name() string
	Calculate(ctx Context) (float64, error)
}

// GrowthStrategy compounds the previous year's value. The first year is Base; Rates[i]
// applies from year i to year i+1 and the last rate repeats.
type GrowthStrategy struct {
	Base  float64
	Rates []float64
}

func (s *GrowthStrategy) Name() string { return "GrowthRate" }

func (s *GrowthStrategy) Calculate(ctx Context) (float64, error) {
	if ctx.Index == 0 {
		return s.Base, nil
	}
	if len(s.Rates) == 0 {
		return 0, fmt.Errorf("%w: no growth rates for year %d", ErrInvalidDrivers, ctx.Index+1)
	}
	i := ctx.Index - 1
	if i >= len(s.Rates) {
		i = len(s.Rates) - 1
	}
	return ctx.LastYearValue * (1 + s.Rates[i]), nil
}

// MarginStrategy is a fixed percentage of same-year revenue.
type MarginStrategy struct {
	Margin float64
}

func (s *MarginStrategy) Name() string { return "PercentOfRevenue" }

func (s *MarginStrategy) Calculate(ctx Context) (float64, error) {
	return ctx.Revenue * s.Margin, nil
}
