package valuation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises one multiple across a comparable set.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// IsEmpty reports the all-zero record returned when no comparable had a meaningful multiple.
func (s Stats) IsEmpty() bool {
	return s.Max <= 0
}

// SummaryStatistics holds Stats per multiple.
type SummaryStatistics map[MultipleName]Stats

// Summarize computes Stats over the positive entries of values.
//
// Entries <= 0 (negative earnings, missing denominators) and NaNs are dropped first.
// With nothing left the zero Stats is returned. Percentiles use linear interpolation
// between closest ranks:
//
//	h = (n-1)p,  q = x[floor(h)] + (h - floor(h)) * (x[floor(h)+1] - x[floor(h)])
func Summarize(values []float64) Stats {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Stats{}
	}
	sort.Float64s(valid)

	return Stats{
		Mean:   stat.Mean(valid, nil),
		Median: Percentile(valid, 0.50),
		P25:    Percentile(valid, 0.25),
		P75:    Percentile(valid, 0.75),
		Min:    floats.Min(valid),
		Max:    floats.Max(valid),
		Count:  len(valid),
	}
}

// Percentile returns the p-quantile (0 <= p <= 1) of sorted using linear interpolation.
// sorted must be in ascending order; an empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// SummarizeSets computes Stats for every multiple in AllMultiples across sets.
func SummarizeSets(sets []MultipleSet) SummaryStatistics {
	out := make(SummaryStatistics, len(AllMultiples))
	for _, m := range AllMultiples {
		values := make([]float64, 0, len(sets))
		for _, s := range sets {
			values = append(values, s[m])
		}
		out[m] = Summarize(values)
	}
	return out
}
