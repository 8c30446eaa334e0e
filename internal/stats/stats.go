// Package stats holds the numeric helpers shared by the cleaning and insight
// stages: quantiles, the IQR outlier fence and column summaries.
package stats

import (
	"fmt"
	"math"
	"slices"

	"dqpipe/internal/table"

	"gonum.org/v1/gonum/stat"
)

// Method selects how a quantile falling between two order statistics is
// resolved. The names follow the usual dataframe/array conventions.
type Method string

const (
	Linear   Method = "linear"
	Lower    Method = "lower"
	Higher   Method = "higher"
	Nearest  Method = "nearest"
	Midpoint Method = "midpoint"
)

// ParseMethod validates a method name. The empty string means Linear.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case "":
		return Linear, nil
	case Linear, Lower, Higher, Nearest, Midpoint:
		return m, nil
	default:
		return "", fmt.Errorf("stats: unknown quantile method %q", s)
	}
}

// Quantile returns the q-th quantile (0 <= q <= 1) of x. x is not modified.
// An empty input yields 0.
func Quantile(x []float64, q float64, m Method) float64 {
	if len(x) == 0 {
		return 0
	}
	cp := slices.Clone(x)
	slices.Sort(cp)
	return quantileSorted(cp, q, m)
}

func quantileSorted(s []float64, q float64, m Method) float64 {
	n := len(s)
	switch {
	case q <= 0:
		return s[0]
	case q >= 1:
		return s[n-1]
	}
	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	hi := min(lo+1, n-1)
	frac := rank - float64(lo)
	switch m {
	case Lower:
		return s[lo]
	case Higher:
		if frac == 0 {
			return s[lo]
		}
		return s[hi]
	case Nearest:
		// Round half to even on the rank, as array libraries do.
		return s[int(math.RoundToEven(rank))]
	case Midpoint:
		if frac == 0 {
			return s[lo]
		}
		return (s[lo] + s[hi]) / 2
	default:
		return s[lo] + (s[hi]-s[lo])*frac
	}
}

// Fence is the IQR outlier interval of one numeric series.
type Fence struct {
	Q1, Q3, IQR  float64
	Lower, Upper float64
	// Degenerate is set for empty series and zero IQR; nothing is an outlier.
	Degenerate bool
}

// NewFence computes [Q1 − 1.5·IQR, Q3 + 1.5·IQR] over x.
func NewFence(x []float64, m Method) Fence {
	if len(x) == 0 {
		return Fence{Degenerate: true}
	}
	s := slices.Clone(x)
	slices.Sort(s)
	q1 := quantileSorted(s, 0.25, m)
	q3 := quantileSorted(s, 0.75, m)
	iqr := q3 - q1
	return Fence{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Lower:      q1 - 1.5*iqr,
		Upper:      q3 + 1.5*iqr,
		Degenerate: iqr == 0,
	}
}

// Outside reports whether v is an outlier under f.
func (f Fence) Outside(v float64) bool {
	if f.Degenerate {
		return false
	}
	return v < f.Lower || v > f.Upper
}

// OutlierMask flags every cell of a numeric column outside its IQR fence.
// Missing cells are never flagged. Non-numeric columns yield an all-false mask.
func OutlierMask(col table.Column, m Method) []bool {
	mask := make([]bool, col.Len())
	if !col.IsNumeric() {
		return mask
	}
	f := NewFence(col.Numbers(), m)
	if f.Degenerate {
		return mask
	}
	for i := range mask {
		if v, ok := col.At(i).AsNumber(); ok {
			mask[i] = f.Outside(v)
		}
	}
	return mask
}

// OutlierCount returns the number of flagged cells in OutlierMask.
func OutlierCount(col table.Column, m Method) int {
	n := 0
	for _, b := range OutlierMask(col, m) {
		if b {
			n++
		}
	}
	return n
}

// Summary is the numeric part of a column description.
type Summary struct {
	Count                    int
	Mean, Std                float64
	Min, Q1, Median, Q3, Max float64
}

// Summarize describes the non-missing values of x. Std is the sample
// standard deviation and is NaN for fewer than two values. An empty input
// yields a zero Summary with NaN statistics.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	}
	s := slices.Clone(x)
	slices.Sort(s)
	std := math.NaN()
	if len(s) > 1 {
		std = stat.StdDev(s, nil)
	}
	return Summary{
		Count:  len(s),
		Mean:   stat.Mean(s, nil),
		Std:    std,
		Min:    s[0],
		Q1:     quantileSorted(s, 0.25, Linear),
		Median: quantileSorted(s, 0.5, Linear),
		Q3:     quantileSorted(s, 0.75, Linear),
		Max:    s[len(s)-1],
	}
}

// Mean returns the arithmetic mean of x, or 0 for an empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}
