package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (N-1 denominator) of a
// slice of float64 values. A slice with fewer than two values has no sample
// deviation and yields 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// CalculateReturns converts prices to simple periodic percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Percentile calculates the pct-th percentile (0-100) of data using linear
// interpolation between bracketing order statistics: the value at fractional
// rank pct/100 * (N-1) in the sorted slice. Historical VaR has no universally
// agreed percentile rule, so this one is fixed for reproducibility.
//
// The input slice is not modified.
func Percentile(data []float64, pct float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if len(data) == 1 {
		return data[0]
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	frac := rank - float64(lo)
	if frac == 0 || hi >= len(sorted) {
		return sorted[lo]
	}

	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ZScore returns the one-tailed z-score for the given confidence level,
// i.e. the standard normal quantile at confidence (0.95 -> ~1.645,
// 0.99 -> ~2.326).
func ZScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(confidence)
}
