package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

type windowIndicator interface {
	Compute(c <-chan float64) <-chan float64
}

// RollingMax returns the highest value of each trailing window of period values.
// Indexes without a full window of defined values are NaN.
func RollingMax(values []float64, period int) []float64 {
	return rolling(values, period, trend.NewMovingMaxWithPeriod[float64](max(period, 1)), math.Max)
}

// RollingMin returns the lowest value of each trailing window of period values.
// Indexes without a full window of defined values are NaN.
func RollingMin(values []float64, period int) []float64 {
	return rolling(values, period, trend.NewMovingMinWithPeriod[float64](max(period, 1)), math.Min)
}

func rolling(values []float64, period int, window windowIndicator, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(values))
	if period < 1 {
		return out
	}

	start := leadingNaN(values)
	tail := values[start:]
	if len(tail) < period {
		return out
	}

	// cinar's moving windows expect finite input; gaps inside the tail take the slow path.
	if !allFinite(tail) {
		for i := start + period - 1; i < len(values); i++ {
			out[i] = extreme(values[i-period+1:i+1], pick)
		}
		return out
	}

	computed := helper.ChanToSlice(window.Compute(helper.SliceToChan(tail)))
	if full := len(tail) - period + 1; len(computed) > full {
		computed = computed[len(computed)-full:]
	}
	copy(out[len(values)-len(computed):], computed)
	return out
}

func extreme(window []float64, pick func(a, b float64) float64) float64 {
	result := window[0]
	for _, v := range window {
		if math.IsNaN(v) {
			return math.NaN()
		}
		result = pick(result, v)
	}
	return result
}

func leadingNaN(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
