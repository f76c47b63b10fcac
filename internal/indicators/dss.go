// Package indicators implements the DSS Bressert oscillator and the
// NaN-aware rolling and smoothing primitives it is built from.
package indicators

import (
	"math"
)

// DSSParams configures the double-smoothed stochastic.
type DSSParams struct {
	Lookback     int `json:"lookback"`
	SmoothingLen int `json:"smoothing_len"`
	TriggerLen   int `json:"trigger_len"`
}

// DefaultDSSParams returns lookback 10, smoothing 9 and trigger 5.
func DefaultDSSParams() DSSParams {
	return DSSParams{Lookback: 10, SmoothingLen: 9, TriggerLen: 5}
}

// DSSResult holds the signal and trigger lines, index-aligned with the input.
type DSSResult struct {
	Signal  []float64 `json:"signal"`
	Trigger []float64 `json:"trigger"`
}

// Len returns the length of both lines.
func (r DSSResult) Len() int {
	return len(r.Signal)
}

// Last returns the current signal and trigger values, NaN for empty lines.
func (r DSSResult) Last() (signal, trigger float64) {
	return last(r.Signal), last(r.Trigger)
}

// ComputeDSS runs the DSS Bressert over a price series:
//
//	stoch1  = stochastic(close, high, low, lookback)
//	smooth1 = ewma(stoch1, smoothingLen)
//	stoch2  = stochastic(smooth1, smooth1, smooth1, lookback)
//	signal  = ewma(stoch2, smoothingLen)
//	trigger = ewma(signal, triggerLen)
//
// Undefined values are returned as NaN. The three input slices must have equal length.
func ComputeDSS(highs, lows, closes []float64, params DSSParams) DSSResult {
	stoch1 := Stochastic(closes, highs, lows, params.Lookback)
	smoothed := EWMA(stoch1, params.SmoothingLen)
	stoch2 := Stochastic(smoothed, smoothed, smoothed, params.Lookback)
	signal := EWMA(stoch2, params.SmoothingLen)
	trigger := EWMA(signal, params.TriggerLen)

	return DSSResult{Signal: signal, Trigger: trigger}
}

// Stochastic computes 100*(close-LL)/(HH-LL) where HH and LL are the rolling
// highest high and lowest low over period. A zero range yields NaN.
func Stochastic(closes, highs, lows []float64, period int) []float64 {
	n := len(closes)
	highest := RollingMax(highs, period)
	lowest := RollingMin(lows, period)

	out := make([]float64, n)
	for i := range out {
		if i >= len(highest) || i >= len(lowest) {
			out[i] = math.NaN()
			continue
		}
		span := highest[i] - lowest[i]
		if span == 0 || math.IsNaN(span) || math.IsNaN(closes[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = 100 * (closes[i] - lowest[i]) / span
	}
	return out
}

// EWMA is an exponential moving average with alpha = 2/(span+1), seeded by the
// first defined value. Leading NaNs stay NaN. A NaN after the seed keeps the
// previous average while the previous weight keeps decaying across the gap.
func EWMA(values []float64, span int) []float64 {
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1 - alpha

	out := make([]float64, len(values))
	avg := math.NaN()
	oldWeight := 1.0

	for i, v := range values {
		observed := !math.IsNaN(v)
		switch {
		case math.IsNaN(avg):
			if observed {
				avg = v
				oldWeight = 1
			}
		default:
			oldWeight *= decay
			if observed {
				if avg != v {
					avg = (oldWeight*avg + alpha*v) / (oldWeight + alpha)
				}
				oldWeight = 1
			}
		}
		out[i] = avg
	}
	return out
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
