package models

import (
	"time"
)

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ascending window of candles for one pair and timeframe.
// It is not modified after the fetch that produced it.
type PriceSeries struct {
	Pair      string   `json:"pair"`
	Timeframe string   `json:"timeframe"`
	Candles   []Candle `json:"candles"`
}

// Len returns the number of candles.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// Highs returns the high column.
func (s *PriceSeries) Highs() []float64 {
	return s.column(func(c Candle) float64 { return c.High })
}

// Lows returns the low column.
func (s *PriceSeries) Lows() []float64 {
	return s.column(func(c Candle) float64 { return c.Low })
}

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	return s.column(func(c Candle) float64 { return c.Close })
}

func (s *PriceSeries) column(pick func(Candle) float64) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = pick(s.Candles[i])
	}
	return out
}

// RankedAsset is one entry of the market-cap ranking.
type RankedAsset struct {
	Symbol string `json:"symbol"`
	Rank   int    `json:"rank"`
}
