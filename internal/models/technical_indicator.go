package models

import (
	"math"
	"strconv"
)

// Direction is the momentum direction read from one timeframe.
type Direction string

const (
	DirectionBullish     Direction = "Bullish"
	DirectionBearish     Direction = "Bearish"
	DirectionFlat        Direction = "Flat"
	DirectionUnavailable Direction = "Unavailable"
)

// TimeframeLabel is the classified reading of one timeframe. Reading is the
// rounded signal-line value and is nil whenever that value is undefined.
type TimeframeLabel struct {
	Direction Direction `json:"direction"`
	Reading   *int      `json:"reading"`
}

// NewTimeframeLabel builds a label with a reading taken from the signal line's last value.
func NewTimeframeLabel(direction Direction, signal float64) TimeframeLabel {
	if direction == DirectionUnavailable || math.IsNaN(signal) || math.IsInf(signal, 0) {
		return UnavailableLabel()
	}
	reading := int(math.Round(signal))
	return TimeframeLabel{Direction: direction, Reading: &reading}
}

// UnavailableLabel is the label for a timeframe without usable data.
func UnavailableLabel() TimeframeLabel {
	return TimeframeLabel{Direction: DirectionUnavailable}
}

// Available reports whether the label carries a direction.
func (l TimeframeLabel) Available() bool {
	return l.Direction != DirectionUnavailable && l.Direction != ""
}

// ReadingText renders the reading, or "N/A" when absent.
func (l TimeframeLabel) ReadingText() string {
	if l.Reading == nil {
		return "N/A"
	}
	return strconv.Itoa(*l.Reading)
}

// DirectionText renders the direction, or "N/A" when unavailable.
func (l TimeframeLabel) DirectionText() string {
	if !l.Available() {
		return "N/A"
	}
	return string(l.Direction)
}

// Signal is the composite signal across all timeframes of a symbol.
type Signal string

const (
	SignalLong    Signal = "Long"
	SignalShort   Signal = "Short"
	SignalNeutral Signal = "Neutral"
)

// Category is the display emphasis derived from a direction or a signal.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
	CategoryNone     Category = "none"
)

// CategoryForDirection maps Bullish, Bearish and Flat to their emphasis.
func CategoryForDirection(d Direction) Category {
	switch d {
	case DirectionBullish:
		return CategoryPositive
	case DirectionBearish:
		return CategoryNegative
	case DirectionFlat:
		return CategoryNeutral
	default:
		return CategoryNone
	}
}

// CategoryForSignal maps Long, Short and Neutral to their emphasis.
func CategoryForSignal(s Signal) Category {
	switch s {
	case SignalLong:
		return CategoryPositive
	case SignalShort:
		return CategoryNegative
	case SignalNeutral:
		return CategoryNeutral
	default:
		return CategoryNone
	}
}
