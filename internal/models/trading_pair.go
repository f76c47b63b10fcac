package models

import (
	"strings"
	"time"
)

// Timeframe maps a display label (e.g. "1W") to the provider's timeframe code (e.g. "1w").
type Timeframe struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// UniverseEntry is a tradable pair with its position in the source ranking.
// RankIndex is assigned once when the universe is built.
type UniverseEntry struct {
	Symbol    string `json:"symbol"`
	Pair      string `json:"pair"`
	RankIndex int    `json:"rank_index"`
}

// Universe is the ordered set of pairs to scan.
type Universe []UniverseEntry

// Pairs returns the pair ids in rank order.
func (u Universe) Pairs() []string {
	pairs := make([]string, len(u))
	for i, e := range u {
		pairs[i] = e.Pair
	}
	return pairs
}

// PairID builds the exchange pair identifier for a base symbol and quote currency.
func PairID(symbol, quote string) string {
	return strings.ToUpper(symbol) + "/" + strings.ToUpper(quote)
}

// SymbolRow is the scan outcome for one pair.
type SymbolRow struct {
	Symbol    string                    `json:"symbol"`
	Pair      string                    `json:"pair"`
	RankIndex int                       `json:"rank_index"`
	Labels    map[string]TimeframeLabel `json:"labels"`
	Signal    Signal                    `json:"signal"`
}

// Label returns the label for a timeframe, Unavailable when it is missing.
func (r SymbolRow) Label(timeframe string) TimeframeLabel {
	if l, ok := r.Labels[timeframe]; ok {
		return l
	}
	return UnavailableLabel()
}

// ScanResult is one complete run over the universe, rows in rank order.
type ScanResult struct {
	RunID      string      `json:"run_id"`
	Exchange   string      `json:"exchange"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Timeframes []Timeframe `json:"timeframes"`
	Rows       []SymbolRow `json:"rows"`
}

// SignalCounts tallies rows per composite signal.
func (r *ScanResult) SignalCounts() map[Signal]int {
	counts := map[Signal]int{SignalLong: 0, SignalShort: 0, SignalNeutral: 0}
	if r == nil {
		return counts
	}
	for _, row := range r.Rows {
		counts[row.Signal]++
	}
	return counts
}
