package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a historical closing price for one symbol on one day
type PriceQuote struct {
	Symbol  string
	Date    time.Time
	Price   decimal.Decimal
	Quality float64 // 0..1, provider's confidence in the close
}

// PriceKey returns the "SYMBOL:2006-01-02" key used by bulk lookups
func PriceKey(symbol string, day time.Time) string {
	return symbol + ":" + FormatDay(day)
}

// PriceTier records where a valuation price came from
type PriceTier string

const (
	TierExact         PriceTier = "exact"
	TierForwardFilled PriceTier = "forward_filled"
	TierLiveFallback  PriceTier = "live_fallback"
	TierMissing       PriceTier = "missing"
)

// PriceStats counts price lookups per tier
type PriceStats struct {
	Exact         int `json:"exact"`
	ForwardFilled int `json:"forward_filled"`
	LiveFallback  int `json:"live_fallback"`
	Missing       int `json:"missing"`
}

// Record counts one lookup
func (s *PriceStats) Record(tier PriceTier) {
	switch tier {
	case TierExact:
		s.Exact++
	case TierForwardFilled:
		s.ForwardFilled++
	case TierLiveFallback:
		s.LiveFallback++
	default:
		s.Missing++
	}
}

// Add accumulates other into s
func (s *PriceStats) Add(other PriceStats) {
	s.Exact += other.Exact
	s.ForwardFilled += other.ForwardFilled
	s.LiveFallback += other.LiveFallback
	s.Missing += other.Missing
}

// Total returns the number of lookups counted
func (s PriceStats) Total() int {
	return s.Exact + s.ForwardFilled + s.LiveFallback + s.Missing
}
