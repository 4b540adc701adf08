package valuation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

const (
	// ForwardFillDecay scales the quality of the quote being carried forward
	ForwardFillDecay = 0.75
	// LiveFallbackQuality is the quality given to a current price standing in for a historical one
	LiveFallbackQuality = 0.5
)

// Price is a resolved valuation price
type Price struct {
	Value   decimal.Decimal
	Quality float64
	Tier    domain.PriceTier
}

// PriceSource resolves the price of a symbol on a day
type PriceSource interface {
	PriceAt(ctx context.Context, symbol string, day time.Time) (Price, error)
}

// PriceBook is an in-memory price cache filled by one bulk fetch.
// Lookups try an exact close, then the most recent earlier close, then the live price.
type PriceBook struct {
	series map[string][]domain.PriceQuote // per symbol, ascending date
	live   domain.LivePriceProvider
	quotes map[string]decimal.Decimal // live prices already fetched
	stats  domain.PriceStats
	log    zerolog.Logger
}

// NewPriceBook indexes quotes (keyed or not, any order) for lookups
func NewPriceBook(quotes map[string]domain.PriceQuote, live domain.LivePriceProvider, log zerolog.Logger) *PriceBook {
	b := &PriceBook{
		series: make(map[string][]domain.PriceQuote),
		live:   live,
		quotes: make(map[string]decimal.Decimal),
		log:    log,
	}
	b.add(quotes)
	return b
}

// add indexes more quotes into the book
func (b *PriceBook) add(quotes map[string]domain.PriceQuote) {
	touched := make(map[string]bool)
	for _, q := range quotes {
		q.Date = domain.Day(q.Date)
		b.series[q.Symbol] = append(b.series[q.Symbol], q)
		touched[q.Symbol] = true
	}
	for symbol := range touched {
		s := b.series[symbol]
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}
}

// PrefetchPriceBook fetches closes for symbols over [start, end] in one call and wraps them in a PriceBook
func PrefetchPriceBook(ctx context.Context, repo domain.PriceRepository, live domain.LivePriceProvider, symbols []string, start, end time.Time, log zerolog.Logger) (*PriceBook, error) {
	quotes := map[string]domain.PriceQuote{}
	if len(symbols) > 0 {
		var err error
		quotes, err = repo.GetPrices(ctx, symbols, domain.Day(start), domain.Day(end))
		if err != nil {
			return nil, fmt.Errorf("failed to prefetch prices: %w", err)
		}
	}

	log.Debug().
		Int("symbols", len(symbols)).
		Int("quotes", len(quotes)).
		Str("start", domain.FormatDay(start)).
		Str("end", domain.FormatDay(end)).
		Msg("Prices prefetched")

	return NewPriceBook(quotes, live, log), nil
}

// Stats returns lookup counts per tier since the book was created
func (b *PriceBook) Stats() domain.PriceStats { return b.stats }

// PriceAt resolves symbol on day. Only a failing live provider returns an error;
// a symbol with no price anywhere resolves to the missing tier.
func (b *PriceBook) PriceAt(ctx context.Context, symbol string, day time.Time) (Price, error) {
	price, err := b.resolve(ctx, symbol, domain.Day(day))
	if err != nil {
		return Price{}, err
	}
	b.stats.Record(price.Tier)
	return price, nil
}

func (b *PriceBook) resolve(ctx context.Context, symbol string, day time.Time) (Price, error) {
	s := b.series[symbol]

	// First quote dated after day
	i := sort.Search(len(s), func(i int) bool { return s[i].Date.After(day) })
	if i > 0 {
		q := s[i-1]
		if q.Date.Equal(day) {
			return Price{Value: q.Price, Quality: clampQuality(q.Quality), Tier: domain.TierExact}, nil
		}
		return Price{Value: q.Price, Quality: clampQuality(q.Quality) * ForwardFillDecay, Tier: domain.TierForwardFilled}, nil
	}

	// Never seen a close on or before day
	return b.livePrice(ctx, symbol)
}

func (b *PriceBook) livePrice(ctx context.Context, symbol string) (Price, error) {
	if value, ok := b.quotes[symbol]; ok {
		return Price{Value: value, Quality: LiveFallbackQuality, Tier: domain.TierLiveFallback}, nil
	}
	if b.live == nil {
		return Price{Tier: domain.TierMissing}, nil
	}

	value, err := b.live.CurrentPrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.log.Warn().Str("symbol", symbol).Msg("No historical or live price")
			return Price{Tier: domain.TierMissing}, nil
		}
		return Price{}, fmt.Errorf("live price for %s: %w", symbol, err)
	}

	b.quotes[symbol] = value
	return Price{Value: value, Quality: LiveFallbackQuality, Tier: domain.TierLiveFallback}, nil
}

func clampQuality(q float64) float64 {
	switch {
	case q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}
