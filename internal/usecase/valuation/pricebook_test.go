package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func quote(symbol string, d int, price int64) domain.PriceQuote {
	return domain.PriceQuote{Symbol: symbol, Date: day(d), Price: decimal.NewFromInt(price), Quality: 1}
}

func quotes(list ...domain.PriceQuote) map[string]domain.PriceQuote {
	m := make(map[string]domain.PriceQuote, len(list))
	for _, q := range list {
		m[domain.PriceKey(q.Symbol, q.Date)] = q
	}
	return m
}

// MockLivePriceProvider is a mock implementation of LivePriceProvider for testing
type MockLivePriceProvider struct {
	mock.Mock
}

func (m *MockLivePriceProvider) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestPriceBook_ForwardFillUsesMostRecentPriorClose(t *testing.T) {
	ctx := context.Background()
	book := NewPriceBook(quotes(
		quote("AAPL", 1, 100),
		quote("AAPL", 2, 110),
		// gap on 3rd and 4th
		quote("AAPL", 5, 150),
	), nil, zerolog.Nop())

	tests := []struct {
		day   int
		price int64
		tier  domain.PriceTier
	}{
		{1, 100, domain.TierExact},
		{2, 110, domain.TierExact},
		{3, 110, domain.TierForwardFilled},
		{4, 110, domain.TierForwardFilled},
		{5, 150, domain.TierExact},
		{9, 150, domain.TierForwardFilled},
	}

	for _, tt := range tests {
		price, err := book.PriceAt(ctx, "AAPL", day(tt.day))
		require.NoError(t, err)
		assert.Truef(t, decimal.NewFromInt(tt.price).Equal(price.Value), "day %d: got %s", tt.day, price.Value)
		assert.Equal(t, tt.tier, price.Tier, "day %d", tt.day)
	}

	assert.Equal(t, domain.PriceStats{Exact: 3, ForwardFilled: 3}, book.Stats())
}

func TestPriceBook_ForwardFillDecaysQuality(t *testing.T) {
	q := quote("VTI", 1, 200)
	q.Quality = 0.8
	book := NewPriceBook(quotes(q), nil, zerolog.Nop())

	exact, err := book.PriceAt(context.Background(), "VTI", day(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, exact.Quality, 1e-9)

	filled, err := book.PriceAt(context.Background(), "VTI", day(2))
	require.NoError(t, err)
	assert.InDelta(t, 0.8*ForwardFillDecay, filled.Quality, 1e-9)
}

func TestPriceBook_LiveFallbackOnlyBeforeFirstClose(t *testing.T) {
	ctx := context.Background()
	live := new(MockLivePriceProvider)
	live.On("CurrentPrice", ctx, "X").Return(decimal.NewFromInt(42), nil).Once()

	book := NewPriceBook(quotes(
		quote("X", 3, 30),
		quote("X", 4, 31),
	), live, zerolog.Nop())

	for d := 1; d <= 5; d++ {
		_, err := book.PriceAt(ctx, "X", day(d))
		require.NoError(t, err)
	}

	// Days 1-2 live, day 3-4 exact, day 5 forward-filled; the live price is fetched once
	assert.Equal(t, domain.PriceStats{Exact: 2, ForwardFilled: 1, LiveFallback: 2}, book.Stats())
	live.AssertExpectations(t)

	first, err := book.PriceAt(ctx, "X", day(1))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(42).Equal(first.Value))
	assert.Equal(t, LiveFallbackQuality, first.Quality)
}

func TestPriceBook_NoPriceAnywhereIsMissing(t *testing.T) {
	ctx := context.Background()
	live := new(MockLivePriceProvider)
	live.On("CurrentPrice", ctx, "DELISTED").Return(decimal.Zero, domain.ErrNotFound)

	book := NewPriceBook(nil, live, zerolog.Nop())

	price, err := book.PriceAt(ctx, "DELISTED", day(1))

	require.NoError(t, err)
	assert.Equal(t, domain.TierMissing, price.Tier)
	assert.True(t, price.Value.IsZero())
	assert.Equal(t, 1, book.Stats().Missing)
}

func TestPriceBook_LiveProviderFailureIsAnError(t *testing.T) {
	ctx := context.Background()
	live := new(MockLivePriceProvider)
	live.On("CurrentPrice", ctx, "X").Return(decimal.Zero, errors.New("quote service unavailable"))

	book := NewPriceBook(nil, live, zerolog.Nop())

	_, err := book.PriceAt(ctx, "X", day(1))

	assert.ErrorContains(t, err, "quote service unavailable")
	assert.Equal(t, 0, book.Stats().Total())
}

func TestPrefetchPriceBook_SkipsFetchWithoutSymbols(t *testing.T) {
	repo := new(MockPriceRepository)

	book, err := PrefetchPriceBook(context.Background(), repo, nil, nil, day(1), day(5), zerolog.Nop())

	require.NoError(t, err)
	assert.NotNil(t, book)
	repo.AssertNotCalled(t, "GetPrices")
}
