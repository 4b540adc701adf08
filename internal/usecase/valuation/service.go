package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/holdings"
)

// DefaultLookbackDays is how far before the first valued day closes are prefetched,
// so that the first days of a window can forward-fill over weekends and holidays
const DefaultLookbackDays = 14

// ValuationService values a portfolio on arbitrary days, replaying the ledger from scratch each time
type ValuationService struct {
	AccountRepo     domain.AccountRepository
	TransactionRepo domain.TransactionRepository
	PriceRepo       domain.PriceRepository
	LivePrices      domain.LivePriceProvider
	RealizedGains   domain.RealizedGainSource // optional, ledger-derived when nil
	DailyValueRepo  domain.DailyValueRepository

	Method       domain.CostBasisMethod
	LookbackDays int

	log zerolog.Logger
	now func() time.Time
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	priceRepo domain.PriceRepository,
	livePrices domain.LivePriceProvider,
	realizedGains domain.RealizedGainSource,
	dailyValueRepo domain.DailyValueRepository,
	method domain.CostBasisMethod,
	log zerolog.Logger,
) *ValuationService {
	return &ValuationService{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		PriceRepo:       priceRepo,
		LivePrices:      livePrices,
		RealizedGains:   realizedGains,
		DailyValueRepo:  dailyValueRepo,
		Method:          method,
		LookbackDays:    DefaultLookbackDays,
		log:             log.With().Str("component", "valuation").Logger(),
		now:             time.Now,
	}
}

// Calculate computes the value record for userID on day without persisting it
func (s *ValuationService) Calculate(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyValue, error) {
	day = domain.Day(day)

	list, err := s.AccountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(list) == 0 {
		return nil, domain.ErrNoAccounts
	}
	accounts := domain.NewAccounts(list)

	txs, err := s.TransactionRepo.ListByUser(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	book := holdings.NewBook(accounts, s.Method, s.log)
	holdings.NewReplay(book, txs).AdvanceTo(day)
	positions := book.Positions()

	prices, err := s.loadPrices(ctx, heldSymbols(positions), day)
	if err != nil {
		return nil, err
	}

	realized, err := s.realizedGain(ctx, userID, day, book)
	if err != nil {
		return nil, err
	}

	value, err := Valuate(ctx, userID, day, positions, accounts, prices, realized)
	if err != nil {
		return nil, err
	}
	value.CalculatedAt = s.now()

	s.log.Debug().
		Str("user_id", userID.String()).
		Str("date", domain.FormatDay(day)).
		Str("total_value", value.TotalValue.StringFixed(2)).
		Float64("data_quality", value.DataQuality).
		Msg("Portfolio valued")

	return value, nil
}

// ValueOn computes and persists the value record for userID on day
func (s *ValuationService) ValueOn(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyValue, error) {
	value, err := s.Calculate(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	if err := s.DailyValueRepo.Upsert(ctx, value); err != nil {
		return nil, fmt.Errorf("failed to save daily value: %w", err)
	}

	return value, nil
}

// ListDailyValues returns the persisted records of userID within [start, end]
func (s *ValuationService) ListDailyValues(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.DailyValue, error) {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil, domain.ErrInvalidRange
	}
	return s.DailyValueRepo.ListRange(ctx, userID, start, end)
}

func (s *ValuationService) realizedGain(ctx context.Context, userID uuid.UUID, day time.Time, book *holdings.Book) (decimal.Decimal, error) {
	if s.RealizedGains == nil {
		return book.RealizedGainAsOf(day), nil
	}
	gain, err := s.RealizedGains.RealizedGainAsOf(ctx, userID, day)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get realized gain: %w", err)
	}
	return gain, nil
}

// loadPrices looks up each symbol's close on day and prefetches the lookback window
// only for the symbols that have none
func (s *ValuationService) loadPrices(ctx context.Context, symbols []string, day time.Time) (*PriceBook, error) {
	exact := make(map[string]domain.PriceQuote, len(symbols))
	var misses []string
	for _, symbol := range symbols {
		quote, err := s.PriceRepo.GetPrice(ctx, symbol, day)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			misses = append(misses, symbol)
		case err != nil:
			return nil, fmt.Errorf("failed to get price of %s: %w", symbol, err)
		default:
			exact[domain.PriceKey(quote.Symbol, quote.Date)] = *quote
		}
	}

	book, err := PrefetchPriceBook(ctx, s.PriceRepo, s.LivePrices, misses, day.AddDate(0, 0, -s.LookbackDays), day, s.log)
	if err != nil {
		return nil, err
	}
	book.add(exact)
	return book, nil
}

// heldSymbols returns the distinct symbols of the security positions
func heldSymbols(positions []domain.Position) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, position := range positions {
		sec, ok := position.(domain.SecurityPosition)
		if !ok {
			continue
		}
		if _, dup := seen[sec.Symbol]; dup {
			continue
		}
		seen[sec.Symbol] = struct{}{}
		symbols = append(symbols, sec.Symbol)
	}
	return symbols
}
