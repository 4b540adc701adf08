package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoAccounts   = errors.New("user has no accounts")
	ErrInvalidRange = errors.New("invalid date range")
)

// AccountRepository defines the interface for account lookups
type AccountRepository interface {
	// ListByUser retrieves all accounts owned by a user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)
}

// TransactionRepository is the ledger: append-only, read-only from here
type TransactionRepository interface {
	// ListByUser retrieves a user's transactions dated on or before cutoff,
	// ordered by date ascending, ties in storage order
	ListByUser(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*Transaction, error)

	// ListUserIDs returns every user that has at least one transaction
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PriceRepository defines the historical price lookup
type PriceRepository interface {
	// GetPrice retrieves the close for symbol on day; ErrNotFound when absent
	GetPrice(ctx context.Context, symbol string, day time.Time) (*PriceQuote, error)

	// GetPrices retrieves all closes for symbols within [start, end], keyed by PriceKey.
	// Missing (symbol, day) pairs are simply absent from the map.
	GetPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string]PriceQuote, error)
}

// LivePriceProvider supplies the current price of a symbol
type LivePriceProvider interface {
	// CurrentPrice returns the latest known live price; ErrNotFound when none exists
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RealizedGainSource supplies cumulative realized gain, maintained outside the replay
type RealizedGainSource interface {
	// RealizedGainAsOf returns the user's cumulative realized gain up to and including day
	RealizedGainAsOf(ctx context.Context, userID uuid.UUID, day time.Time) (decimal.Decimal, error)
}

// DailyValueRepository defines the interface for daily value persistence
type DailyValueRepository interface {
	// Upsert creates or replaces the record for (value.UserID, value.Date)
	Upsert(ctx context.Context, value *DailyValue) error

	// Get retrieves the record for (userID, day); ErrNotFound when absent
	Get(ctx context.Context, userID uuid.UUID, day time.Time) (*DailyValue, error)

	// ListRange retrieves records within [start, end] ordered by date
	ListRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*DailyValue, error)
}

// JobRepository defines the interface for calculation job persistence
type JobRepository interface {
	// Create inserts a new job
	Create(ctx context.Context, job *CalculationJob) error

	// Update overwrites status, progress, counts, errors and timestamps
	Update(ctx context.Context, job *CalculationJob) error

	// GetByID retrieves a job; ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*CalculationJob, error)
}
