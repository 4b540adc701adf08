package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// quoteRepository implements domain.LivePriceProvider over the quotes table,
// which the quote fetcher keeps current
type quoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new live quote repository
func NewQuoteRepository(db *DB) domain.LivePriceProvider {
	return &quoteRepository{db: db}
}

// CurrentPrice retrieves the latest stored quote for symbol
func (r *quoteRepository) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	query := `
		SELECT price
		FROM quotes
		WHERE symbol = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var priceStr string
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("no quote for %s: %w", symbol, domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to get quote: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse quote price: %w", err)
	}
	return price, nil
}
