package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// priceRepository implements domain.PriceRepository over the price_history table
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price history repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// GetPrice retrieves the close for symbol on day
func (r *priceRepository) GetPrice(ctx context.Context, symbol string, day time.Time) (*domain.PriceQuote, error) {
	query := `
		SELECT symbol, price_date, close_price, data_quality
		FROM price_history
		WHERE symbol = $1 AND price_date = $2
	`

	quote, err := scanQuote(r.db.QueryRowContext(ctx, query, symbol, domain.FormatDay(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no close for %s on %s: %w", symbol, domain.FormatDay(day), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return quote, nil
}

// GetPrices retrieves every close for symbols within [start, end] in one query
func (r *priceRepository) GetPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string]domain.PriceQuote, error) {
	prices := make(map[string]domain.PriceQuote)
	if len(symbols) == 0 {
		return prices, nil
	}

	query := `
		SELECT symbol, price_date, close_price, data_quality
		FROM price_history
		WHERE symbol = ANY($1) AND price_date BETWEEN $2 AND $3
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(symbols), domain.FormatDay(start), domain.FormatDay(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices[domain.PriceKey(quote.Symbol, quote.Date)] = *quote
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price history: %w", err)
	}

	return prices, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*domain.PriceQuote, error) {
	var quote domain.PriceQuote
	var priceStr string
	var quality sql.NullFloat64

	if err := row.Scan(&quote.Symbol, &quote.Date, &priceStr, &quality); err != nil {
		return nil, err
	}
	quote.Date = domain.Day(quote.Date)

	// Parse close_price (DECIMAL)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse close_price: %w", err)
	}
	quote.Price = price

	// Rows imported before quality scoring existed are treated as exact
	quote.Quality = 1
	if quality.Valid {
		quote.Quality = quality.Float64
	}

	return &quote, nil
}
