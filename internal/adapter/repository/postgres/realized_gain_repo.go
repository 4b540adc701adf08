package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// realizedGainRepository implements domain.RealizedGainSource over the realized_gains table
type realizedGainRepository struct {
	db *DB
}

// NewRealizedGainRepository creates a new realized gain repository
func NewRealizedGainRepository(db *DB) domain.RealizedGainSource {
	return &realizedGainRepository{db: db}
}

// RealizedGainAsOf sums every gain realized on or before day
func (r *realizedGainRepository) RealizedGainAsOf(ctx context.Context, userID uuid.UUID, day time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(realized_gain), 0)::text
		FROM realized_gains
		WHERE user_id = $1 AND sell_date <= $2
	`

	var sumStr string
	if err := r.db.QueryRowContext(ctx, query, userID, domain.FormatDay(day)).Scan(&sumStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum realized gains: %w", err)
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse realized gain: %w", err)
	}
	return sum, nil
}
