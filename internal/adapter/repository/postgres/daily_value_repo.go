package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// dailyValueRepository implements domain.DailyValueRepository over portfolio_daily_values
type dailyValueRepository struct {
	db *DB
}

// NewDailyValueRepository creates a new daily value repository
func NewDailyValueRepository(db *DB) domain.DailyValueRepository {
	return &dailyValueRepository{db: db}
}

const dailyValueColumns = `user_id, value_date, total_value, total_cost_basis, cash_value, invested_value,
		unrealized_gain, realized_gain, asset_class_breakdown, ticker_breakdown, account_breakdown,
		data_quality, price_stats, calculated_at`

// Upsert creates or replaces the record for (user_id, value_date)
func (r *dailyValueRepository) Upsert(ctx context.Context, value *domain.DailyValue) error {
	assetClasses, err := json.Marshal(value.AssetClassBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode asset class breakdown: %w", err)
	}
	tickers, err := json.Marshal(value.TickerBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode ticker breakdown: %w", err)
	}
	accounts, err := json.Marshal(value.AccountBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode account breakdown: %w", err)
	}
	stats, err := json.Marshal(value.PriceStats)
	if err != nil {
		return fmt.Errorf("failed to encode price stats: %w", err)
	}

	query := `
		INSERT INTO portfolio_daily_values (` + dailyValueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, value_date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			total_cost_basis = EXCLUDED.total_cost_basis,
			cash_value = EXCLUDED.cash_value,
			invested_value = EXCLUDED.invested_value,
			unrealized_gain = EXCLUDED.unrealized_gain,
			realized_gain = EXCLUDED.realized_gain,
			asset_class_breakdown = EXCLUDED.asset_class_breakdown,
			ticker_breakdown = EXCLUDED.ticker_breakdown,
			account_breakdown = EXCLUDED.account_breakdown,
			data_quality = EXCLUDED.data_quality,
			price_stats = EXCLUDED.price_stats,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		value.UserID,
		domain.FormatDay(value.Date),
		value.TotalValue.String(),
		value.TotalCostBasis.String(),
		value.CashValue.String(),
		value.InvestedValue.String(),
		value.UnrealizedGain.String(),
		value.RealizedGain.String(),
		assetClasses,
		tickers,
		accounts,
		value.DataQuality,
		stats,
		value.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily value: %w", err)
	}

	return nil
}

// Get retrieves the record for (userID, day)
func (r *dailyValueRepository) Get(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyValue, error) {
	query := `SELECT ` + dailyValueColumns + `
		FROM portfolio_daily_values
		WHERE user_id = $1 AND value_date = $2
	`

	value, err := scanDailyValue(r.db.QueryRowContext(ctx, query, userID, domain.FormatDay(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no daily value on %s: %w", domain.FormatDay(day), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get daily value: %w", err)
	}
	return value, nil
}

// ListRange retrieves records within [start, end] ordered by date
func (r *dailyValueRepository) ListRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.DailyValue, error) {
	query := `SELECT ` + dailyValueColumns + `
		FROM portfolio_daily_values
		WHERE user_id = $1 AND value_date BETWEEN $2 AND $3
		ORDER BY value_date
	`

	rows, err := r.db.QueryContext(ctx, query, userID, domain.FormatDay(start), domain.FormatDay(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily values: %w", err)
	}
	defer rows.Close()

	var values []*domain.DailyValue
	for rows.Next() {
		value, err := scanDailyValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily values: %w", err)
	}

	return values, nil
}

func scanDailyValue(row rowScanner) (*domain.DailyValue, error) {
	var value domain.DailyValue
	var total, costBasis, cash, invested, unrealized, realized string
	var assetClasses, tickers, accounts, stats []byte

	err := row.Scan(
		&value.UserID,
		&value.Date,
		&total,
		&costBasis,
		&cash,
		&invested,
		&unrealized,
		&realized,
		&assetClasses,
		&tickers,
		&accounts,
		&value.DataQuality,
		&stats,
		&value.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}
	value.Date = domain.Day(value.Date)

	amounts := []struct {
		raw  string
		dest *decimal.Decimal
		name string
	}{
		{total, &value.TotalValue, "total_value"},
		{costBasis, &value.TotalCostBasis, "total_cost_basis"},
		{cash, &value.CashValue, "cash_value"},
		{invested, &value.InvestedValue, "invested_value"},
		{unrealized, &value.UnrealizedGain, "unrealized_gain"},
		{realized, &value.RealizedGain, "realized_gain"},
	}
	for _, a := range amounts {
		parsed, err := decimal.NewFromString(a.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", a.name, err)
		}
		*a.dest = parsed
	}

	value.AssetClassBreakdown = make(map[string]decimal.Decimal)
	value.TickerBreakdown = make(map[string]domain.TickerValue)
	value.AccountBreakdown = make(map[uuid.UUID]decimal.Decimal)
	if err := unmarshalJSONB(assetClasses, &value.AssetClassBreakdown); err != nil {
		return nil, fmt.Errorf("failed to parse asset_class_breakdown: %w", err)
	}
	if err := unmarshalJSONB(tickers, &value.TickerBreakdown); err != nil {
		return nil, fmt.Errorf("failed to parse ticker_breakdown: %w", err)
	}
	if err := unmarshalJSONB(accounts, &value.AccountBreakdown); err != nil {
		return nil, fmt.Errorf("failed to parse account_breakdown: %w", err)
	}
	if err := unmarshalJSONB(stats, &value.PriceStats); err != nil {
		return nil, fmt.Errorf("failed to parse price_stats: %w", err)
	}

	return &value, nil
}

func unmarshalJSONB(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
