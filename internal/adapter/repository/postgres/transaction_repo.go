package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByUser retrieves a user's ledger up to and including cutoff.
// Same-day records keep their insertion order (created_at, then id).
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT id, user_id, account_id, transaction_date, transaction_type, amount, metadata, created_at
		FROM transactions
		WHERE user_id = $1 AND transaction_date <= $2
		ORDER BY transaction_date, created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, domain.FormatDay(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var txType, amountStr string
		var metadata []byte

		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.AccountID,
			&tx.Date,
			&txType,
			&amountStr,
			&metadata,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = domain.TransactionType(txType)
		tx.Date = domain.Day(tx.Date)

		// Parse amount (DECIMAL)
		tx.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount of transaction %s: %w", tx.ID, err)
		}

		// Parse metadata (JSONB, nullable)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata of transaction %s: %w", tx.ID, err)
			}
		}

		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// ListUserIDs returns every user that has at least one transaction
func (r *transactionRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
