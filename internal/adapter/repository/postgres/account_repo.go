package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// ListByUser retrieves all accounts owned by a user
func (r *accountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	query := `
		SELECT id, user_id, name, asset_class
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var assetClass sql.NullString

		if err := rows.Scan(&account.ID, &account.UserID, &account.Name, &assetClass); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.AssetClass = assetClass.String

		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
