package domain

import "github.com/google/uuid"

// AssetClassCash is the asset class every cash balance is reported under
const AssetClassCash = "cash"

// Account represents a brokerage/bank account owning holdings
type Account struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	AssetClass string // e.g. "stocks", "crypto", "bonds"; empty means unclassified
}

// Accounts indexes a user's accounts by ID
type Accounts map[uuid.UUID]Account

// NewAccounts builds the index from a list
func NewAccounts(list []*Account) Accounts {
	accounts := make(Accounts, len(list))
	for _, a := range list {
		accounts[a.ID] = *a
	}
	return accounts
}

// AssetClassOf returns the asset class used for the account's securities
func (a Accounts) AssetClassOf(id uuid.UUID) string {
	acc, ok := a[id]
	if !ok || acc.AssetClass == "" {
		return "other"
	}
	return acc.AssetClass
}
