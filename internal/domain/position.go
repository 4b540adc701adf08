package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashSymbol labels cash balances in breakdowns and persisted rows.
// It is never used to tell cash from securities; Position's concrete type does that.
const CashSymbol = "CASH"

// Epsilon is the quantity below which a holding is considered closed
var Epsilon = decimal.NewFromFloat(1e-4)

// Position is one holding in a snapshot: either a CashPosition or a SecurityPosition
type Position interface {
	Account() uuid.UUID
	isPosition()
}

// CashPosition is the liquid balance of an account
type CashPosition struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// SecurityPosition is a priced holding of one symbol within an account
type SecurityPosition struct {
	AccountID uuid.UUID
	Symbol    string
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
}

func (p CashPosition) Account() uuid.UUID     { return p.AccountID }
func (p SecurityPosition) Account() uuid.UUID { return p.AccountID }

func (CashPosition) isPosition()     {}
func (SecurityPosition) isPosition() {}

// AverageCost returns cost basis per unit, zero for an empty position
func (p SecurityPosition) AverageCost() decimal.Decimal {
	if p.Quantity.LessThanOrEqual(Epsilon) {
		return decimal.Zero
	}
	return p.CostBasis.Div(p.Quantity)
}

// IsDust reports whether a quantity is too small to be a real holding
func IsDust(q decimal.Decimal) bool {
	return q.LessThanOrEqual(Epsilon)
}
