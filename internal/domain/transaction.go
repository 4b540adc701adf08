package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the ledger's transaction_type column
type TransactionType string

const (
	TransactionTypeStockBuy     TransactionType = "stock_buy"
	TransactionTypeStockSell    TransactionType = "stock_sell"
	TransactionTypeETFBuy       TransactionType = "etf_buy"
	TransactionTypeETFSell      TransactionType = "etf_sell"
	TransactionTypeCryptoBuy    TransactionType = "crypto_buy"
	TransactionTypeCryptoSell   TransactionType = "crypto_sell"
	TransactionTypeBondPurchase TransactionType = "bond_purchase"
	TransactionTypeBondCoupon   TransactionType = "bond_coupon"
	TransactionTypeOptionBuy    TransactionType = "option_buy"
	TransactionTypeOptionSell   TransactionType = "option_sell"
	TransactionTypeDeposit      TransactionType = "deposit"
	TransactionTypeWithdrawal   TransactionType = "withdrawal"
	TransactionTypeInterest     TransactionType = "interest"
	TransactionTypeDividend     TransactionType = "dividend"
	TransactionTypeFee          TransactionType = "fee"
	TransactionTypeTransferIn   TransactionType = "transfer_in"
	TransactionTypeTransferOut  TransactionType = "transfer_out"
	TransactionTypeStockSplit   TransactionType = "stock_split"
)

// TransactionEffect groups transaction types by how they change holdings
type TransactionEffect int

const (
	EffectUnknown TransactionEffect = iota
	EffectBuy
	EffectSell
	EffectCashIn
	EffectCashOut
	EffectTransferIn
	EffectTransferOut
	EffectSplit
)

func (e TransactionEffect) String() string {
	switch e {
	case EffectBuy:
		return "buy"
	case EffectSell:
		return "sell"
	case EffectCashIn:
		return "cash_in"
	case EffectCashOut:
		return "cash_out"
	case EffectTransferIn:
		return "transfer_in"
	case EffectTransferOut:
		return "transfer_out"
	case EffectSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Effect classifies the transaction type.
// Buy and sell families are matched by suffix so that new asset kinds
// (mutual_fund_buy, reit_sell, ...) replay without code changes.
func (t TransactionType) Effect() TransactionEffect {
	s := strings.ToLower(string(t))
	switch {
	case s == string(TransactionTypeTransferIn):
		return EffectTransferIn
	case s == string(TransactionTypeTransferOut):
		return EffectTransferOut
	case s == string(TransactionTypeStockSplit):
		return EffectSplit
	case s == string(TransactionTypeBondPurchase),
		strings.HasSuffix(s, "_buy"),
		strings.HasPrefix(s, "option_buy"):
		return EffectBuy
	case strings.HasSuffix(s, "_sell"),
		strings.HasPrefix(s, "option_sell"):
		return EffectSell
	case s == string(TransactionTypeDeposit),
		s == string(TransactionTypeInterest),
		s == string(TransactionTypeBondCoupon),
		strings.Contains(s, "dividend"):
		return EffectCashIn
	case s == string(TransactionTypeWithdrawal),
		s == string(TransactionTypeFee):
		return EffectCashOut
	default:
		return EffectUnknown
	}
}

// TransactionMetadata holds the optional per-type fields stored as JSON
type TransactionMetadata struct {
	Ticker     string           `json:"ticker,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	SplitRatio *decimal.Decimal `json:"split_ratio,omitempty"`
}

// Transaction is one ledger record. Read-only input to the replay.
type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AccountID uuid.UUID
	Date      time.Time // calendar day, no intra-day ordering
	Type      TransactionType
	Amount    decimal.Decimal // signed cash effect
	Metadata  TransactionMetadata
	CreatedAt time.Time
}

// Symbol returns the normalized ticker, or "" when the record has none
func (t *Transaction) Symbol() string {
	return strings.ToUpper(strings.TrimSpace(t.Metadata.Ticker))
}

// Quantity returns the metadata quantity as a positive magnitude
func (t *Transaction) Quantity() (decimal.Decimal, bool) {
	if t.Metadata.Quantity == nil {
		return decimal.Zero, false
	}
	return t.Metadata.Quantity.Abs(), true
}

// CashAmount returns the magnitude of the cash effect.
// When the amount is zero it falls back to quantity * price.
func (t *Transaction) CashAmount() decimal.Decimal {
	if !t.Amount.IsZero() {
		return t.Amount.Abs()
	}
	qty, ok := t.Quantity()
	if !ok || t.Metadata.Price == nil {
		return decimal.Zero
	}
	return qty.Mul(t.Metadata.Price.Abs())
}

var (
	ErrMissingAccount  = errors.New("transaction has no account")
	ErrMissingTicker   = errors.New("transaction has no ticker")
	ErrMissingQuantity = errors.New("transaction has no quantity")
	ErrUnknownType     = errors.New("unknown transaction type")
)

// Validate checks that the fields required by the record's type are present.
// A failing record is skipped by the replay, it never aborts it.
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return ErrMissingAccount
	}

	switch t.Type.Effect() {
	case EffectBuy, EffectSell:
		if t.Symbol() == "" {
			return ErrMissingTicker
		}
		if _, ok := t.Quantity(); !ok {
			return ErrMissingQuantity
		}
	case EffectTransferIn, EffectTransferOut:
		// Without a ticker a transfer moves cash
		if t.Symbol() != "" {
			if _, ok := t.Quantity(); !ok {
				return ErrMissingQuantity
			}
		}
	case EffectSplit:
		if t.Symbol() == "" {
			return ErrMissingTicker
		}
		if _, ok := t.Quantity(); !ok && t.Metadata.SplitRatio == nil {
			return ErrMissingQuantity
		}
	case EffectCashIn, EffectCashOut:
	default:
		return ErrUnknownType
	}

	return nil
}
