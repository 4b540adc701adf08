// Package holdings rebuilds per-account holdings by replaying the transaction ledger.
package holdings

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// ErrSkipped marks a ledger record that the replay ignored
var ErrSkipped = errors.New("transaction skipped")

type positionKey struct {
	account uuid.UUID
	symbol  string
}

type security struct {
	quantity  decimal.Decimal
	costBasis decimal.Decimal
	lots      lots // only maintained for FIFO
}

type realizedPoint struct {
	day        time.Time
	cumulative decimal.Decimal
}

// Book is the mutable holdings state of one user's ledger replay
type Book struct {
	method   domain.CostBasisMethod
	accounts domain.Accounts
	log      zerolog.Logger

	securities    map[positionKey]*security
	securityOrder []positionKey
	cash          map[uuid.UUID]decimal.Decimal
	cashOrder     []uuid.UUID

	realized        decimal.Decimal
	realizedHistory []realizedPoint

	applied   int
	skipped   int
	anomalies int
}

// NewBook creates an empty book for the given accounts
func NewBook(accounts domain.Accounts, method domain.CostBasisMethod, log zerolog.Logger) *Book {
	return &Book{
		method:     method,
		accounts:   accounts,
		log:        log,
		securities: make(map[positionKey]*security),
		cash:       make(map[uuid.UUID]decimal.Decimal),
	}
}

// Accounts returns the accounts the book resolves records against
func (b *Book) Accounts() domain.Accounts { return b.accounts }

// Method returns the book's cost basis method
func (b *Book) Method() domain.CostBasisMethod { return b.method }

// Applied returns the number of records applied so far
func (b *Book) Applied() int { return b.applied }

// Skipped returns the number of records ignored so far
func (b *Book) Skipped() int { return b.skipped }

// Anomalies returns the number of over-sells and similar soft warnings
func (b *Book) Anomalies() int { return b.anomalies }

// RealizedGain returns the cumulative realized gain of every sell applied so far
func (b *Book) RealizedGain() decimal.Decimal { return b.realized }

// RealizedGainAsOf returns the cumulative realized gain up to and including day
func (b *Book) RealizedGainAsOf(day time.Time) decimal.Decimal {
	day = domain.Day(day)
	i := sort.Search(len(b.realizedHistory), func(i int) bool {
		return b.realizedHistory[i].day.After(day)
	})
	if i == 0 {
		return decimal.Zero
	}
	return b.realizedHistory[i-1].cumulative
}

// Apply replays one ledger record.
// Records that cannot be replayed are logged and reported with ErrSkipped; the book is left untouched.
func (b *Book) Apply(tx *domain.Transaction) error {
	if err := b.apply(tx); err != nil {
		b.skipped++
		b.log.Warn().
			Err(err).
			Str("transaction_id", tx.ID.String()).
			Str("type", string(tx.Type)).
			Str("date", domain.FormatDay(tx.Date)).
			Msg("Skipping ledger record")
		return fmt.Errorf("%w: %s: %v", ErrSkipped, tx.ID, err)
	}
	b.applied++
	return nil
}

func (b *Book) apply(tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if _, ok := b.accounts[tx.AccountID]; !ok {
		return fmt.Errorf("account %s not found", tx.AccountID)
	}

	day := domain.Day(tx.Date)
	amount := tx.CashAmount()
	qty, _ := tx.Quantity()

	switch tx.Type.Effect() {
	case domain.EffectBuy:
		b.acquire(tx.AccountID, tx.Symbol(), qty, amount, day)
	case domain.EffectSell:
		b.dispose(tx, qty, amount, true)
	case domain.EffectTransferIn:
		if tx.Symbol() == "" {
			b.addCash(tx, amount)
		} else {
			b.acquire(tx.AccountID, tx.Symbol(), qty, amount, day)
		}
	case domain.EffectTransferOut:
		if tx.Symbol() == "" {
			b.addCash(tx, amount.Neg())
		} else {
			b.dispose(tx, qty, amount, false)
		}
	case domain.EffectCashIn:
		b.addCash(tx, amount)
	case domain.EffectCashOut:
		b.addCash(tx, amount.Neg())
	case domain.EffectSplit:
		return b.split(tx)
	default:
		return domain.ErrUnknownType
	}
	return nil
}

func (b *Book) position(account uuid.UUID, symbol string) *security {
	key := positionKey{account: account, symbol: symbol}
	sec, ok := b.securities[key]
	if !ok {
		sec = &security{}
		b.securities[key] = sec
		b.securityOrder = append(b.securityOrder, key)
	}
	return sec
}

func (b *Book) acquire(account uuid.UUID, symbol string, qty, cost decimal.Decimal, day time.Time) {
	sec := b.position(account, symbol)
	sec.quantity = sec.quantity.Add(qty)
	sec.costBasis = sec.costBasis.Add(cost)
	if b.method == domain.FIFO {
		sec.lots = append(sec.lots, lot{Date: day, Quantity: qty, Cost: cost})
	}
}

// dispose reduces a holding. Sells realize proceeds minus the cost removed; transfers do not.
func (b *Book) dispose(tx *domain.Transaction, qty, proceeds decimal.Decimal, realize bool) {
	sec := b.position(tx.AccountID, tx.Symbol())
	before := sec.quantity

	if qty.GreaterThan(before.Add(domain.Epsilon)) {
		b.anomalies++
		b.log.Warn().
			Str("transaction_id", tx.ID.String()).
			Str("symbol", tx.Symbol()).
			Str("held", before.String()).
			Str("disposed", qty.String()).
			Msg("Disposing more than held")
	}

	var removed decimal.Decimal
	switch {
	case before.LessThanOrEqual(domain.Epsilon):
		removed = sec.costBasis
	case b.method == domain.FIFO:
		removed = sec.lots.fifoCostOfSelling(qty)
		sec.lots = sec.lots.sell(qty)
	default:
		removed = qty.Mul(sec.costBasis.Div(before))
	}
	if removed.GreaterThan(sec.costBasis) {
		removed = sec.costBasis
	}

	sec.quantity = before.Sub(qty)
	sec.costBasis = sec.costBasis.Sub(removed)
	if domain.IsDust(sec.quantity) {
		sec.quantity = decimal.Zero
		sec.costBasis = decimal.Zero
		sec.lots = nil
	}

	if realize {
		b.realize(domain.Day(tx.Date), proceeds.Sub(removed))
	}
}

func (b *Book) realize(day time.Time, gain decimal.Decimal) {
	b.realized = b.realized.Add(gain)
	n := len(b.realizedHistory)
	if n > 0 && b.realizedHistory[n-1].day.Equal(day) {
		b.realizedHistory[n-1].cumulative = b.realized
		return
	}
	b.realizedHistory = append(b.realizedHistory, realizedPoint{day: day, cumulative: b.realized})
}

func (b *Book) split(tx *domain.Transaction) error {
	key := positionKey{account: tx.AccountID, symbol: tx.Symbol()}
	sec, ok := b.securities[key]
	if !ok || domain.IsDust(sec.quantity) {
		return fmt.Errorf("split of %s with no holding", tx.Symbol())
	}

	// The metadata quantity is a signed delta: negative for a reverse split
	var delta decimal.Decimal
	if tx.Metadata.Quantity != nil {
		delta = *tx.Metadata.Quantity
	} else {
		delta = sec.quantity.Mul(tx.Metadata.SplitRatio.Sub(decimal.NewFromInt(1)))
	}

	after := sec.quantity.Add(delta)
	if after.LessThanOrEqual(domain.Epsilon) {
		return fmt.Errorf("split of %s by %s would leave %s held", tx.Symbol(), delta, after)
	}
	if b.method == domain.FIFO {
		sec.lots = sec.lots.split(after.Div(sec.quantity))
	}
	sec.quantity = after
	return nil
}

// addCash moves an account's running balance. The balance may go negative so that
// later inflows net against it; an overdraft is counted as an anomaly.
func (b *Book) addCash(tx *domain.Transaction, delta decimal.Decimal) {
	balance, ok := b.cash[tx.AccountID]
	if !ok {
		b.cashOrder = append(b.cashOrder, tx.AccountID)
	}
	balance = balance.Add(delta)
	if balance.Abs().LessThanOrEqual(domain.Epsilon) {
		balance = decimal.Zero
	}
	b.cash[tx.AccountID] = balance

	if balance.IsNegative() && delta.IsNegative() {
		b.anomalies++
		b.log.Warn().
			Str("transaction_id", tx.ID.String()).
			Str("account_id", tx.AccountID.String()).
			Str("balance", balance.String()).
			Msg("Cash balance overdrawn")
	}
}

// Positions returns the current snapshot: cash balances first, then securities,
// each in first-seen order. Closed securities and cash not above epsilon are left out.
func (b *Book) Positions() []domain.Position {
	positions := make([]domain.Position, 0, len(b.cashOrder)+len(b.securityOrder))

	for _, account := range b.cashOrder {
		amount := b.cash[account]
		if amount.LessThanOrEqual(domain.Epsilon) {
			continue
		}
		positions = append(positions, domain.CashPosition{AccountID: account, Amount: amount})
	}

	for _, key := range b.securityOrder {
		sec := b.securities[key]
		if domain.IsDust(sec.quantity) {
			continue
		}
		positions = append(positions, domain.SecurityPosition{
			AccountID: key.account,
			Symbol:    key.symbol,
			Quantity:  sec.quantity,
			CostBasis: sec.costBasis,
		})
	}

	return positions
}
