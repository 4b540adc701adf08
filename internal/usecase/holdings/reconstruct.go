package holdings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// SortLedger returns a copy of txs ordered by calendar day.
// Records on the same day keep their storage order.
func SortLedger(txs []*domain.Transaction) []*domain.Transaction {
	sorted := make([]*domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return domain.Day(sorted[i].Date).Before(domain.Day(sorted[j].Date))
	})
	return sorted
}

// Reconstruct replays txs from scratch up to and including cutoff and returns the open positions
func Reconstruct(txs []*domain.Transaction, accounts domain.Accounts, cutoff time.Time, method domain.CostBasisMethod, log zerolog.Logger) []domain.Position {
	book := NewBook(accounts, method, log)
	NewReplay(book, txs).AdvanceTo(cutoff)
	return book.Positions()
}

// Replay walks a sorted ledger forward into a Book, one day at a time.
// Each record is applied exactly once, so a date range costs O(days + transactions).
type Replay struct {
	book *Book
	txs  []*domain.Transaction
	next int
}

// NewReplay prepares txs (any order) to be applied to book
func NewReplay(book *Book, txs []*domain.Transaction) *Replay {
	return &Replay{book: book, txs: SortLedger(txs)}
}

// Book returns the book being advanced
func (r *Replay) Book() *Book { return r.book }

// AdvanceTo applies every record dated on or before day that has not been applied yet.
// It returns how many records were consumed, skipped ones included.
func (r *Replay) AdvanceTo(day time.Time) int {
	day = domain.Day(day)
	consumed := 0
	for r.next < len(r.txs) {
		tx := r.txs[r.next]
		if domain.Day(tx.Date).After(day) {
			break
		}
		// Skipped records are already logged by the book
		_ = r.book.Apply(tx)
		r.next++
		consumed++
	}
	return consumed
}

// LedgerRealizedGains is a RealizedGainSource that matches sells against purchase lots
// oldest first, whatever cost basis method the valuation replay uses.
// Each lookup replays the user's ledger up to the requested day.
type LedgerRealizedGains struct {
	AccountRepo     domain.AccountRepository
	TransactionRepo domain.TransactionRepository
	Log             zerolog.Logger
}

// NewLedgerRealizedGains creates a lot-matching realized gain source
func NewLedgerRealizedGains(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository, log zerolog.Logger) *LedgerRealizedGains {
	return &LedgerRealizedGains{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Log:             log,
	}
}

// RealizedGainAsOf replays the user's ledger up to day and returns the cumulative FIFO realized gain
func (s *LedgerRealizedGains) RealizedGainAsOf(ctx context.Context, userID uuid.UUID, day time.Time) (decimal.Decimal, error) {
	accounts, err := s.AccountRepo.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list accounts: %w", err)
	}

	txs, err := s.TransactionRepo.ListByUser(ctx, userID, domain.Day(day))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transactions: %w", err)
	}

	book := NewBook(domain.NewAccounts(accounts), domain.FIFO, s.Log)
	NewReplay(book, txs).AdvanceTo(day)
	return book.RealizedGain(), nil
}
