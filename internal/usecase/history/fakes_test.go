package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// In-memory collaborators. The calculator is sequential, the mutex only guards test inspection.

type fakeAccounts struct {
	accounts []*domain.Account
	err      error
}

func (f *fakeAccounts) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLedger struct {
	txs []*domain.Transaction
}

func (f *fakeLedger) ListByUser(_ context.Context, userID uuid.UUID, cutoff time.Time) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID && !domain.Day(tx.Date).After(cutoff) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListUserIDs(context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, tx := range f.txs {
		if !seen[tx.UserID] {
			seen[tx.UserID] = true
			ids = append(ids, tx.UserID)
		}
	}
	return ids, nil
}

type fakePrices struct {
	quotes    []domain.PriceQuote
	bulkCalls int
}

func (f *fakePrices) GetPrice(_ context.Context, symbol string, day time.Time) (*domain.PriceQuote, error) {
	for _, q := range f.quotes {
		if q.Symbol == symbol && q.Date.Equal(domain.Day(day)) {
			return &q, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakePrices) GetPrices(_ context.Context, symbols []string, start, end time.Time) (map[string]domain.PriceQuote, error) {
	f.bulkCalls++
	wanted := make(map[string]bool)
	for _, s := range symbols {
		wanted[s] = true
	}
	out := make(map[string]domain.PriceQuote)
	for _, q := range f.quotes {
		if wanted[q.Symbol] && !q.Date.Before(start) && !q.Date.After(end) {
			out[domain.PriceKey(q.Symbol, q.Date)] = q
		}
	}
	return out, nil
}

type fakeLive struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func (f *fakeLive) CurrentPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return p, nil
}

type valueKey struct {
	user uuid.UUID
	day  string
}

type fakeDailyValues struct {
	mu      sync.Mutex
	values  map[valueKey]*domain.DailyValue
	upserts int
	failOn  map[string]error
}

func newFakeDailyValues() *fakeDailyValues {
	return &fakeDailyValues{values: make(map[valueKey]*domain.DailyValue), failOn: make(map[string]error)}
}

func (f *fakeDailyValues) Upsert(_ context.Context, value *domain.DailyValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[domain.FormatDay(value.Date)]; err != nil {
		return err
	}
	f.upserts++
	copied := *value
	f.values[valueKey{value.UserID, domain.FormatDay(value.Date)}] = &copied
	return nil
}

func (f *fakeDailyValues) Get(_ context.Context, userID uuid.UUID, day time.Time) (*domain.DailyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[valueKey{userID, domain.FormatDay(day)}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeDailyValues) ListRange(_ context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.DailyValue, error) {
	var out []*domain.DailyValue
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if v, err := f.Get(context.Background(), userID, day); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]domain.CalculationJob
	statuses  []domain.JobStatus
	createErr error
	updateErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[uuid.UUID]domain.CalculationJob)}
}

func (f *fakeJobs) Create(_ context.Context, job *domain.CalculationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = *job
	f.statuses = append(f.statuses, job.Status)
	return nil
}

func (f *fakeJobs) Update(_ context.Context, job *domain.CalculationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	f.jobs[job.ID] = *job
	f.statuses = append(f.statuses, job.Status)
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*domain.CalculationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

var errBoom = errors.New("boom")
