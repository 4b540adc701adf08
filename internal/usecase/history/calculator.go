// Package history drives the valuation engine across a date range and persists one record per day.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/holdings"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/valuation"
)

// ProgressFunc receives the completed percentage (0-100) and the day just processed
type ProgressFunc func(percent float64, currentDate string)

// RangeResult summarizes one CalculateRange run
type RangeResult struct {
	JobID          uuid.UUID
	DaysCalculated int
	DaysFailed     int
	Errors         []string
	Success        bool
	Cancelled      bool
	ResumeFrom     *time.Time
	PriceStats     domain.PriceStats
}

// Summary returns "N days calculated, M failed" followed by the first few errors
func (r *RangeResult) Summary() string {
	summary := fmt.Sprintf("%d days calculated, %d failed", r.DaysCalculated, r.DaysFailed)
	if r.Cancelled && r.ResumeFrom != nil {
		summary += fmt.Sprintf(", cancelled (resume from %s)", domain.FormatDay(*r.ResumeFrom))
	}
	if len(r.Errors) == 0 {
		return summary
	}
	shown := r.Errors
	if len(shown) > maxSummaryErrors {
		shown = shown[:maxSummaryErrors]
	}
	return summary + ": " + strings.Join(shown, "; ")
}

const maxSummaryErrors = 3

// Calculator rebuilds a user's daily value history over a date range.
//
// Days are processed strictly in order: the holdings of day N+1 are the holdings of day N
// plus that day's transactions, so the ledger is replayed once for the whole range.
type Calculator struct {
	AccountRepo     domain.AccountRepository
	TransactionRepo domain.TransactionRepository
	PriceRepo       domain.PriceRepository
	LivePrices      domain.LivePriceProvider
	RealizedGains   domain.RealizedGainSource // optional, ledger-derived when nil
	DailyValueRepo  domain.DailyValueRepository
	JobRepo         domain.JobRepository

	Method       domain.CostBasisMethod
	LookbackDays int

	log zerolog.Logger
	now func() time.Time
}

// NewCalculator creates a new Calculator instance
func NewCalculator(
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	priceRepo domain.PriceRepository,
	livePrices domain.LivePriceProvider,
	realizedGains domain.RealizedGainSource,
	dailyValueRepo domain.DailyValueRepository,
	jobRepo domain.JobRepository,
	method domain.CostBasisMethod,
	log zerolog.Logger,
) *Calculator {
	return &Calculator{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		PriceRepo:       priceRepo,
		LivePrices:      livePrices,
		RealizedGains:   realizedGains,
		DailyValueRepo:  dailyValueRepo,
		JobRepo:         jobRepo,
		Method:          method,
		LookbackDays:    valuation.DefaultLookbackDays,
		log:             log.With().Str("component", "history").Logger(),
		now:             time.Now,
	}
}

// CalculateRange values every calendar day in [start, end] for userID.
//
// Setup failures (no accounts, job cannot be created, ledger or prices cannot be loaded)
// abort the call. A failing day is recorded in the result and the run moves on.
// Cancelling ctx stops between days without failing the remaining ones.
func (c *Calculator) CalculateRange(ctx context.Context, userID uuid.UUID, start, end time.Time, onProgress ProgressFunc) (*RangeResult, error) {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", domain.ErrInvalidRange, domain.FormatDay(end), domain.FormatDay(start))
	}

	job := domain.NewCalculationJob(userID, start, end, c.now())
	if err := c.JobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create calculation job: %w", err)
	}

	return c.run(ctx, job, start, onProgress)
}

// ResumeJob continues a cancelled or failed job.
// Cancelled jobs restart at their resume marker, failed jobs are recalculated from their start date.
func (c *Calculator) ResumeJob(ctx context.Context, jobID uuid.UUID, onProgress ProgressFunc) (*RangeResult, error) {
	job, err := c.JobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get calculation job: %w", err)
	}

	from, err := job.Resume()
	if err != nil {
		return nil, err
	}
	if from.Equal(job.StartDate) {
		job.DaysCalculated = 0
		job.DaysFailed = 0
		job.ErrorText = ""
	}

	return c.run(ctx, job, from, onProgress)
}

// GetJob returns a calculation job by ID
func (c *Calculator) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.CalculationJob, error) {
	return c.JobRepo.GetByID(ctx, jobID)
}

func (c *Calculator) run(ctx context.Context, job *domain.CalculationJob, from time.Time, onProgress ProgressFunc) (*RangeResult, error) {
	log := c.log.With().
		Str("job_id", job.ID.String()).
		Str("user_id", job.UserID.String()).
		Logger()

	if err := job.Start(c.now()); err != nil {
		return nil, err
	}
	if err := c.JobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to start calculation job: %w", err)
	}

	result := &RangeResult{
		JobID:          job.ID,
		DaysCalculated: job.DaysCalculated,
		DaysFailed:     job.DaysFailed,
	}
	if job.ErrorText != "" {
		result.Errors = strings.Split(job.ErrorText, "\n")
	}

	replay, prices, err := c.setup(ctx, job.UserID, from, job.EndDate, log)
	if err != nil {
		c.finish(job, result, domain.JobStatusFailed, 0, log)
		return nil, err
	}

	total := domain.DaysBetween(from, job.EndDate)
	log.Info().
		Str("from", domain.FormatDay(from)).
		Str("to", domain.FormatDay(job.EndDate)).
		Int("days", total).
		Msg("Range calculation started")

	cancel := func(day time.Time) {
		job.ResumeFrom = &day
		result.Cancelled = true
		result.ResumeFrom = &day
		log.Info().Str("resume_from", domain.FormatDay(day)).Msg("Range calculation cancelled")
	}

	done := 0
	for day := from; !day.After(job.EndDate); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			cancel(day)
			break
		}

		replay.AdvanceTo(day)

		if err := c.calculateDay(ctx, job.UserID, day, replay, prices); err != nil {
			if ctx.Err() != nil {
				// Interrupted mid-day: the day counts as not attempted
				cancel(day)
				break
			}
			result.DaysFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", domain.FormatDay(day), err))
			log.Error().Err(err).Str("date", domain.FormatDay(day)).Msg("Day calculation failed")
		} else {
			result.DaysCalculated++
		}

		done++
		if onProgress != nil {
			onProgress(percent(done, total), domain.FormatDay(day))
		}
	}

	result.PriceStats = prices.Stats()
	result.Success = result.DaysFailed == 0

	status := domain.JobStatusCompleted
	switch {
	case result.Cancelled:
		status = domain.JobStatusCancelled
	case result.DaysFailed > 0:
		status = domain.JobStatusFailed
	}
	c.finish(job, result, status, percent(done, total), log)

	log.Info().
		Int("days_calculated", result.DaysCalculated).
		Int("days_failed", result.DaysFailed).
		Bool("cancelled", result.Cancelled).
		Int("price_exact", result.PriceStats.Exact).
		Int("price_forward_filled", result.PriceStats.ForwardFilled).
		Int("price_live_fallback", result.PriceStats.LiveFallback).
		Int("price_missing", result.PriceStats.Missing).
		Msg("Range calculation finished")

	return result, nil
}

// setup loads accounts and the ledger, applies everything before from and prefetches prices
func (c *Calculator) setup(ctx context.Context, userID uuid.UUID, from, end time.Time, log zerolog.Logger) (*holdings.Replay, *valuation.PriceBook, error) {
	list, err := c.AccountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(list) == 0 {
		return nil, nil, domain.ErrNoAccounts
	}
	accounts := domain.NewAccounts(list)

	txs, err := c.TransactionRepo.ListByUser(ctx, userID, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	book := holdings.NewBook(accounts, c.Method, log)
	replay := holdings.NewReplay(book, txs)
	replay.AdvanceTo(from.AddDate(0, 0, -1))

	prices, err := valuation.PrefetchPriceBook(ctx, c.PriceRepo, c.LivePrices, ledgerSymbols(txs),
		from.AddDate(0, 0, -c.LookbackDays), end, log)
	if err != nil {
		return nil, nil, err
	}

	return replay, prices, nil
}

func (c *Calculator) calculateDay(ctx context.Context, userID uuid.UUID, day time.Time, replay *holdings.Replay, prices valuation.PriceSource) error {
	book := replay.Book()

	realized := book.RealizedGainAsOf(day)
	if c.RealizedGains != nil {
		var err error
		realized, err = c.RealizedGains.RealizedGainAsOf(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("failed to get realized gain: %w", err)
		}
	}

	value, err := valuation.Valuate(ctx, userID, day, book.Positions(), book.Accounts(), prices, realized)
	if err != nil {
		return err
	}
	value.CalculatedAt = c.now()

	if err := c.DailyValueRepo.Upsert(ctx, value); err != nil {
		return fmt.Errorf("failed to save daily value: %w", err)
	}
	return nil
}

// finish records the final job state. A failing update is logged: the days are already persisted.
func (c *Calculator) finish(job *domain.CalculationJob, result *RangeResult, status domain.JobStatus, progress float64, log zerolog.Logger) {
	job.Progress = progress
	job.DaysCalculated = result.DaysCalculated
	job.DaysFailed = result.DaysFailed
	job.ErrorText = strings.Join(result.Errors, "\n")

	if err := job.Finish(status, c.now()); err != nil {
		log.Error().Err(err).Msg("Invalid job transition")
		return
	}

	// The caller's context may already be cancelled; the final state is still recorded
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.JobRepo.Update(ctx, job); err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("Failed to record job completion")
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

// ledgerSymbols returns the distinct tickers referenced by txs
func ledgerSymbols(txs []*domain.Transaction) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, tx := range txs {
		symbol := tx.Symbol()
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	return symbols
}
