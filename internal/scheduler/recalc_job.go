package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
)

// RangeCalculator is the part of history.Calculator the recalculation job drives
type RangeCalculator interface {
	CalculateRange(ctx context.Context, userID uuid.UUID, start, end time.Time, onProgress history.ProgressFunc) (*history.RangeResult, error)
}

// UserLister lists users that have a ledger
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// RecalcJob rebuilds the trailing window of daily values for every user with a ledger.
// Late-arriving closes replace forward-filled or live-priced days this way.
type RecalcJob struct {
	calculator RangeCalculator
	users      UserLister
	days       int
	log        zerolog.Logger
	now        func() time.Time
}

// NewRecalcJob creates a job recalculating the last days days, today included
func NewRecalcJob(calculator RangeCalculator, users UserLister, days int, log zerolog.Logger) *RecalcJob {
	return &RecalcJob{
		calculator: calculator,
		users:      users,
		days:       days,
		log:        log.With().Str("job", "recalc_daily_values").Logger(),
		now:        time.Now,
	}
}

// Name returns the job name
func (j *RecalcJob) Name() string {
	return "recalc_daily_values"
}

// Run recalculates every user in turn. One user's failure does not stop the others.
func (j *RecalcJob) Run(ctx context.Context) error {
	userIDs, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	end := domain.Day(j.now())
	start := end.AddDate(0, 0, -(j.days - 1))

	var failed, days int
	var prices domain.PriceStats
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := j.calculator.CalculateRange(ctx, userID, start, end, nil)
		if err != nil {
			if errors.Is(err, domain.ErrNoAccounts) {
				j.log.Debug().Str("user_id", userID.String()).Msg("User has no accounts, skipping")
				continue
			}
			failed++
			j.log.Error().Err(err).Str("user_id", userID.String()).Msg("Recalculation failed")
			continue
		}

		days += result.DaysCalculated
		prices.Add(result.PriceStats)
		j.log.Info().
			Str("user_id", userID.String()).
			Str("summary", result.Summary()).
			Msg("User recalculated")
	}

	j.log.Info().
		Int("users", len(userIDs)).
		Int("users_failed", failed).
		Int("days_calculated", days).
		Int("price_exact", prices.Exact).
		Int("price_forward_filled", prices.ForwardFilled).
		Int("price_live_fallback", prices.LiveFallback).
		Int("price_missing", prices.Missing).
		Msg("Recalculation finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d users failed to recalculate", failed, len(userIDs))
	}
	return nil
}
