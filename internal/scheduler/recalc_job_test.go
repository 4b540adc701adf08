package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
)

// MockRangeCalculator is a mock implementation of RangeCalculator for testing
type MockRangeCalculator struct {
	mock.Mock
}

func (m *MockRangeCalculator) CalculateRange(ctx context.Context, userID uuid.UUID, start, end time.Time, onProgress history.ProgressFunc) (*history.RangeResult, error) {
	args := m.Called(ctx, userID, start, end, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.RangeResult), args.Error(1)
}

// MockUserLister is a mock implementation of UserLister for testing
type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func newTestJob(days int) (*RecalcJob, *MockRangeCalculator, *MockUserLister) {
	calculator := new(MockRangeCalculator)
	users := new(MockUserLister)
	job := NewRecalcJob(calculator, users, days, zerolog.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC) }
	return job, calculator, users
}

func TestRecalcJob_Run(t *testing.T) {
	ctx := context.Background()
	job, calculator, users := newTestJob(7)
	alice, bob := uuid.New(), uuid.New()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	users.On("ListUserIDs", ctx).Return([]uuid.UUID{alice, bob}, nil)
	calculator.On("CalculateRange", ctx, alice, start, end, mock.Anything).
		Return(&history.RangeResult{DaysCalculated: 7, Success: true}, nil)
	calculator.On("CalculateRange", ctx, bob, start, end, mock.Anything).
		Return(nil, domain.ErrNoAccounts)

	err := job.Run(ctx)

	require.NoError(t, err, "users without accounts are skipped")
	calculator.AssertExpectations(t)
}

func TestRecalcJob_Run_LogsPriceTierTotals(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	calculator := new(MockRangeCalculator)
	users := new(MockUserLister)
	job := NewRecalcJob(calculator, users, 3, zerolog.New(&buf))
	alice, bob := uuid.New(), uuid.New()

	users.On("ListUserIDs", ctx).Return([]uuid.UUID{alice, bob}, nil)
	calculator.On("CalculateRange", ctx, alice, mock.Anything, mock.Anything, mock.Anything).
		Return(&history.RangeResult{DaysCalculated: 3, Success: true,
			PriceStats: domain.PriceStats{Exact: 4, ForwardFilled: 2}}, nil)
	calculator.On("CalculateRange", ctx, bob, mock.Anything, mock.Anything, mock.Anything).
		Return(&history.RangeResult{DaysCalculated: 3, Success: true,
			PriceStats: domain.PriceStats{Exact: 1, LiveFallback: 1, Missing: 3}}, nil)

	require.NoError(t, job.Run(ctx))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var summary map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &summary))
	assert.Equal(t, "Recalculation finished", summary["message"])
	assert.EqualValues(t, 6, summary["days_calculated"])
	assert.EqualValues(t, 5, summary["price_exact"])
	assert.EqualValues(t, 2, summary["price_forward_filled"])
	assert.EqualValues(t, 1, summary["price_live_fallback"])
	assert.EqualValues(t, 3, summary["price_missing"])
}

func TestRecalcJob_Run_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	job, calculator, users := newTestJob(1)
	alice, bob := uuid.New(), uuid.New()

	users.On("ListUserIDs", ctx).Return([]uuid.UUID{alice, bob}, nil)
	calculator.On("CalculateRange", ctx, alice, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	calculator.On("CalculateRange", ctx, bob, mock.Anything, mock.Anything, mock.Anything).
		Return(&history.RangeResult{DaysCalculated: 1, Success: true}, nil)

	err := job.Run(ctx)

	assert.EqualError(t, err, "1 of 2 users failed to recalculate")
	calculator.AssertNumberOfCalls(t, "CalculateRange", 2)
}

func TestRecalcJob_Run_ListUsersFails(t *testing.T) {
	ctx := context.Background()
	job, calculator, users := newTestJob(7)

	users.On("ListUserIDs", ctx).Return(nil, errors.New("timeout"))

	err := job.Run(ctx)

	assert.ErrorContains(t, err, "failed to list users")
	calculator.AssertNotCalled(t, "CalculateRange")
}

func TestRecalcJob_Run_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, calculator, users := newTestJob(7)

	users.On("ListUserIDs", ctx).Return([]uuid.UUID{uuid.New()}, nil)

	err := job.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	calculator.AssertNotCalled(t, "CalculateRange")
}

func TestScheduler_AddJobRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())
	job, _, _ := newTestJob(1)

	assert.Error(t, s.AddJob("not a schedule", job))
	assert.NoError(t, s.AddJob("30 2 * * *", job))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job, _, users := newTestJob(1)
	users.On("ListUserIDs", mock.Anything).Return([]uuid.UUID{}, nil)

	require.NoError(t, s.RunNow(job))
	users.AssertExpectations(t)
}
