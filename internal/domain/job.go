package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the persisted state of a range calculation
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

var (
	ErrInvalidJobTransition = errors.New("invalid job status transition")
	ErrJobNotResumable      = errors.New("job cannot be resumed")
)

// IsTerminal reports whether no further transition is allowed from s (except resuming)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// CalculationJob tracks one CalculateRange run
type CalculationJob struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Status         JobStatus
	Progress       float64 // 0..100
	DaysCalculated int
	DaysFailed     int
	ErrorText      string
	ResumeFrom     *time.Time // first day not yet attempted, set when cancelled
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// NewCalculationJob creates a pending job for [start, end]
func NewCalculationJob(userID uuid.UUID, start, end time.Time, now time.Time) *CalculationJob {
	return &CalculationJob{
		ID:        uuid.New(),
		UserID:    userID,
		StartDate: Day(start),
		EndDate:   Day(end),
		Status:    JobStatusPending,
		CreatedAt: now,
	}
}

// Start moves pending -> running and records the start timestamp
func (j *CalculationJob) Start(now time.Time) error {
	if j.Status != JobStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.Status, JobStatusRunning)
	}
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.ResumeFrom = nil
	return nil
}

// Finish moves running -> completed, failed or cancelled
func (j *CalculationJob) Finish(status JobStatus, now time.Time) error {
	if j.Status != JobStatusRunning || !status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.Status, status)
	}
	j.Status = status
	j.CompletedAt = &now
	return nil
}

// Resume reopens a cancelled or failed job so it can run again from ResumeFrom.
// Completed jobs are never reopened.
func (j *CalculationJob) Resume() (time.Time, error) {
	switch j.Status {
	case JobStatusCancelled, JobStatusFailed:
	default:
		return time.Time{}, fmt.Errorf("%w: status is %s", ErrJobNotResumable, j.Status)
	}

	from := j.StartDate
	if j.ResumeFrom != nil {
		from = *j.ResumeFrom
	}
	if from.After(j.EndDate) {
		return time.Time{}, fmt.Errorf("%w: nothing left to calculate", ErrJobNotResumable)
	}

	j.Status = JobStatusPending
	return from, nil
}
