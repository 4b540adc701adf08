package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// jobRepository implements domain.JobRepository over calculation_jobs
type jobRepository struct {
	db *DB
}

// NewJobRepository creates a new calculation job repository
func NewJobRepository(db *DB) domain.JobRepository {
	return &jobRepository{db: db}
}

// Create inserts a new job
func (r *jobRepository) Create(ctx context.Context, job *domain.CalculationJob) error {
	query := `
		INSERT INTO calculation_jobs (id, user_id, start_date, end_date, status, progress,
			days_calculated, days_failed, error_message, resume_from, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		domain.FormatDay(job.StartDate),
		domain.FormatDay(job.EndDate),
		string(job.Status),
		job.Progress,
		job.DaysCalculated,
		job.DaysFailed,
		nullString(job.ErrorText),
		nullDay(job.ResumeFrom),
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculation job: %w", err)
	}

	return nil
}

// Update overwrites the mutable columns of a job
func (r *jobRepository) Update(ctx context.Context, job *domain.CalculationJob) error {
	query := `
		UPDATE calculation_jobs
		SET status = $2, progress = $3, days_calculated = $4, days_failed = $5,
			error_message = $6, resume_from = $7, started_at = $8, completed_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID,
		string(job.Status),
		job.Progress,
		job.DaysCalculated,
		job.DaysFailed,
		nullString(job.ErrorText),
		nullDay(job.ResumeFrom),
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update calculation job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("calculation job %s: %w", job.ID, domain.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a job by its ID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CalculationJob, error) {
	query := `
		SELECT id, user_id, start_date, end_date, status, progress, days_calculated, days_failed,
			error_message, resume_from, started_at, completed_at, created_at
		FROM calculation_jobs
		WHERE id = $1
	`

	var job domain.CalculationJob
	var status string
	var errorText sql.NullString
	var resumeFrom, startedAt, completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.UserID,
		&job.StartDate,
		&job.EndDate,
		&status,
		&job.Progress,
		&job.DaysCalculated,
		&job.DaysFailed,
		&errorText,
		&resumeFrom,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("calculation job %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get calculation job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.StartDate = domain.Day(job.StartDate)
	job.EndDate = domain.Day(job.EndDate)
	job.ErrorText = errorText.String
	if resumeFrom.Valid {
		day := domain.Day(resumeFrom.Time)
		job.ResumeFrom = &day
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatDay(*t)
}
