package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// jobCmd holds the flags for the 'job' subcommand.
type jobCmd struct {
	job string
}

func (*jobCmd) Name() string     { return "job" }
func (*jobCmd) Synopsis() string { return "show a calculation job" }
func (*jobCmd) Usage() string {
	return `historyctl job -job <id>
`
}

func (c *jobCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.job, "job", "", "Calculation job ID")
}

func (c *jobCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	jobID, err := parseJob(c.job)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	job, err := a.calculator.GetJob(ctx, jobID)
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("job:       %s\n", job.ID)
	fmt.Printf("user:      %s\n", job.UserID)
	fmt.Printf("range:     %s .. %s\n", domain.FormatDay(job.StartDate), domain.FormatDay(job.EndDate))
	fmt.Printf("status:    %s (%.1f%%)\n", job.Status, job.Progress)
	fmt.Printf("days:      %d calculated, %d failed\n", job.DaysCalculated, job.DaysFailed)
	if job.ResumeFrom != nil {
		fmt.Printf("resume at: %s\n", domain.FormatDay(*job.ResumeFrom))
	}
	if job.StartedAt != nil {
		fmt.Printf("started:   %s\n", job.StartedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("completed: %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	if job.ErrorText != "" {
		fmt.Printf("errors:\n%s\n", job.ErrorText)
	}
	return subcommands.ExitSuccess
}

func parseJob(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("-job is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -job %q: %w", s, err)
	}
	return id, nil
}
