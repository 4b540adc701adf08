package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
)

// recalcCmd holds the flags for the 'recalc' subcommand.
type recalcCmd struct {
	user  string
	start string
	end   string
	quiet bool
}

func (*recalcCmd) Name() string     { return "recalc" }
func (*recalcCmd) Synopsis() string { return "recalculate daily values over a date range" }
func (*recalcCmd) Usage() string {
	return `historyctl recalc -user <id> -s <date> [-d <date>] [-q]

  Rebuilds and stores one daily value per calendar day in [-s, -d].
  Interrupting the run stops it between days; continue it with 'historyctl resume'.
`
}

func (c *recalcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID")
	f.StringVar(&c.start, "s", "", "First day of the range (2006-01-02)")
	f.StringVar(&c.end, "d", domain.FormatDay(time.Now()), "Last day of the range (2006-01-02)")
	f.BoolVar(&c.quiet, "q", false, "Do not print progress")
}

func (c *recalcCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	userID, err := parseUser(c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	start, err := domain.ParseDay(c.start)
	if err != nil {
		fail("Error parsing start date: %v", err)
		return subcommands.ExitUsageError
	}
	end, err := domain.ParseDay(c.end)
	if err != nil {
		fail("Error parsing end date: %v", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := a.calculator.CalculateRange(ctx, userID, start, end, c.progress())
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	return report(result)
}

func (c *recalcCmd) progress() history.ProgressFunc {
	if c.quiet {
		return nil
	}
	return printProgress
}

// resumeCmd holds the flags for the 'resume' subcommand.
type resumeCmd struct {
	job   string
	quiet bool
}

func (*resumeCmd) Name() string     { return "resume" }
func (*resumeCmd) Synopsis() string { return "continue a cancelled or failed calculation job" }
func (*resumeCmd) Usage() string {
	return `historyctl resume -job <id> [-q]

  Cancelled jobs continue from their resume marker, failed jobs are recalculated from their start date.
`
}

func (c *resumeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.job, "job", "", "Calculation job ID")
	f.BoolVar(&c.quiet, "q", false, "Do not print progress")
}

func (c *resumeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var progress history.ProgressFunc
	if !c.quiet {
		progress = printProgress
	}

	result, err := a.calculator.ResumeJob(ctx, jobID, progress)
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	return report(result)
}

func printProgress(percent float64, currentDate string) {
	fmt.Fprintf(os.Stderr, "\r%s %5.1f%%", currentDate, percent)
}

func report(result *history.RangeResult) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr)
	fmt.Printf("job %s: %s\n", result.JobID, result.Summary())
	stats := result.PriceStats
	fmt.Printf("prices: %d exact, %d forward-filled, %d live, %d missing\n",
		stats.Exact, stats.ForwardFilled, stats.LiveFallback, stats.Missing)

	if result.Cancelled {
		fmt.Printf("resume with: historyctl resume -job %s\n", result.JobID)
	}
	if !result.Success {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
