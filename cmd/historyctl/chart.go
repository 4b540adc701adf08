package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/adapter/chart"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// chartCmd holds the flags for the 'chart' subcommand.
type chartCmd struct {
	user     string
	start    string
	end      string
	currency string
	output   string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render stored daily values as a PNG chart" }
func (*chartCmd) Usage() string {
	return `historyctl chart -user <id> -s <date> [-d <date>] [-c <currency>] [-o <file>]

  Plots total value against cost basis plus cash from the stored history.
  Run 'historyctl recalc' first for days that have no record.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID")
	f.StringVar(&c.start, "s", "", "First day (2006-01-02)")
	f.StringVar(&c.end, "d", domain.FormatDay(time.Now()), "Last day (2006-01-02)")
	f.StringVar(&c.currency, "c", chart.DefaultCurrency, "Currency used for axis labels")
	f.StringVar(&c.output, "o", "history.png", "Output file")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	values, err := a.valuation.ListDailyValues(ctx, userID, start, end)
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}

	png, err := chart.RenderValueChart(values, c.currency)
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.output, png, 0o644); err != nil {
		fail("Error writing %s: %v", c.output, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%d days written to %s\n", len(values), c.output)
	return subcommands.ExitSuccess
}
