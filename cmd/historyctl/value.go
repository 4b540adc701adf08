package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/adapter/chart"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// valueCmd holds the flags for the 'value' subcommand.
type valueCmd struct {
	user     string
	date     string
	currency string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a single day and store it" }
func (*valueCmd) Usage() string {
	return `historyctl value -user <id> [-d <date>] [-c <currency>]

  Values the portfolio on one day, stores the record and prints its breakdowns.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID")
	f.StringVar(&c.date, "d", domain.FormatDay(time.Now()), "Day to value (2006-01-02)")
	f.StringVar(&c.currency, "c", chart.DefaultCurrency, "Currency used to display amounts")
}

func (c *valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	userID, err := parseUser(c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	day, err := domain.ParseDay(c.date)
	if err != nil {
		fail("Error parsing date: %v", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	value, err := a.valuation.ValueOn(ctx, userID, day)
	if err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}

	money := func(v decimal.Decimal) string { return chart.FormatMoney(v, c.currency) }

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Date\t%s\t\n", domain.FormatDay(value.Date))
	fmt.Fprintf(w, "Total value\t%s\t\n", money(value.TotalValue))
	fmt.Fprintf(w, "Cash\t%s\t\n", money(value.CashValue))
	fmt.Fprintf(w, "Invested\t%s\t\n", money(value.InvestedValue))
	fmt.Fprintf(w, "Cost basis\t%s\t\n", money(value.TotalCostBasis))
	fmt.Fprintf(w, "Unrealized gain\t%s\t\n", money(value.UnrealizedGain))
	fmt.Fprintf(w, "Realized gain\t%s\t\n", money(value.RealizedGain))
	fmt.Fprintf(w, "Data quality\t%.2f\t\n", value.DataQuality)
	fmt.Fprintln(w, "\t\t")

	symbols := make([]string, 0, len(value.TickerBreakdown))
	for symbol := range value.TickerBreakdown {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		tv := value.TickerBreakdown[symbol]
		fmt.Fprintf(w, "%s\t%s x %s\t%s\t\n", symbol, tv.Quantity, money(tv.Price), money(tv.Value))
	}

	classes := make([]string, 0, len(value.AssetClassBreakdown))
	for class := range value.AssetClassBreakdown {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Fprintf(w, "[%s]\t%s\t\n", class, money(value.AssetClassBreakdown[class]))
	}

	if err := w.Flush(); err != nil {
		fail("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
