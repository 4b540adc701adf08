// Command historyctl recalculates and inspects portfolio value history from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&recalcCmd{}, "calculation")
	commander.Register(&resumeCmd{}, "calculation")
	commander.Register(&jobCmd{}, "calculation")
	commander.Register(&valueCmd{}, "history")
	commander.Register(&chartCmd{}, "history")

	flag.Parse()

	// Interrupting a range run stops it between days and keeps the resume marker
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(int(commander.Execute(ctx)))
}
