package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
)

// printReport runs a flagless report command.
func printReport(ctx context.Context, f *flag.FlagSet, what string, report func(*coinfolio.Tracker) (string, error)) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: %s takes no arguments\n", f.Name())
		return subcommands.ExitUsageError
	}
	return withTracker(ctx, what, func(t *coinfolio.Tracker) error {
		md, err := report(t)
		if err != nil {
			return err
		}
		printMarkdown(md)
		return nil
	})
}

type costBasisCmd struct{}

func (*costBasisCmd) Name() string     { return "costbasis" }
func (*costBasisCmd) Synopsis() string { return "show the cost basis of every symbol" }
func (*costBasisCmd) Usage() string {
	return `cfl costbasis

  Replays the whole ledger and shows the quantity, total cost and average cost of every symbol.
  Transfers are ignored, a sale removes cost at the average cost.
`
}
func (*costBasisCmd) SetFlags(*flag.FlagSet) {}

func (*costBasisCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "computing cost basis", func(t *coinfolio.Tracker) (string, error) {
		positions, err := t.CostBasis(ctx)
		return renderer.CostBasisMarkdown(positions), err
	})
}

type holdingsCmd struct{}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show the current value of the portfolio" }
func (*holdingsCmd) Usage() string {
	return `cfl holdings

  Values the net quantities of the ledger, transfers included, at the current prices.
`
}
func (*holdingsCmd) SetFlags(*flag.FlagSet) {}

func (*holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "computing holdings", func(t *coinfolio.Tracker) (string, error) {
		v, err := t.Current(ctx)
		return renderer.HoldingsMarkdown(v), err
	})
}

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "show the current value of every account" }
func (*accountsCmd) Usage() string {
	return `cfl accounts

  Values the quantities held on every account, transfers included, at the current prices.
`
}
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (*accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "computing account balances", func(t *coinfolio.Tracker) (string, error) {
		balances, err := t.AccountBalances(ctx)
		return renderer.AccountsMarkdown(balances), err
	})
}

type snapshotsCmd struct{}

func (*snapshotsCmd) Name() string     { return "snapshots" }
func (*snapshotsCmd) Synopsis() string { return "list the recorded snapshots" }
func (*snapshotsCmd) Usage() string {
	return `cfl snapshots

  Lists the recorded portfolio values, newest first.
`
}
func (*snapshotsCmd) SetFlags(*flag.FlagSet) {}

func (*snapshotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "listing snapshots", func(t *coinfolio.Tracker) (string, error) {
		snapshots, err := t.Snapshots(ctx)
		return renderer.SnapshotsMarkdown(snapshots), err
	})
}

type performanceCmd struct{}

func (*performanceCmd) Name() string { return "performance" }
func (*performanceCmd) Synopsis() string {
	return "show the change of value over the last day, week, month and year"
}
func (*performanceCmd) Usage() string {
	return `cfl performance

  Compares the latest snapshot with the latest one recorded on or before each reference date.
  Record snapshots regularly with 'cfl snapshot' for this report to be meaningful.
`
}
func (*performanceCmd) SetFlags(*flag.FlagSet) {}

func (*performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "computing performance", func(t *coinfolio.Tracker) (string, error) {
		p, err := t.Performance(ctx)
		return renderer.PerformanceMarkdown(p), err
	})
}
