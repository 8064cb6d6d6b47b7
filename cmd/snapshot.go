package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/coinfolio"
)

type snapshotCmd struct {
	date string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record the current value of the portfolio" }
func (*snapshotCmd) Usage() string {
	return `cfl snapshot [-d <date>]

  Records the value of the portfolio in the snapshot history.
  With -d, only the transactions up to that date are replayed, valued at today's prices.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Record the snapshot as of this date. See 'cfl topic dates' for the accepted formats.")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var on coinfolio.Date
	if c.date != "" {
		var err error
		if on, err = coinfolio.ParseDate(c.date); err != nil {
			fmt.Fprintln(os.Stderr, "Error parsing date:", err)
			return subcommands.ExitUsageError
		}
	}
	return withTracker(ctx, "recording snapshot", func(t *coinfolio.Tracker) error {
		var snap coinfolio.Snapshot
		var err error
		if on.IsZero() {
			snap, err = t.RecordSnapshot(ctx)
		} else {
			snap, err = t.RecordSnapshotAt(ctx, on)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Recorded snapshot #%d on %s: %s\n", snap.ID, snap.Date, snap.TotalValue)
		return nil
	})
}
