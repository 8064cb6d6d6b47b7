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

type logCmd struct {
	account string
	date    string
	head    int
	tail    int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the transactions in chronological order" }
func (*logCmd) Usage() string {
	return `cfl log [-account <account>] [-d <date>] [-head <n> | -tail <n>]

  Lists the ledger transactions, oldest first.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only list transactions involving this account.")
	f.StringVar(&c.date, "d", "", "Only list transactions on or before this date.")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	var filters []func(coinfolio.Transaction) bool
	if c.account != "" {
		filters = append(filters, coinfolio.ByAccount(c.account))
	}
	if c.date != "" {
		on, err := coinfolio.ParseDate(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error parsing date:", err)
			return subcommands.ExitUsageError
		}
		filters = append(filters, coinfolio.UpTo(on))
	}

	return withTracker(ctx, "listing transactions", func(t *coinfolio.Tracker) error {
		all, err := t.Transactions(ctx)
		if err != nil {
			return err
		}
		var txs []coinfolio.Transaction
	next:
		for _, tx := range coinfolio.Chronological(all) {
			for _, keep := range filters {
				if !keep(tx) {
					continue next
				}
			}
			txs = append(txs, tx)
		}
		if c.head > 0 && len(txs) > c.head {
			txs = txs[:c.head]
		}
		if c.tail > 0 && len(txs) > c.tail {
			txs = txs[len(txs)-c.tail:]
		}
		printMarkdown(renderer.LogMarkdown(txs))
		return nil
	})
}
