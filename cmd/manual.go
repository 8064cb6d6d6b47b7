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

// manualFlags are the fields of a manual balance, shared by manual-add and manual-edit.
type manualFlags struct {
	account string
	symbol  string
	qty     decimalFlag
	notes   string
}

func (m *manualFlags) register(f *flag.FlagSet) {
	f.StringVar(&m.account, "account", "", "Account holding the balance. '"+coinfolio.DefaultManualAccount+"' if empty.")
	f.StringVar(&m.symbol, "symbol", "", "Symbol of the asset.")
	f.Var(&m.qty, "qty", "Quantity held.")
	f.StringVar(&m.notes, "notes", "", "Free text notes.")
}

type manualAddCmd struct {
	manualFlags
}

func (*manualAddCmd) Name() string     { return "manual-add" }
func (*manualAddCmd) Synopsis() string { return "declare a balance held outside the ledger" }
func (*manualAddCmd) Usage() string {
	return `cfl manual-add -symbol <symbol> -qty <qty> [-account <account>] [-notes <text>]

  Declares a balance by hand, for platforms whose transactions are not recorded.
`
}

func (c *manualAddCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *manualAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b := coinfolio.ManualBalance{
		Account:  c.account,
		Symbol:   c.symbol,
		Quantity: c.qty.quantity(),
		Notes:    c.notes,
	}
	return withTracker(ctx, "adding manual balance", func(t *coinfolio.Tracker) error {
		added, err := t.AddManual(ctx, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added manual balance #%d: %s %s on %s\n", added.ID, added.Quantity, added.Symbol, added.Account)
		return nil
	})
}

type manualEditCmd struct {
	manualFlags
}

func (*manualEditCmd) Name() string     { return "manual-edit" }
func (*manualEditCmd) Synopsis() string { return "edit a manual balance" }
func (*manualEditCmd) Usage() string {
	return `cfl manual-edit [-symbol <symbol>] [-qty <qty>] [-account <account>] [-notes <text>] <id>

  Changes the fields given as flags, the others are kept.
`
}

func (c *manualEditCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *manualEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	set := visited(f)
	var p coinfolio.ManualPatch
	if set["account"] {
		p.Account = &c.account
	}
	if set["symbol"] {
		p.Symbol = &c.symbol
	}
	if set["qty"] {
		q := c.qty.quantity()
		p.Quantity = &q
	}
	if set["notes"] {
		p.Notes = &c.notes
	}
	return withTracker(ctx, "editing manual balance", func(t *coinfolio.Tracker) error {
		if err := t.EditManual(ctx, id, p); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Updated manual balance #%d\n", id)
		return nil
	})
}

type manualRmCmd struct{}

func (*manualRmCmd) Name() string     { return "manual-rm" }
func (*manualRmCmd) Synopsis() string { return "remove a manual balance" }
func (*manualRmCmd) Usage() string {
	return `cfl manual-rm <id>
`
}

func (*manualRmCmd) SetFlags(*flag.FlagSet) {}

func (*manualRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withTracker(ctx, "removing manual balance", func(t *coinfolio.Tracker) error {
		if err := t.RemoveManual(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed manual balance #%d\n", id)
		return nil
	})
}

type manualCmd struct{}

func (*manualCmd) Name() string     { return "manual" }
func (*manualCmd) Synopsis() string { return "show the manual balances at current prices" }
func (*manualCmd) Usage() string {
	return `cfl manual

  Lists the manual balances, then their value per account and per symbol at the current prices.
`
}

func (*manualCmd) SetFlags(*flag.FlagSet) {}

func (*manualCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printReport(ctx, f, "computing manual balances", func(t *coinfolio.Tracker) (string, error) {
		o, err := t.ManualOverview(ctx)
		return renderer.ManualMarkdown(o), err
	})
}
