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

// txFlags are the fields of a transaction, shared by add and edit.
type txFlags struct {
	date        string
	typ         string
	notes       string
	account     string
	from        string
	fromQty     decimalFlag
	fromPrice   decimalFlag
	to          string
	toQty       decimalFlag
	toPrice     decimalFlag
	fromAccount string
	toAccount   string
}

func (t *txFlags) register(f *flag.FlagSet, defaultDate string) {
	f.StringVar(&t.date, "d", defaultDate, "Transaction date. See 'cfl topic dates' for the accepted formats.")
	f.StringVar(&t.typ, "type", "", "Transaction type: buy, sell, swap, transfer or other.")
	f.StringVar(&t.notes, "notes", "", "Free text notes.")
	f.StringVar(&t.account, "account", "", "Account (exchange or wallet) the transaction is booked on.")
	f.StringVar(&t.from, "from", "", "Symbol of the asset leaving the position.")
	f.Var(&t.fromQty, "from-qty", "Quantity of the asset leaving the position.")
	f.Var(&t.fromPrice, "from-price", "USD unit price of the asset leaving the position. The current price if missing.")
	f.StringVar(&t.to, "to", "", "Symbol of the asset entering the position.")
	f.Var(&t.toQty, "to-qty", "Quantity of the asset entering the position.")
	f.Var(&t.toPrice, "to-price", "USD unit price of the asset entering the position. The current price if missing.")
	f.StringVar(&t.fromAccount, "from-account", "", "Source account of a transfer.")
	f.StringVar(&t.toAccount, "to-account", "", "Destination account of a transfer.")
}

type addCmd struct {
	txFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a transaction to the ledger" }
func (*addCmd) Usage() string {
	return `cfl add -type <type> [-d <date>] [-account <account>] [-from <symbol> -from-qty <qty> [-from-price <usd>]] [-to <symbol> -to-qty <qty> [-to-price <usd>]] [-from-account <account>] [-to-account <account>] [-notes <text>]

  Adds a transaction. A buy usually only has a "to" leg, a sell a "from" leg and a swap both.
  Missing leg prices are filled with the current price.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.register(f, "0d") }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := coinfolio.ParseDate(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing date:", err)
		return subcommands.ExitUsageError
	}
	tx := coinfolio.Transaction{
		Date:         on,
		Type:         coinfolio.TxType(c.typ),
		Notes:        c.notes,
		Account:      c.account,
		FromSymbol:   c.from,
		FromQuantity: c.fromQty.quantity(),
		FromPrice:    c.fromPrice.money(),
		ToSymbol:     c.to,
		ToQuantity:   c.toQty.quantity(),
		ToPrice:      c.toPrice.money(),
		FromAccount:  c.fromAccount,
		ToAccount:    c.toAccount,
	}
	return withTracker(ctx, "adding transaction", func(t *coinfolio.Tracker) error {
		added, err := t.Add(ctx, tx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added transaction #%d: %s\n", added.ID, renderer.Transaction(added))
		return nil
	})
}

type editCmd struct {
	txFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a transaction" }
func (*editCmd) Usage() string {
	return `cfl edit [flags] <id>

  Changes the fields given as flags, the others are kept. Flags are the same as 'cfl add'.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) { c.register(f, "") }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	p, err := c.patch(visited(f))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withTracker(ctx, "editing transaction", func(t *coinfolio.Tracker) error {
		if err := t.Edit(ctx, id, p); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Updated transaction #%d\n", id)
		return nil
	})
}

// patch returns the partial update made of the flags set.
func (c *editCmd) patch(set map[string]bool) (coinfolio.Patch, error) {
	var p coinfolio.Patch
	if set["d"] {
		on, err := coinfolio.ParseDate(c.date)
		if err != nil {
			return p, err
		}
		p.Date = &on
	}
	if set["type"] {
		typ := coinfolio.TxType(c.typ)
		p.Type = &typ
	}
	strs := []struct {
		flag  string
		value *string
		field **string
	}{
		{"notes", &c.notes, &p.Notes},
		{"account", &c.account, &p.Account},
		{"from", &c.from, &p.FromSymbol},
		{"to", &c.to, &p.ToSymbol},
		{"from-account", &c.fromAccount, &p.FromAccount},
		{"to-account", &c.toAccount, &p.ToAccount},
	}
	for _, s := range strs {
		if set[s.flag] {
			*s.field = s.value
		}
	}
	if set["from-qty"] {
		q := c.fromQty.quantity()
		p.FromQuantity = &q
	}
	if set["to-qty"] {
		q := c.toQty.quantity()
		p.ToQuantity = &q
	}
	if set["from-price"] {
		m := c.fromPrice.money()
		p.FromPrice = &m
	}
	if set["to-price"] {
		m := c.toPrice.money()
		p.ToPrice = &m
	}
	return p, nil
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove transactions" }
func (*rmCmd) Usage() string {
	return `cfl rm <id>...

  Removes the transactions with the given ids.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil || len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "Error: expected one or more transaction ids")
		return subcommands.ExitUsageError
	}
	return withTracker(ctx, "removing transactions", func(t *coinfolio.Tracker) error {
		if len(ids) == 1 {
			if err := t.Remove(ctx, ids[0]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Removed transaction #%d\n", ids[0])
			return nil
		}
		n, err := t.RemoveAll(ctx, ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %d transactions\n", n)
		return nil
	})
}
