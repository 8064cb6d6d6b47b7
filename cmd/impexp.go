package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/coinfolio"
)

type importCmd struct {
	format string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV or JSONL file" }
func (*importCmd) Usage() string {
	return `cfl import [-format csv|jsonl] <file>

  Appends the transactions of a file to the ledger. Nothing is imported unless every row is valid.
  The format is guessed from the file extension, "-" reads from the standard input.
  See 'cfl topic csv' for the CSV columns.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "File format, csv or jsonl. Guessed from the extension if empty.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one file to import")
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)
	format, err := formatOf(c.format, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	var r io.Reader = os.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error opening file:", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}
	var txs []coinfolio.Transaction
	if format == "csv" {
		txs, err = coinfolio.DecodeCSV(r)
	} else {
		txs, err = coinfolio.DecodeLedger(r)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", name, err)
		return subcommands.ExitFailure
	}

	return withTracker(ctx, "importing transactions", func(t *coinfolio.Tracker) error {
		n, err := t.Import(ctx, txs)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d transactions\n", n)
		return nil
	})
}

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as CSV or JSONL" }
func (*exportCmd) Usage() string {
	return `cfl export [-format csv|jsonl] [-o <file>]

  Writes every transaction in chronological order. The output can be imported back with 'cfl import'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Output format, csv or jsonl. Guessed from -o, csv by default.")
	f.StringVar(&c.output, "o", "", "Output file. Standard output if empty.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := formatOf(c.format, c.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withTracker(ctx, "exporting transactions", func(t *coinfolio.Tracker) error {
		txs, err := t.Transactions(ctx)
		if err != nil {
			return err
		}
		w := stdout
		if c.output != "" {
			file, err := os.Create(c.output)
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		if format == "jsonl" {
			return coinfolio.EncodeLedger(w, coinfolio.Chronological(txs))
		}
		return coinfolio.EncodeCSV(w, txs)
	})
}

// formatOf returns the explicit format, or the one of the file extension, csv by default.
func formatOf(explicit, name string) (string, error) {
	format := strings.ToLower(explicit)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	}
	switch format {
	case "", "csv":
		return "csv", nil
	case "jsonl", "json":
		return "jsonl", nil
	}
	return "", fmt.Errorf("unknown format %q, want csv or jsonl", format)
}
