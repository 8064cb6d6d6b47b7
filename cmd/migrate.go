package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/coinfolio/store"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or upgrade the database schema" }
func (*migrateCmd) Usage() string {
	return `cfl migrate

  Applies the pending schema migrations and prints the database version.
  Every command migrates the database when it opens it, this one only does that.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		return subcommands.ExitFailure
	}
	db, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error opening database:", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	version, err := db.Version(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading database version:", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Database at version %d\n", version)
	return subcommands.ExitSuccess
}
