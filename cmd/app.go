// Package cmd implements the cfl command line application to track a crypto portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/config"
	"github.com/etnz/coinfolio/logger"
	"github.com/etnz/coinfolio/oracle"
	"github.com/etnz/coinfolio/store"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "coinfolio.toml", "Path to the configuration file. Defaults apply if it does not exist.")
	dbDSN      = flag.String("db", "", "Database to use, overrides the storage dsn of the configuration.")
	Verbose    = flag.Bool("v", false, "Log debug messages.")
)

// stdout receives the output of every command.
var stdout io.Writer = os.Stdout

// Commands returns every cfl subcommand, by group.
func Commands() map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"transactions":    {&addCmd{}, &editCmd{}, &rmCmd{}, &logCmd{}, &importCmd{}, &exportCmd{}},
		"reports":         {&costBasisCmd{}, &holdingsCmd{}, &accountsCmd{}, &snapshotCmd{}, &snapshotsCmd{}, &performanceCmd{}},
		"manual balances": {&manualAddCmd{}, &manualEditCmd{}, &manualRmCmd{}, &manualCmd{}},
		"administration":  {&serveCmd{}, &migrateCmd{}, &assistCmd{}, &topicCmd{}},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	all := Commands()
	for _, group := range slices.Sorted(maps.Keys(all)) {
		for _, cmd := range all[group] {
			c.Register(cmd, group)
		}
	}
}

// IsCommand reports whether name is a registered subcommand.
func IsCommand(name string) bool {
	for _, cmds := range Commands() {
		for _, cmd := range cmds {
			if cmd.Name() == name {
				return true
			}
		}
	}
	return false
}

// loadConfig reads the configuration file, applies the global flags and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *dbDSN != "" {
		cfg.Storage.DSN = *dbDSN
	}
	if *Verbose {
		cfg.Log.Level = "debug"
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log.Debug().Str("config", *configFile).Str("driver", cfg.Storage.Driver).Msg("configuration loaded")
	return cfg, nil
}

// app holds what a command needs to run. Close must be called when done.
type app struct {
	cfg     *config.Config
	db      *store.DB
	rdb     *redis.Client // nil when the cache is disabled
	tracker *coinfolio.Tracker
}

// openApp loads the configuration, opens the database and wires the price oracle.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	var prices coinfolio.PriceOracle = oracle.NewCoinGecko(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, oracle.NewSymbolTable(cfg.Oracle.Symbols), cfg.Timeout())
	if cfg.Cache.Enabled {
		a.rdb = redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB})
		prices = oracle.NewCache(a.rdb, prices, cfg.Cache.Prefix, cfg.CacheTTL())
	}
	a.tracker = coinfolio.NewTracker(db.Ledger(), db.Snapshots(), db.Manual(), prices)
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close the database")
	}
}

// withTracker runs f against the configured tracker, and reports errors the subcommands way.
func withTracker(ctx context.Context, what string, f func(*coinfolio.Tracker) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error opening portfolio:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := f(a.tracker); err != nil {
		fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it raw when stdout is not one.
func printMarkdown(md string) {
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if out, err := glamour.Render(md, "auto"); err == nil {
			md = out
		} else {
			log.Debug().Err(err).Msg("could not render markdown")
		}
	}
	fmt.Fprint(stdout, md)
}
