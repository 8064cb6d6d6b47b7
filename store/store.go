// Package store persists the ledger, snapshots and manual balances in SQLite or PostgreSQL.
//
// Tables keep the names and column names of the historical database so that an existing file can be opened
// and upgraded in place by the migrations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/etnz/coinfolio"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// DB is an open, migrated database.
type DB struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and applies pending migrations.
//
// driver is SQLite (dsn is a file path) or Postgres (dsn is a pgx connection string, "pgx" is accepted as an alias).
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch strings.ToLower(driver) {
	case SQLite, "":
		driver = SQLite
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
	case Postgres, "pgx":
		driver = Postgres
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	s := &DB{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not migrate %s database: %w", driver, err)
	}
	log.Debug().Str("driver", driver).Msg("database ready")
	return s, nil
}

func (s *DB) Close() error { return s.db.Close() }

// Driver returns SQLite or Postgres.
func (s *DB) Driver() string { return s.driver }

// Ledger returns the transactions table as a coinfolio.LedgerStore.
func (s *DB) Ledger() *Ledger { return &Ledger{s} }

// Snapshots returns the snapshots table as a coinfolio.SnapshotStore.
func (s *DB) Snapshots() *Snapshots { return &Snapshots{s} }

// Manual returns the manual balances table as a coinfolio.ManualStore.
func (s *DB) Manual() *Manual { return &Manual{s} }

// rebind rewrites '?' placeholders into '$n' for PostgreSQL.
func (s *DB) rebind(query string) string {
	if s.driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// placeholders returns "?, ?, ..." for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// affected reports whether res changed at least one row.
func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var (
	_ coinfolio.LedgerStore   = (*Ledger)(nil)
	_ coinfolio.SnapshotStore = (*Snapshots)(nil)
	_ coinfolio.ManualStore   = (*Manual)(nil)
)
