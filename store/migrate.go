package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// migration is one schema step. Steps are applied in order, each in its own transaction, and recorded in
// schema_migrations.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx, driver string) error
}

var migrations = []migration{
	{1, "transactions", createTransactions},
	{2, "transaction accounts", addAccountColumns},
	{3, "snapshots", createSnapshots},
	{4, "manual balances", createManualBalances},
	{5, "indexes", createIndexes},
}

// autoID returns the auto increment primary key column type.
func autoID(driver string) string {
	if driver == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// floatType returns the floating point column type.
func floatType(driver string) string {
	if driver == Postgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

// createTransactions creates the historical transactions table, before accounts were tracked.
func createTransactions(ctx context.Context, tx *sql.Tx, driver string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS transactions (
  id %[1]s,
  date TEXT,
  type TEXT,
  notes TEXT,
  fromSymbol TEXT,
  fromQuantity %[2]s,
  fromPrice %[2]s,
  toSymbol TEXT,
  toQuantity %[2]s,
  toPrice %[2]s
)`, autoID(driver), floatType(driver)))
	return err
}

// addAccountColumns adds account, fromAccount and toAccount to databases created before they existed.
func addAccountColumns(ctx context.Context, tx *sql.Tx, driver string) error {
	columns := []string{"account", "fromAccount", "toAccount"}
	if driver == Postgres {
		for _, c := range columns {
			if _, err := tx.ExecContext(ctx, "ALTER TABLE transactions ADD COLUMN IF NOT EXISTS "+c+" TEXT"); err != nil {
				return err
			}
		}
		return nil
	}

	existing, err := sqliteColumns(ctx, tx, "transactions")
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "ALTER TABLE transactions ADD COLUMN "+c+" TEXT"); err != nil {
			return err
		}
	}
	return nil
}

// sqliteColumns returns the set of column names of a table.
func sqliteColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info('"+table+"')")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

func createSnapshots(ctx context.Context, tx *sql.Tx, driver string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS portfolio_snapshots (
  id %s,
  date TEXT,
  totalValue %s
)`, autoID(driver), floatType(driver)))
	return err
}

func createManualBalances(ctx context.Context, tx *sql.Tx, driver string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS manual_balances (
  id %s,
  account TEXT,
  symbol TEXT,
  quantity %s,
  notes TEXT
)`, autoID(driver), floatType(driver)))
	return err
}

func createIndexes(ctx context.Context, tx *sql.Tx, _ string) error {
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account)",
		"CREATE INDEX IF NOT EXISTS idx_snapshots_date ON portfolio_snapshots(date)",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Version returns the latest applied migration.
func (s *DB) Version(ctx context.Context) (int, error) {
	var v sql.NullInt64
	err := s.queryRow(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v)
	return int(v.Int64), err
}

// migrate applies every migration newer than the recorded version.
func (s *DB) migrate(ctx context.Context) error {
	if _, err := s.exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
)`); err != nil {
		return err
	}
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Info().Int("version", m.version).Str("name", m.name).Msg("applied migration")
	}
	return nil
}

func (s *DB) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.up(ctx, tx, s.driver); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"),
		m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}
