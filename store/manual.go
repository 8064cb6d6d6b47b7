package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/etnz/coinfolio"
)

// Manual is the manual_balances table.
type Manual struct{ db *DB }

func scanBalance(row scanner) (coinfolio.ManualBalance, error) {
	var (
		b                      coinfolio.ManualBalance
		account, symbol, notes sql.NullString
	)
	err := row.Scan(&b.ID, &account, &symbol, &b.Quantity, &notes)
	b.Account = account.String
	b.Symbol = symbol.String
	b.Notes = notes.String
	return b.Normalize(), err
}

func (m *Manual) List(ctx context.Context) ([]coinfolio.ManualBalance, error) {
	rows, err := m.db.query(ctx, "SELECT id, account, symbol, quantity, notes FROM manual_balances ORDER BY account, symbol, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []coinfolio.ManualBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (m *Manual) Insert(ctx context.Context, b coinfolio.ManualBalance) (int64, error) {
	var id int64
	err := m.db.queryRow(ctx, "INSERT INTO manual_balances(account, symbol, quantity, notes) VALUES(?, ?, ?, ?) RETURNING id",
		b.Account, b.Symbol, b.Quantity, b.Notes).Scan(&id)
	return id, err
}

func (m *Manual) Update(ctx context.Context, id int64, p coinfolio.ManualPatch) (bool, error) {
	b, err := scanBalance(m.db.queryRow(ctx, "SELECT id, account, symbol, quantity, notes FROM manual_balances WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	b = p.Apply(b)
	return affected(m.db.exec(ctx, "UPDATE manual_balances SET account = ?, symbol = ?, quantity = ?, notes = ? WHERE id = ?",
		b.Account, b.Symbol, b.Quantity, b.Notes, id))
}

func (m *Manual) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(m.db.exec(ctx, "DELETE FROM manual_balances WHERE id = ?", id))
}
