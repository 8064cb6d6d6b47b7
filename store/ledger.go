package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/etnz/coinfolio"
)

// Ledger is the transactions table.
type Ledger struct{ db *DB }

const txColumns = `id, date, type, notes, account, fromSymbol, fromQuantity, fromPrice,
  toSymbol, toQuantity, toPrice, fromAccount, toAccount`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (coinfolio.Transaction, error) {
	var (
		tx                                                  coinfolio.Transaction
		typ, notes, account, fromSymbol, toSymbol, from, to sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.Date, &typ, &notes, &account,
		&fromSymbol, &tx.FromQuantity, &tx.FromPrice,
		&toSymbol, &tx.ToQuantity, &tx.ToPrice,
		&from, &to)
	tx.Type = coinfolio.TxType(typ.String)
	tx.Notes = notes.String
	tx.Account = account.String
	tx.FromSymbol = fromSymbol.String
	tx.ToSymbol = toSymbol.String
	tx.FromAccount = from.String
	tx.ToAccount = to.String
	return tx, err
}

func (l *Ledger) list(ctx context.Context, where string, args ...any) ([]coinfolio.Transaction, error) {
	rows, err := l.db.query(ctx, "SELECT "+txColumns+" FROM transactions "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []coinfolio.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (l *Ledger) ListAll(ctx context.Context) ([]coinfolio.Transaction, error) {
	return l.list(ctx, "")
}

func (l *Ledger) ListByAccount(ctx context.Context, account string) ([]coinfolio.Transaction, error) {
	return l.list(ctx, "WHERE account = ? OR fromAccount = ? OR toAccount = ?", account, account, account)
}

func (l *Ledger) ListUpTo(ctx context.Context, on coinfolio.Date) ([]coinfolio.Transaction, error) {
	return l.list(ctx, "WHERE date <= ?", on)
}

// Get returns a single transaction, ok is false if there is no such id.
func (l *Ledger) Get(ctx context.Context, id int64) (tx coinfolio.Transaction, ok bool, err error) {
	tx, err = scanTransaction(l.db.queryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return tx, false, nil
	}
	return tx, err == nil, err
}

func (l *Ledger) Insert(ctx context.Context, tx coinfolio.Transaction) (int64, error) {
	var id int64
	err := l.db.queryRow(ctx, `INSERT INTO transactions(date, type, notes, account, fromSymbol, fromQuantity, fromPrice,
  toSymbol, toQuantity, toPrice, fromAccount, toAccount)
VALUES(`+placeholders(12)+`) RETURNING id`,
		tx.Date, string(tx.Type), tx.Notes, tx.Account, tx.FromSymbol, tx.FromQuantity, tx.FromPrice,
		tx.ToSymbol, tx.ToQuantity, tx.ToPrice, tx.FromAccount, tx.ToAccount,
	).Scan(&id)
	return id, err
}

// Update reads the row, applies the patch and writes every column back.
func (l *Ledger) Update(ctx context.Context, id int64, p coinfolio.Patch) (bool, error) {
	tx, ok, err := l.Get(ctx, id)
	if !ok || err != nil {
		return false, err
	}
	tx = p.Apply(tx)
	return affected(l.db.exec(ctx, `UPDATE transactions SET date = ?, type = ?, notes = ?, account = ?,
  fromSymbol = ?, fromQuantity = ?, fromPrice = ?, toSymbol = ?, toQuantity = ?, toPrice = ?,
  fromAccount = ?, toAccount = ?
WHERE id = ?`,
		tx.Date, string(tx.Type), tx.Notes, tx.Account, tx.FromSymbol, tx.FromQuantity, tx.FromPrice,
		tx.ToSymbol, tx.ToQuantity, tx.ToPrice, tx.FromAccount, tx.ToAccount, id))
}

func (l *Ledger) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(l.db.exec(ctx, "DELETE FROM transactions WHERE id = ?", id))
}

func (l *Ledger) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := l.db.exec(ctx, "DELETE FROM transactions WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
