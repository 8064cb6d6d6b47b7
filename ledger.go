package coinfolio

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// LedgerStore is the storage of the ledger.
//
// Listing methods return transactions ordered by id. Ordering by date is the replay's job.
type LedgerStore interface {
	// ListAll returns every transaction.
	ListAll(ctx context.Context) ([]Transaction, error)
	// ListByAccount returns the transactions whose account, fromAccount or toAccount is the given name.
	ListByAccount(ctx context.Context, account string) ([]Transaction, error)
	// ListUpTo returns the transactions dated on or before the given day.
	ListUpTo(ctx context.Context, on Date) ([]Transaction, error)
	// Insert appends a transaction and returns its new id. tx.ID is ignored.
	Insert(ctx context.Context, tx Transaction) (int64, error)
	// Update applies a partial update, it reports false if there is no such id.
	Update(ctx context.Context, id int64, p Patch) (bool, error)
	// Delete removes a transaction, it reports false if there is no such id.
	Delete(ctx context.Context, id int64) (bool, error)
	// BatchDelete removes every listed transaction and returns how many were removed.
	BatchDelete(ctx context.Context, ids []int64) (int64, error)
}

// Ledger is an in-memory LedgerStore. Its zero value is an empty ledger.
type Ledger struct {
	mu     sync.RWMutex
	txs    []Transaction // by id
	lastID int64
}

// NewLedger creates a ledger holding txs. Transactions without an id are given one
// after the highest explicit id.
func NewLedger(txs ...Transaction) *Ledger {
	l := &Ledger{}
	for _, tx := range txs {
		l.lastID = max(l.lastID, tx.ID)
	}
	for _, tx := range txs {
		if tx.ID == 0 {
			l.lastID++
			tx.ID = l.lastID
		}
		l.txs = append(l.txs, tx)
	}
	slices.SortStableFunc(l.txs, func(a, b Transaction) int { return cmp.Compare(a.ID, b.ID) })
	return l
}

// list returns a copy of the transactions matching all filters.
func (l *Ledger) list(filters ...func(Transaction) bool) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
next:
	for _, tx := range l.txs {
		for _, keep := range filters {
			if !keep(tx) {
				continue next
			}
		}
		out = append(out, tx)
	}
	return out
}

func (l *Ledger) ListAll(_ context.Context) ([]Transaction, error) { return l.list(), nil }

func (l *Ledger) ListByAccount(_ context.Context, account string) ([]Transaction, error) {
	return l.list(ByAccount(account)), nil
}

func (l *Ledger) ListUpTo(_ context.Context, on Date) ([]Transaction, error) {
	return l.list(UpTo(on)), nil
}

func (l *Ledger) Insert(_ context.Context, tx Transaction) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastID++
	tx.ID = l.lastID
	l.txs = append(l.txs, tx)
	return tx.ID, nil
}

func (l *Ledger) Update(_ context.Context, id int64, p Patch) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	l.txs[i] = p.Apply(l.txs[i])
	return true, nil
}

func (l *Ledger) Delete(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	l.txs = slices.Delete(l.txs, i, i+1)
	return true, nil
}

func (l *Ledger) BatchDelete(_ context.Context, ids []int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.txs)
	l.txs = slices.DeleteFunc(l.txs, func(tx Transaction) bool { return slices.Contains(ids, tx.ID) })
	return int64(before - len(l.txs)), nil
}

// index returns the position of id in l.txs, or -1. Caller holds the lock.
func (l *Ledger) index(id int64) int {
	i, found := slices.BinarySearchFunc(l.txs, id, func(tx Transaction, id int64) int { return cmp.Compare(tx.ID, id) })
	if !found {
		return -1
	}
	return i
}

// ByAccount is a filter for transactions involving the account.
func ByAccount(account string) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Involves(account) }
}

// UpTo is a filter for transactions dated on or before a day.
func UpTo(on Date) func(Transaction) bool {
	return func(tx Transaction) bool { return !tx.Date.After(on) }
}

// Chronological returns a copy of txs sorted by date, then by id.
func Chronological(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}

// Accounts returns the distinct account names used by txs, sorted.
func Accounts(txs []Transaction) []string {
	var names []string
	for _, tx := range txs {
		for _, name := range []string{tx.Account, tx.FromAccount, tx.ToAccount} {
			if name != "" && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}
