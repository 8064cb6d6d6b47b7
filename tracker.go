package coinfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when updating or removing an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingDate is returned when a snapshot date is required but not given.
	ErrMissingDate = errors.New("date is required")
	// ErrEmptySelection is returned by a batch operation without ids.
	ErrEmptySelection = errors.New("no ids given")
	// ErrInvalidTransaction wraps the reasons a transaction is rejected.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidBalance wraps the reasons a manual balance is rejected.
	ErrInvalidBalance = errors.New("invalid manual balance")
)

// Tracker answers the portfolio questions: cost basis, current value, per account balances and performance.
//
// It holds no state besides its collaborators, every answer is replayed from the ledger.
type Tracker struct {
	Ledger  LedgerStore
	History SnapshotStore
	Manual  ManualStore // optional
	Prices  PriceOracle

	// Now returns today's date, Today by default.
	Now func() Date
	// OnSnapshot, if set, is called after each snapshot is recorded.
	OnSnapshot func(Snapshot)
}

// NewTracker creates a Tracker. manual may be nil.
func NewTracker(ledger LedgerStore, snapshots SnapshotStore, manual ManualStore, prices PriceOracle) *Tracker {
	return &Tracker{Ledger: ledger, History: snapshots, Manual: manual, Prices: prices, Now: Today}
}

func (t *Tracker) today() Date {
	if t.Now == nil {
		return Today()
	}
	return t.Now()
}

// Add validates tx, fills in missing leg prices with the current price, and appends it to the ledger.
func (t *Tracker) Add(ctx context.Context, tx Transaction) (Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	if tx.FromSymbol != "" && tx.FromPrice.IsZero() {
		tx.FromPrice = t.priceOf(ctx, tx.FromSymbol)
	}
	if tx.ToSymbol != "" && tx.ToPrice.IsZero() {
		tx.ToPrice = t.priceOf(ctx, tx.ToSymbol)
	}
	id, err := t.Ledger.Insert(ctx, tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("could not insert transaction: %w", err)
	}
	tx.ID = id
	log.Info().Int64("id", id).Str("type", string(tx.Type)).Str("date", tx.Date.String()).Msg("transaction added")
	return tx, nil
}

// priceOf returns the current price of symbol, 0 if unknown or unavailable.
func (t *Tracker) priceOf(ctx context.Context, symbol string) Money {
	if t.Prices == nil {
		return Money{}
	}
	price, ok, err := t.Prices.Price(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price back-fill failed, using 0")
		return Money{}
	}
	if !ok {
		log.Debug().Str("symbol", symbol).Msg("no price for symbol, using 0")
	}
	return price
}

// Import appends a batch of transactions. Nothing is inserted unless every transaction is valid.
// Prices are taken as given, no back-fill is made.
func (t *Tracker) Import(ctx context.Context, txs []Transaction) (int, error) {
	var errs []error
	for i := range txs {
		txs[i] = txs[i].Normalize()
		if err := txs[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
		}
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	for i, tx := range txs {
		if _, err := t.Ledger.Insert(ctx, tx); err != nil {
			return i, fmt.Errorf("could not insert row %d: %w", i+1, err)
		}
	}
	log.Info().Int("count", len(txs)).Msg("transactions imported")
	return len(txs), nil
}

// Edit applies a partial update to a transaction.
func (t *Tracker) Edit(ctx context.Context, id int64, p Patch) error {
	if p.Type != nil {
		typ, err := ParseType(string(*p.Type))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		}
		p.Type = &typ
	}
	for _, s := range []**string{&p.FromSymbol, &p.ToSymbol} {
		if *s != nil {
			n := normalizeSymbol(**s)
			*s = &n
		}
	}
	for _, q := range []*Quantity{p.FromQuantity, p.ToQuantity} {
		if q != nil && q.IsNegative() {
			return fmt.Errorf("%w: quantities must not be negative, got %v", ErrInvalidTransaction, q)
		}
	}
	ok, err := t.Ledger.Update(ctx, id, p)
	if err != nil {
		return fmt.Errorf("could not update transaction %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// Remove deletes a transaction.
func (t *Tracker) Remove(ctx context.Context, id int64) error {
	ok, err := t.Ledger.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("could not delete transaction %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// RemoveAll deletes transactions and returns how many were deleted.
func (t *Tracker) RemoveAll(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	n, err := t.Ledger.BatchDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("could not delete transactions: %w", err)
	}
	return n, nil
}

// Transactions returns the whole ledger, ordered by id.
func (t *Tracker) Transactions(ctx context.Context) ([]Transaction, error) {
	txs, err := t.Ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list transactions: %w", err)
	}
	return txs, nil
}

// Accounts returns every account name used in the ledger.
func (t *Tracker) Accounts(ctx context.Context) ([]string, error) {
	txs, err := t.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return Accounts(txs), nil
}

// CostBasis replays the whole ledger in cost basis mode.
func (t *Tracker) CostBasis(ctx context.Context) (Positions, error) {
	txs, err := t.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return Replay(txs, CostBasis, AllAccounts), nil
}

// Current values the net quantities of the whole ledger at current prices.
// Transfers count: a deposit or a fee lost on the way changes what is held.
func (t *Tracker) Current(ctx context.Context) (Valuation, error) {
	txs, err := t.Transactions(ctx)
	if err != nil {
		return Valuation{}, err
	}
	return ValueAt(ctx, Replay(txs, NetQuantity, AllAccounts).Quantities(), t.Prices), nil
}

// AccountBalances values the net quantities of each account. All accounts share one price lookup.
func (t *Tracker) AccountBalances(ctx context.Context) ([]AccountValuation, error) {
	names, err := t.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	quantities := make([]map[string]Quantity, len(names))
	all := make(map[string]Quantity)
	for i, name := range names {
		txs, err := t.Ledger.ListByAccount(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("could not list transactions of %q: %w", name, err)
		}
		quantities[i] = Replay(txs, NetQuantity, name).Quantities()
		for s, q := range quantities[i] {
			if q.IsPositive() {
				all[s] = q
			}
		}
	}
	prices := lookupPrices(ctx, t.Prices, heldSymbols(all))

	out := make([]AccountValuation, 0, len(names))
	for i, name := range names {
		v := valueWith(quantities[i], heldSymbols(quantities[i]), prices)
		out = append(out, AccountValuation{Account: name, TotalValue: v.TotalValue, Breakdown: v.Breakdown})
	}
	return out, nil
}

// RecordSnapshot records today's value of the whole ledger.
func (t *Tracker) RecordSnapshot(ctx context.Context) (Snapshot, error) {
	txs, err := t.Transactions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return t.record(ctx, txs, t.today())
}

// RecordSnapshotAt records the value of the ledger as of a past date. It is valued at today's prices.
func (t *Tracker) RecordSnapshotAt(ctx context.Context, on Date) (Snapshot, error) {
	if on.IsZero() {
		return Snapshot{}, ErrMissingDate
	}
	txs, err := t.Ledger.ListUpTo(ctx, on)
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not list transactions up to %s: %w", on, err)
	}
	return t.record(ctx, txs, on)
}

func (t *Tracker) record(ctx context.Context, txs []Transaction, on Date) (Snapshot, error) {
	v := ValueAt(ctx, Replay(txs, CostBasis, AllAccounts).Quantities(), t.Prices)
	id, err := t.History.Insert(ctx, on, v.TotalValue)
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not insert snapshot: %w", err)
	}
	s := Snapshot{ID: id, Date: on, TotalValue: v.TotalValue}
	log.Info().Int64("id", id).Str("date", on.String()).Str("value", v.TotalValue.String()).Msg("snapshot recorded")
	if t.OnSnapshot != nil {
		t.OnSnapshot(s)
	}
	return s, nil
}

// Snapshots returns every snapshot ordered by date.
func (t *Tracker) Snapshots(ctx context.Context) ([]Snapshot, error) {
	snapshots, err := t.History.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list snapshots: %w", err)
	}
	return snapshots, nil
}

// Performance compares the latest snapshot with the ones a day, a week, a month and a year before today.
func (t *Tracker) Performance(ctx context.Context) (Performance, error) {
	snapshots, err := t.Snapshots(ctx)
	if err != nil {
		return Performance{}, err
	}
	return ComputePerformance(NewestFirst(snapshots), t.today()), nil
}

// ManualBalances returns the manual balances.
func (t *Tracker) ManualBalances(ctx context.Context) ([]ManualBalance, error) {
	if t.Manual == nil {
		return nil, errNoManualStore
	}
	balances, err := t.Manual.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list manual balances: %w", err)
	}
	return balances, nil
}

// AddManual records a manual balance.
func (t *Tracker) AddManual(ctx context.Context, b ManualBalance) (ManualBalance, error) {
	if t.Manual == nil {
		return ManualBalance{}, errNoManualStore
	}
	b = b.Normalize()
	if err := b.Validate(); err != nil {
		return ManualBalance{}, err
	}
	id, err := t.Manual.Insert(ctx, b)
	if err != nil {
		return ManualBalance{}, fmt.Errorf("could not insert manual balance: %w", err)
	}
	b.ID = id
	return b, nil
}

// EditManual applies a partial update to a manual balance.
func (t *Tracker) EditManual(ctx context.Context, id int64, p ManualPatch) error {
	if t.Manual == nil {
		return errNoManualStore
	}
	if p.Symbol != nil && normalizeSymbol(*p.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidBalance)
	}
	ok, err := t.Manual.Update(ctx, id, p)
	if err != nil {
		return fmt.Errorf("could not update manual balance %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("manual balance %d: %w", id, ErrNotFound)
	}
	return nil
}

// RemoveManual deletes a manual balance.
func (t *Tracker) RemoveManual(ctx context.Context, id int64) error {
	if t.Manual == nil {
		return errNoManualStore
	}
	ok, err := t.Manual.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("could not delete manual balance %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("manual balance %d: %w", id, ErrNotFound)
	}
	return nil
}

// ManualOverview values the manual balances at current prices.
func (t *Tracker) ManualOverview(ctx context.Context) (ManualOverview, error) {
	balances, err := t.ManualBalances(ctx)
	if err != nil {
		return ManualOverview{}, err
	}
	return NewManualOverview(ctx, balances, t.Prices), nil
}
