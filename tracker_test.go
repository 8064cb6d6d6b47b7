package coinfolio

import (
	"context"
	"errors"
	"testing"
)

// newTestTracker returns a Tracker on in-memory stores, with a fixed today.
func newTestTracker(t *testing.T, prices *fakePrices, txs ...Transaction) *Tracker {
	t.Helper()
	tr := NewTracker(NewLedger(txs...), NewSnapshotLog(), &ManualBook{}, prices)
	tr.Now = func() Date { return NewDate(2025, 6, 30) }
	return tr
}

func TestTracker_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("back-fills missing prices", func(t *testing.T) {
		prices := newFakePrices(map[string]float64{"BTC": 60000})
		tr := newTestTracker(t, prices)
		tx, err := tr.Add(ctx, Transaction{
			Date: NewDate(2025, 6, 1), Type: "SWAP",
			FromSymbol: "unknown", FromQuantity: Q(10),
			ToSymbol: "btc", ToQuantity: Q(0.1),
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if tx.ID == 0 {
			t.Error("Add() did not assign an id")
		}
		if got, want := tx.Type, TypeSwap; got != want {
			t.Errorf("Type = %q, want %q", got, want)
		}
		if got, want := tx.ToPrice, USD(60000); !got.Equal(want) {
			t.Errorf("ToPrice = %v, want %v", got, want)
		}
		if !tx.FromPrice.IsZero() {
			t.Errorf("FromPrice = %v, want 0 for an unknown symbol", tx.FromPrice)
		}
	})

	t.Run("keeps given prices", func(t *testing.T) {
		prices := newFakePrices(map[string]float64{"BTC": 60000})
		tr := newTestTracker(t, prices)
		if _, err := tr.Add(ctx, buy("2025-06-01", "BTC", 1, 50000)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if len(prices.calls) != 0 {
			t.Errorf("price lookups = %v, want none", prices.calls)
		}
	})

	t.Run("back-fill failure is not fatal", func(t *testing.T) {
		prices := newFakePrices(nil)
		prices.err = errors.New("offline")
		tr := newTestTracker(t, prices)
		tx, err := tr.Add(ctx, buy("2025-06-01", "BTC", 1, 0))
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if !tx.ToPrice.IsZero() {
			t.Errorf("ToPrice = %v, want 0", tx.ToPrice)
		}
	})

	t.Run("rejects invalid transactions", func(t *testing.T) {
		tr := newTestTracker(t, newFakePrices(nil))
		tests := []Transaction{
			{Type: TypeBuy},
			{Date: NewDate(2025, 6, 1), Type: "gift"},
			{Date: NewDate(2025, 6, 1), Type: TypeTransfer, FromSymbol: "ETH", FromQuantity: Q(1)},
			{Date: NewDate(2025, 6, 1), Type: TypeSell, FromSymbol: "ETH", FromQuantity: Q(-1)},
		}
		for _, tx := range tests {
			if _, err := tr.Add(ctx, tx); !errors.Is(err, ErrInvalidTransaction) {
				t.Errorf("Add(%+v) error = %v, want %v", tx, err, ErrInvalidTransaction)
			}
		}
	})
}

func TestTracker_EditRemove(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t, newFakePrices(nil),
		buy("2025-01-01", "BTC", 1, 100),
		buy("2025-01-02", "ETH", 1, 10),
		buy("2025-01-03", "SOL", 1, 1),
	)

	notes, qty := "corrected", Q(2)
	if err := tr.Edit(ctx, 1, Patch{Notes: &notes, ToQuantity: &qty}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	txs, _ := tr.Transactions(ctx)
	if got := txs[0]; got.Notes != notes || !got.ToQuantity.Equal(qty) || got.ToSymbol != "BTC" || !got.ToPrice.Equal(USD(100)) {
		t.Errorf("edited transaction = %+v", got)
	}

	if err := tr.Edit(ctx, 42, Patch{Notes: &notes}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Edit(42) error = %v, want %v", err, ErrNotFound)
	}
	if err := tr.Remove(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(42) error = %v, want %v", err, ErrNotFound)
	}
	if _, err := tr.RemoveAll(ctx, nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("RemoveAll(nil) error = %v, want %v", err, ErrEmptySelection)
	}
	if err := tr.Remove(ctx, 1); err != nil {
		t.Errorf("Remove(1) error = %v", err)
	}
	n, err := tr.RemoveAll(ctx, []int64{2, 3, 99})
	if err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RemoveAll() = %d, want 2", n)
	}
}

func TestTracker_AccountBalances(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"ETH": 2000, "BTC": 50000})
	tr := newTestTracker(t, prices,
		in("Kraken", buy("2025-01-01", "ETH", 3, 1000)),
		in("Ledger", buy("2025-01-01", "BTC", 1, 20000)),
		transfer("2025-01-02", "ETH", 1, "Kraken", "Ledger"),
	)
	balances, err := tr.AccountBalances(ctx)
	if err != nil {
		t.Fatalf("AccountBalances() error = %v", err)
	}
	if got, want := len(prices.calls), 1; got != want {
		t.Errorf("price lookups = %d, want %d", got, want)
	}
	if got, want := len(balances), 2; got != want {
		t.Fatalf("len(AccountBalances()) = %d, want %d", got, want)
	}
	tests := []struct {
		account string
		value   Money
	}{
		{"Kraken", USD(4000)},
		{"Ledger", USD(52000)},
	}
	for i, tt := range tests {
		if got := balances[i]; got.Account != tt.account || !got.TotalValue.Equal(tt.value) {
			t.Errorf("AccountBalances()[%d] = %s %v, want %s %v", i, got.Account, got.TotalValue, tt.account, tt.value)
		}
	}
}

func TestTracker_Current(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"BTC": 100, "ETH": 10})
	deposit := Transaction{Date: MustParse("2025-01-01"), Type: TypeTransfer, ToSymbol: "BTC", ToQuantity: Q(1), ToAccount: "Ledger"}
	withFee := transfer("2025-01-02", "ETH", 1, "Binance", "Ledger")
	withFee.ToQuantity = Q(0.99)
	tr := newTestTracker(t, prices,
		deposit,
		withFee,
		in("Binance", buy("2025-01-01", "ETH", 1, 5)),
	)

	got, err := tr.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if want := USD(109.9); !got.TotalValue.Equal(want) {
		t.Errorf("Current().TotalValue = %v, want %v", got.TotalValue, want)
	}
	want := []struct {
		symbol   string
		quantity Quantity
		value    Money
	}{
		{"BTC", Q(1), USD(100)},
		{"ETH", Q(0.99), USD(9.9)},
	}
	if len(got.Breakdown) != len(want) {
		t.Fatalf("Current().Breakdown = %v, want %d holdings", got.Breakdown, len(want))
	}
	for i, w := range want {
		h := got.Breakdown[i]
		if h.Symbol != w.symbol || !h.Quantity.Equal(w.quantity) || !h.TotalValue.Equal(w.value) {
			t.Errorf("Current().Breakdown[%d] = %s %v %v, want %s %v %v", i, h.Symbol, h.Quantity, h.TotalValue, w.symbol, w.quantity, w.value)
		}
	}

	// cost basis still ignores both transfers.
	positions, err := tr.CostBasis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := positions["BTC"]; ok {
		t.Errorf("CostBasis() = %v, want no BTC position", positions)
	}
}

func TestTracker_Snapshots(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"BTC": 50000, "ETH": 2000})
	var recorded []Snapshot
	tr := newTestTracker(t, prices,
		buy("2025-01-01", "BTC", 1, 20000),
		transfer("2025-01-02", "BTC", 1, "A", "B"),
		buy("2025-06-01", "ETH", 10, 1000),
	)
	tr.OnSnapshot = func(s Snapshot) { recorded = append(recorded, s) }

	if _, err := tr.RecordSnapshotAt(ctx, Date{}); !errors.Is(err, ErrMissingDate) {
		t.Errorf("RecordSnapshotAt(zero) error = %v, want %v", err, ErrMissingDate)
	}

	past, err := tr.RecordSnapshotAt(ctx, NewDate(2025, 3, 1))
	if err != nil {
		t.Fatalf("RecordSnapshotAt() error = %v", err)
	}
	// only the BTC buy is before March, valued at today's price.
	if got, want := past.TotalValue, USD(50000); !got.Equal(want) {
		t.Errorf("past snapshot = %v, want %v", got, want)
	}

	now, err := tr.RecordSnapshot(ctx)
	if err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}
	if got, want := now.Date, NewDate(2025, 6, 30); got != want {
		t.Errorf("snapshot date = %v, want %v", got, want)
	}
	if got, want := now.TotalValue, USD(70000); !got.Equal(want) {
		t.Errorf("snapshot value = %v, want %v", got, want)
	}
	if got, want := len(recorded), 2; got != want {
		t.Errorf("OnSnapshot calls = %d, want %d", got, want)
	}

	p, err := tr.Performance(ctx)
	if err != nil {
		t.Fatalf("Performance() error = %v", err)
	}
	month, _ := p.Delta(30)
	if got, want := *month.Change, USD(20000); !got.Equal(want) {
		t.Errorf("month change = %v, want %v", got, want)
	}
	year, _ := p.Delta(365)
	if year.Available() {
		t.Errorf("year delta = %+v, want unavailable", year)
	}
}

func TestTracker_Import(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t, newFakePrices(nil))

	_, err := tr.Import(ctx, []Transaction{
		buy("2025-01-01", "BTC", 1, 100),
		{Type: TypeBuy, ToSymbol: "ETH"},
	})
	if !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("Import() error = %v, want %v", err, ErrInvalidTransaction)
	}
	if txs, _ := tr.Transactions(ctx); len(txs) != 0 {
		t.Errorf("Import() inserted %d transactions despite an error", len(txs))
	}

	n, err := tr.Import(ctx, []Transaction{buy("2025-01-01", "BTC", 1, 100), sell("2025-01-02", "BTC", 1, 0)})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}
}

func TestTracker_ManualOverview(t *testing.T) {
	ctx := context.Background()
	prices := newFakePrices(map[string]float64{"BTC": 50000, "ETH": 2000})
	tr := newTestTracker(t, prices)
	for _, b := range []ManualBalance{
		{Account: "Cold", Symbol: "btc", Quantity: Q(0.5)},
		{Symbol: "ETH", Quantity: Q(1)},
		{Account: "Cold", Symbol: "ETH", Quantity: Q(2)},
	} {
		if _, err := tr.AddManual(ctx, b); err != nil {
			t.Fatalf("AddManual() error = %v", err)
		}
	}
	if _, err := tr.AddManual(ctx, ManualBalance{Quantity: Q(1)}); !errors.Is(err, ErrInvalidBalance) {
		t.Errorf("AddManual(no symbol) error = %v, want %v", err, ErrInvalidBalance)
	}

	o, err := tr.ManualOverview(ctx)
	if err != nil {
		t.Fatalf("ManualOverview() error = %v", err)
	}
	if got, want := o.TotalValue, USD(31000); !got.Equal(want) {
		t.Errorf("TotalValue = %v, want %v", got, want)
	}
	if got, want := len(o.ByAccount), 2; got != want {
		t.Fatalf("len(ByAccount) = %d, want %d", got, want)
	}
	if got, want := o.ByAccount[1].Account, DefaultManualAccount; got != want {
		t.Errorf("ByAccount[1].Account = %q, want %q", got, want)
	}
	if got, want := o.BySymbol[1], (SymbolTotal{Symbol: "ETH", TotalQuantity: Q(3), CurrentPrice: USD(2000), TotalValue: USD(6000)}); got.Symbol != want.Symbol || !got.TotalQuantity.Equal(want.TotalQuantity) || !got.TotalValue.Equal(want.TotalValue) {
		t.Errorf("BySymbol[1] = %+v, want %+v", got, want)
	}
	if got, want := len(prices.calls), 1; got != want {
		t.Errorf("price lookups = %d, want %d", got, want)
	}

	if err := tr.RemoveManual(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveManual(99) error = %v, want %v", err, ErrNotFound)
	}
}
