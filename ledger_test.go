package coinfolio

import (
	"context"
	"slices"
	"testing"
)

func TestLedger_Store(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	for _, tx := range []Transaction{
		in("Kraken", buy("2024-03-01", "BTC", 1, 100)),
		transfer("2024-01-01", "BTC", 1, "Kraken", "Cold"),
		in("Binance", buy("2024-02-01", "ETH", 1, 10)),
	} {
		if _, err := l.Insert(ctx, tx); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	ids := func(txs []Transaction) []int64 {
		var out []int64
		for _, tx := range txs {
			out = append(out, tx.ID)
		}
		return out
	}

	all, _ := l.ListAll(ctx)
	if got, want := ids(all), []int64{1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("ListAll() = %v, want %v", got, want)
	}
	kraken, _ := l.ListByAccount(ctx, "Kraken")
	if got, want := ids(kraken), []int64{1, 2}; !slices.Equal(got, want) {
		t.Errorf("ListByAccount(Kraken) = %v, want %v", got, want)
	}
	cold, _ := l.ListByAccount(ctx, "Cold")
	if got, want := ids(cold), []int64{2}; !slices.Equal(got, want) {
		t.Errorf("ListByAccount(Cold) = %v, want %v", got, want)
	}
	upTo, _ := l.ListUpTo(ctx, MustParse("2024-02-01"))
	if got, want := ids(upTo), []int64{2, 3}; !slices.Equal(got, want) {
		t.Errorf("ListUpTo() = %v, want %v", got, want)
	}
	if got, want := ids(Chronological(all)), []int64{2, 3, 1}; !slices.Equal(got, want) {
		t.Errorf("Chronological() = %v, want %v", got, want)
	}
	if got, want := Accounts(all), []string{"Binance", "Cold", "Kraken"}; !slices.Equal(got, want) {
		t.Errorf("Accounts() = %v, want %v", got, want)
	}

	notes := "moved"
	if ok, _ := l.Update(ctx, 2, Patch{Notes: &notes}); !ok {
		t.Error("Update(2) = false, want true")
	}
	if ok, _ := l.Update(ctx, 7, Patch{Notes: &notes}); ok {
		t.Error("Update(7) = true, want false")
	}
	if ok, _ := l.Delete(ctx, 1); !ok {
		t.Error("Delete(1) = false, want true")
	}
	if ok, _ := l.Delete(ctx, 1); ok {
		t.Error("Delete(1) twice = true, want false")
	}
	n, _ := l.BatchDelete(ctx, []int64{2, 3, 4})
	if n != 2 {
		t.Errorf("BatchDelete() = %d, want 2", n)
	}
	if id, _ := l.Insert(ctx, buy("2024-04-01", "SOL", 1, 1)); id != 4 {
		t.Errorf("Insert() after deletes = %d, want 4", id)
	}
}

func TestNewLedger_IDs(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(
		buy("2024-01-01", "BTC", 1, 100),
		withID(1, buy("2024-01-02", "ETH", 1, 10)),
		buy("2024-01-03", "SOL", 1, 1),
		withID(5, sell("2024-01-04", "BTC", 1, 200)),
	)
	all, _ := l.ListAll(ctx)
	var got []int64
	for _, tx := range all {
		got = append(got, tx.ID)
	}
	if want := []int64{1, 5, 6, 7}; !slices.Equal(got, want) {
		t.Errorf("NewLedger() ids = %v, want %v", got, want)
	}
	if id, _ := l.Insert(ctx, buy("2024-01-05", "BTC", 1, 100)); id != 8 {
		t.Errorf("Insert() id = %d, want 8", id)
	}
	if ok, _ := l.Delete(ctx, 6); !ok {
		t.Fatal("Delete(6) = false, want true")
	}
	all, _ = l.ListAll(ctx)
	got = got[:0]
	for _, tx := range all {
		got = append(got, tx.ID)
	}
	if want := []int64{1, 5, 7, 8}; !slices.Equal(got, want) {
		t.Errorf("ids after Delete(6) = %v, want %v", got, want)
	}
}

func TestTransaction_Normalize(t *testing.T) {
	tx := Transaction{Type: " Buy ", ToSymbol: " eth", FromAccount: " Kraken "}.Normalize()
	if tx.Type != TypeBuy || tx.ToSymbol != "ETH" || tx.FromAccount != "Kraken" {
		t.Errorf("Normalize() = %+v", tx)
	}
	if got := (Transaction{}).Normalize().Type; got != TypeOther {
		t.Errorf("Normalize().Type = %q, want %q", got, TypeOther)
	}
}
