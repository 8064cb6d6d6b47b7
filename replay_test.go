package coinfolio

import (
	"testing"
)

func TestReplay_CostBasis(t *testing.T) {
	t.Run("buy into an empty position", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(buy("2024-01-01", "BTC", 1, 10000)), CostBasis, AllAccounts)
		btc := ps["BTC"]
		if got, want := btc.Quantity, Q(1); !got.Equal(want) {
			t.Errorf("Quantity = %v, want %v", got, want)
		}
		if got, want := btc.AverageCost(), USD(10000); !got.Equal(want) {
			t.Errorf("AverageCost() = %v, want %v", got, want)
		}
	})

	t.Run("sell uses the average cost", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			buy("2024-01-01", "BTC", 2, 10000),
			sell("2024-01-02", "BTC", 1, 30000),
		), CostBasis, AllAccounts)
		btc := ps["BTC"]
		if got, want := btc.Quantity, Q(1); !got.Equal(want) {
			t.Errorf("Quantity = %v, want %v", got, want)
		}
		if got, want := btc.TotalCost, USD(10000); !got.Equal(want) {
			t.Errorf("TotalCost = %v, want %v", got, want)
		}
		if got, want := btc.AverageCost(), USD(10000); !got.Equal(want) {
			t.Errorf("AverageCost() = %v, want %v", got, want)
		}
	})

	t.Run("average of several buys", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			buy("2024-01-01", "ETH", 1, 1000),
			buy("2024-01-02", "ETH", 3, 2000),
		), CostBasis, AllAccounts)
		if got, want := ps["ETH"].AverageCost(), USD(1750); !got.Equal(want) {
			t.Errorf("AverageCost() = %v, want %v", got, want)
		}
	})

	t.Run("selling everything clears the cost", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			buy("2024-01-01", "SOL", 0.5, 101.13),
			buy("2024-01-02", "SOL", 0.25, 97.71),
			buy("2024-01-03", "SOL", 1.125, 12345.67),
			sell("2024-01-04", "SOL", 0.3, 150),
			sell("2024-01-05", "SOL", 1.575, 150),
		), CostBasis, AllAccounts)
		sol := ps["SOL"]
		if !sol.Quantity.IsZero() {
			t.Errorf("Quantity = %v, want 0", sol.Quantity)
		}
		if got := sol.TotalCost.Round(8); !got.IsZero() {
			t.Errorf("TotalCost = %v, want 0", sol.TotalCost.Decimal())
		}
		if !sol.AverageCost().IsZero() {
			t.Errorf("AverageCost() = %v, want 0", sol.AverageCost())
		}
	})

	t.Run("transfers are ignored", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			in("X", buy("2024-01-01", "ETH", 2, 1000)),
			transfer("2024-01-02", "ETH", 1, "X", "Y"),
		), CostBasis, AllAccounts)
		if got, want := ps["ETH"].Quantity, Q(2); !got.Equal(want) {
			t.Errorf("Quantity = %v, want %v", got, want)
		}
		if got, want := ps["ETH"].TotalCost, USD(2000); !got.Equal(want) {
			t.Errorf("TotalCost = %v, want %v", got, want)
		}
	})

	t.Run("transfer type is case insensitive", func(t *testing.T) {
		tr := transfer("2024-01-02", "ETH", 1, "X", "Y")
		tr.Type = "Transfer"
		ps := Replay(NewLedgerTxs(tr), CostBasis, AllAccounts)
		if len(ps) != 0 {
			t.Errorf("Replay() = %v, want no positions", ps.Sorted())
		}
	})

	t.Run("swap sells then buys", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			buy("2024-01-01", "ETH", 2, 1000),
			swap("2024-01-02", "ETH", 1, "BTC", 0.05, 40000),
		), CostBasis, AllAccounts)
		if got, want := ps["ETH"].Quantity, Q(1); !got.Equal(want) {
			t.Errorf("ETH Quantity = %v, want %v", got, want)
		}
		if got, want := ps["ETH"].TotalCost, USD(1000); !got.Equal(want) {
			t.Errorf("ETH TotalCost = %v, want %v", got, want)
		}
		if got, want := ps["BTC"].Quantity, Q(0.05); !got.Equal(want) {
			t.Errorf("BTC Quantity = %v, want %v", got, want)
		}
		if got, want := ps["BTC"].TotalCost, USD(2000); !got.Equal(want) {
			t.Errorf("BTC TotalCost = %v, want %v", got, want)
		}
	})

	t.Run("quantity may go negative", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(sell("2024-01-01", "DOGE", 100, 0.1)), CostBasis, AllAccounts)
		doge := ps["DOGE"]
		if got, want := doge.Quantity, Q(-100); !got.Equal(want) {
			t.Errorf("Quantity = %v, want %v", got, want)
		}
		if !doge.TotalCost.IsZero() {
			t.Errorf("TotalCost = %v, want 0", doge.TotalCost)
		}
	})

	t.Run("legs without symbol are skipped", func(t *testing.T) {
		malformed := Transaction{Date: MustParse("2024-01-01"), Type: TypeBuy, ToQuantity: Q(5), ToPrice: USD(10)}
		ps := Replay(NewLedgerTxs(malformed), CostBasis, AllAccounts)
		if len(ps) != 0 {
			t.Errorf("Replay() = %v, want no positions", ps.Sorted())
		}
	})

	t.Run("symbols are case insensitive", func(t *testing.T) {
		ps := Replay(NewLedgerTxs(
			buy("2024-01-01", "btc", 1, 100),
			buy("2024-01-02", "BTC", 1, 300),
		), CostBasis, AllAccounts)
		if got, want := ps["BTC"].AverageCost(), USD(200); !got.Equal(want) {
			t.Errorf("AverageCost() = %v, want %v", got, want)
		}
	})
}

func TestReplay_Order(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
	}{
		{
			name: "by date",
			txs: []Transaction{
				withID(1, sell("2024-02-01", "BTC", 1, 500)),
				withID(2, buy("2024-01-01", "BTC", 2, 100)),
			},
		},
		{
			name: "by id within a day",
			txs: []Transaction{
				withID(2, sell("2024-01-01", "BTC", 1, 500)),
				withID(1, buy("2024-01-01", "BTC", 2, 100)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			btc := Replay(tt.txs, CostBasis, AllAccounts)["BTC"]
			if got, want := btc.Quantity, Q(1); !got.Equal(want) {
				t.Errorf("Quantity = %v, want %v", got, want)
			}
			if got, want := btc.TotalCost, USD(100); !got.Equal(want) {
				t.Errorf("TotalCost = %v, want %v", got, want)
			}
		})
	}
}

func TestReplay_NetQuantity(t *testing.T) {
	t.Run("transfer between two accounts", func(t *testing.T) {
		txs := NewLedgerTxs(transfer("2024-01-01", "ETH", 1, "AccountX", "AccountY"))
		tests := []struct {
			scope string
			want  Quantity
		}{
			{scope: "AccountX", want: Q(-1)},
			{scope: "AccountY", want: Q(1)},
			{scope: AllAccounts, want: Q(0)},
		}
		for _, tt := range tests {
			if got := Replay(txs, NetQuantity, tt.scope)["ETH"].Quantity; !got.Equal(tt.want) {
				t.Errorf("Replay(%q)[ETH] = %v, want %v", tt.scope, got, tt.want)
			}
		}
	})

	t.Run("transfers are neutral in aggregate", func(t *testing.T) {
		txs := NewLedgerTxs(
			in("X", buy("2024-01-01", "ETH", 2, 1000)),
			transfer("2024-01-02", "ETH", 0.5, "X", "Y"),
			transfer("2024-01-03", "ETH", 0.25, "Y", "Z"),
		)
		global := Replay(txs, NetQuantity, AllAccounts)["ETH"].Quantity
		if got, want := global, Q(2); !got.Equal(want) {
			t.Errorf("global ETH = %v, want %v", got, want)
		}
		sum := Q(0)
		for _, account := range Accounts(txs) {
			sum = sum.Add(Replay(txs, NetQuantity, account)["ETH"].Quantity)
		}
		if !sum.Equal(global) {
			t.Errorf("sum over accounts = %v, want %v", sum, global)
		}
		if got, want := Replay(txs, NetQuantity, "X")["ETH"].Quantity, Q(1.5); !got.Equal(want) {
			t.Errorf("X ETH = %v, want %v", got, want)
		}
		if got, want := Replay(txs, NetQuantity, "Y")["ETH"].Quantity, Q(0.25); !got.Equal(want) {
			t.Errorf("Y ETH = %v, want %v", got, want)
		}
	})

	t.Run("account trades apply both legs", func(t *testing.T) {
		txs := NewLedgerTxs(
			in("X", buy("2024-01-01", "ETH", 2, 1000)),
			in("X", swap("2024-01-02", "ETH", 1, "BTC", 0.05, 40000)),
			in("Y", buy("2024-01-03", "ETH", 7, 1000)),
		)
		ps := Replay(txs, NetQuantity, "X")
		if got, want := ps["ETH"].Quantity, Q(1); !got.Equal(want) {
			t.Errorf("ETH = %v, want %v", got, want)
		}
		if got, want := ps["BTC"].Quantity, Q(0.05); !got.Equal(want) {
			t.Errorf("BTC = %v, want %v", got, want)
		}
		if !ps["BTC"].TotalCost.IsZero() {
			t.Errorf("TotalCost = %v, want 0 in net quantity mode", ps["BTC"].TotalCost)
		}
	})
}

// NewLedgerTxs numbers txs in order, like a store would.
func NewLedgerTxs(txs ...Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		tx.ID = int64(i + 1)
		out[i] = tx
	}
	return out
}
