package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/etnz/coinfolio"
)

func testTracker(t *testing.T) *coinfolio.Tracker {
	t.Helper()
	prices := coinfolio.PriceFunc(func(_ context.Context, symbols []string) (map[string]coinfolio.Money, error) {
		return map[string]coinfolio.Money{"BTC": coinfolio.USD(50000), "ETH": coinfolio.USD(2500)}, nil
	})
	ledger := coinfolio.NewLedger(
		coinfolio.Transaction{Date: coinfolio.NewDate(2024, 1, 1), Type: coinfolio.TypeBuy, Account: "Kraken", ToSymbol: "BTC", ToQuantity: coinfolio.Q(1), ToPrice: coinfolio.USD(40000)},
		coinfolio.Transaction{Date: coinfolio.NewDate(2024, 3, 1), Type: coinfolio.TypeBuy, Account: "Binance", ToSymbol: "ETH", ToQuantity: coinfolio.Q(2), ToPrice: coinfolio.USD(2000)},
		coinfolio.Transaction{Date: coinfolio.NewDate(2024, 2, 1), Type: coinfolio.TypeTransfer, FromSymbol: "BTC", FromQuantity: coinfolio.Q(0.5), ToSymbol: "BTC", ToQuantity: coinfolio.Q(0.5), FromAccount: "Kraken", ToAccount: "Cold"},
	)
	return coinfolio.NewTracker(ledger, coinfolio.NewSnapshotLog(), nil, prices)
}

func call(t *testing.T, lib Library, name string, args map[string]any) (output, errMsg string) {
	t.Helper()
	resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: name, Args: args})
	if resp.ID != "1" || resp.Name != name {
		t.Errorf("%s: response id/name = %q/%q", name, resp.ID, resp.Name)
	}
	output, _ = resp.Response["output"].(string)
	errMsg, _ = resp.Response["error"].(string)
	return output, errMsg
}

func TestTools(t *testing.T) {
	lib := NewLibrary(Tools(testTracker(t)))

	tests := []struct {
		name string
		args map[string]any
		want []string // substrings of the output
	}{
		{"cost_basis", nil, []string{`"symbol":"BTC"`, `"averageCost":2000`}},
		{"holdings", nil, []string{`"totalValue":55000`}},
		{"account_balances", map[string]any{"account": "cold"}, []string{`"account":"Cold"`, `"totalValue":25000`}},
		{"performance", nil, []string{`"latestValue":0`}},
		{"transactions", map[string]any{"account": "Kraken"}, []string{`"date":"2024-01-01"`, `"date":"2024-02-01"`}},
		{"topic", map[string]any{"name": "dates"}, []string{"YYYY-MM-DD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := call(t, lib, tt.name, tt.args)
			if errMsg != "" {
				t.Fatalf("error = %s", errMsg)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output %s does not contain %s", got, want)
				}
			}
		})
	}
}

func TestTools_Transactions(t *testing.T) {
	lib := NewLibrary(Tools(testTracker(t)))
	got, errMsg := call(t, lib, "transactions", map[string]any{"up_to": "2024-02-15"})
	if errMsg != "" {
		t.Fatal(errMsg)
	}
	var txs []coinfolio.Transaction
	if err := json.Unmarshal([]byte(got), &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].ID != 1 || txs[1].ID != 3 {
		t.Errorf("transactions up to 2024-02-15 = %+v, want ids 1 then 3", txs)
	}
}

func TestTools_Errors(t *testing.T) {
	lib := NewLibrary(Tools(testTracker(t)))
	tests := []struct {
		name string
		args map[string]any
	}{
		{"account_balances", map[string]any{"account": "Ledger"}},
		{"account_balances", map[string]any{"account": 3.0}},
		{"transactions", map[string]any{"up_to": "someday"}},
		{"topic", map[string]any{"name": "nothing"}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		if _, errMsg := call(t, lib, tt.name, tt.args); errMsg == "" {
			t.Errorf("%s(%v) succeeded, want an error", tt.name, tt.args)
		}
	}
}

func TestExpert_Call(t *testing.T) {
	e := NewTrader("model")
	resp := e.Call(context.Background(), "7", map[string]any{"question": 42})
	if _, ok := resp.Response["error"]; !ok {
		t.Errorf("Call() with a non string question = %v, want an error", resp.Response)
	}
	resp = e.Call(context.Background(), "8", map[string]any{"question": "how is BTC doing?"})
	if msg, _ := resp.Response["error"].(string); !strings.Contains(msg, "not started") {
		t.Errorf("Call() before Start() = %v, want a not started error", resp.Response)
	}
}

func TestFacilitator(t *testing.T) {
	accountant := NewAccountant("model", testTracker(t))
	f := NewFacilitator("model", NewTrader("model"), accountant)
	decls := f.Config.Tools[0].FunctionDeclarations
	if len(decls) != 2 || decls[0].Name != "Trader" || decls[1].Name != "Accountant" {
		t.Errorf("facilitator tools = %v", decls)
	}
	if got := len(accountant.Config.Tools[0].FunctionDeclarations); got != 6 {
		t.Errorf("accountant has %d tools, want 6", got)
	}
}
