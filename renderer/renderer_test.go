package renderer

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/etnz/coinfolio"
)

// shape counts the headings and table body rows of a markdown document.
func shape(t *testing.T, doc string) (headings, rows int) {
	t.Helper()
	root := markdown.Parser().Parse(text.NewReader([]byte(doc)))
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			headings++
		case extast.KindTableRow:
			rows++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("ast.Walk() error = %v", err)
	}
	return headings, rows
}

func holding(symbol string, quantity, price float64) coinfolio.Holding {
	return coinfolio.Holding{
		Symbol: symbol, Quantity: coinfolio.Q(quantity),
		CurrentPrice: coinfolio.USD(price), TotalValue: coinfolio.USD(price * quantity),
	}
}

func TestCostBasisMarkdown(t *testing.T) {
	got := CostBasisMarkdown(coinfolio.Positions{
		"ETH": {Symbol: "ETH", Quantity: coinfolio.Q(2), TotalCost: coinfolio.USD(3000)},
		"BTC": {Symbol: "BTC", Quantity: coinfolio.Q(1), TotalCost: coinfolio.USD(40000)},
	})
	if _, rows := shape(t, got); rows != 2 {
		t.Errorf("rows = %d, want 2 in\n%s", rows, got)
	}
	for _, want := range []string{"| BTC | 1 | $40,000.00 | $40,000.00 |", "| ETH | 2 | $3,000.00 | $1,500.00 |"} {
		if !strings.Contains(got, want) {
			t.Errorf("CostBasisMarkdown() missing %q in\n%s", want, got)
		}
	}
	if strings.Index(got, "BTC") > strings.Index(got, "ETH") {
		t.Errorf("positions are not sorted by symbol:\n%s", got)
	}

	empty := CostBasisMarkdown(nil)
	if !strings.Contains(empty, "_No positions._") {
		t.Errorf("CostBasisMarkdown(nil) = %q", empty)
	}
}

func TestPerformanceMarkdown(t *testing.T) {
	today := coinfolio.NewDate(2025, 6, 30)
	p := coinfolio.ComputePerformance(coinfolio.NewestFirst([]coinfolio.Snapshot{
		{ID: 1, Date: coinfolio.NewDate(2025, 6, 20), TotalValue: coinfolio.USD(1000)},
		{ID: 2, Date: today, TotalValue: coinfolio.USD(1100)},
	}), today)
	got := PerformanceMarkdown(p)
	if _, rows := shape(t, got); rows != 4 {
		t.Errorf("rows = %d, want 4 in\n%s", rows, got)
	}
	for _, want := range []string{"| Day | 2025-06-20 | +$100.00 | +10.00% |", "| Week | 2025-06-20 | +$100.00 | +10.00% |", "| Month | - | - | - |"} {
		if !strings.Contains(got, want) {
			t.Errorf("PerformanceMarkdown() missing %q in\n%s", want, got)
		}
	}

	if got := PerformanceMarkdown(coinfolio.ComputePerformance(nil, today)); !strings.Contains(got, "_No snapshots yet._") {
		t.Errorf("PerformanceMarkdown(no snapshots) = %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	today := coinfolio.NewDate(2025, 6, 30)
	r := &Report{
		Date: today,
		Holdings: coinfolio.Valuation{
			TotalValue: coinfolio.USD(50000),
			Breakdown:  []coinfolio.Holding{holding("BTC", 1, 50000)},
		},
		Accounts: []coinfolio.AccountValuation{{
			Account: "Kraken", TotalValue: coinfolio.USD(50000),
			Breakdown: []coinfolio.Holding{holding("BTC", 1, 50000)},
		}},
		Performance: coinfolio.ComputePerformance([]coinfolio.Snapshot{{ID: 1, Date: today, TotalValue: coinfolio.USD(50000)}}, today),
		Manual: coinfolio.ManualOverview{
			TotalValue: coinfolio.USD(100),
			ByAccount: []coinfolio.AccountValuation{{
				Account: "Bank", TotalValue: coinfolio.USD(100),
				Breakdown: []coinfolio.Holding{holding("USDC", 100, 1)},
			}},
			BySymbol: []coinfolio.SymbolTotal{{
				Symbol: "USDC", TotalQuantity: coinfolio.Q(100), CurrentPrice: coinfolio.USD(1), TotalValue: coinfolio.USD(100),
			}},
		},
	}
	got := RenderReport(r)
	if strings.Contains(got, "error") {
		t.Fatalf("RenderReport() failed:\n%s", got)
	}
	headings, rows := shape(t, got)
	if headings != 7 {
		t.Errorf("headings = %d, want 7 in\n%s", headings, got)
	}
	if rows != 8 {
		t.Errorf("rows = %d, want 8 in\n%s", rows, got)
	}

	html, err := ToHTML(got)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(html, "<h1>Portfolio on 2025-06-30</h1>") || strings.Count(html, "<table>") != 5 {
		t.Errorf("ToHTML() =\n%s", html)
	}
	page := Page("a < b", html)
	if !strings.Contains(page, "<title>a &lt; b</title>") {
		t.Errorf("Page() did not escape the title:\n%s", page)
	}
}

func TestLogMarkdown(t *testing.T) {
	got := LogMarkdown([]coinfolio.Transaction{
		{ID: 2, Date: coinfolio.NewDate(2024, 2, 1), Type: coinfolio.TypeSell, FromSymbol: "BTC", FromQuantity: coinfolio.Q(0.5), FromPrice: coinfolio.USD(50000)},
		{ID: 1, Date: coinfolio.NewDate(2024, 1, 1), Type: coinfolio.TypeBuy, Account: "Kraken", ToSymbol: "BTC", ToQuantity: coinfolio.Q(1), ToPrice: coinfolio.USD(40000), Notes: "dca"},
	})
	if _, rows := shape(t, got); rows != 2 {
		t.Errorf("rows = %d, want 2 in\n%s", rows, got)
	}
	if !strings.Contains(got, "| 2024-01-01 | 1 | buy | Kraken | Bought 1 BTC at $40,000.00 | dca |") {
		t.Errorf("LogMarkdown() =\n%s", got)
	}
	if strings.Index(got, "2024-01-01") > strings.Index(got, "2024-02-01") {
		t.Errorf("LogMarkdown() is not chronological:\n%s", got)
	}
}

func TestTransaction(t *testing.T) {
	tests := []struct {
		tx   coinfolio.Transaction
		want string
	}{
		{
			coinfolio.Transaction{Type: coinfolio.TypeSwap, FromSymbol: "ETH", FromQuantity: coinfolio.Q(1), ToSymbol: "BTC", ToQuantity: coinfolio.Q(0.05)},
			"Swapped 1 ETH for 0.05 BTC",
		},
		{
			coinfolio.Transaction{Type: "Transfer", FromSymbol: "SOL", FromQuantity: coinfolio.Q(3), FromAccount: "Kraken"},
			"Moved 3 SOL from Kraken to (none)",
		},
		{
			coinfolio.Transaction{Type: coinfolio.TypeOther, ToSymbol: "ENA", ToQuantity: coinfolio.Q(12)},
			"other 12 ENA in",
		},
		{coinfolio.Transaction{Type: coinfolio.TypeOther}, "other"},
	}
	for _, tt := range tests {
		if got := Transaction(tt.tx); got != tt.want {
			t.Errorf("Transaction() = %q, want %q", got, tt.want)
		}
	}
}
