package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/etnz/coinfolio"
)

func TestSymbolTable(t *testing.T) {
	table := NewSymbolTable(map[string]string{" wif ": "dogwifcoin", "BTC": "wrapped-bitcoin", "": "x"})
	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"eth", "ethereum", true},
		{"WIF", "dogwifcoin", true},
		{"BTC", "wrapped-bitcoin", true},
		{"NOPE", "", false},
	}
	for _, tt := range tests {
		got, ok := table.ID(tt.symbol)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ID(%q) = %q, %v, want %q, %v", tt.symbol, got, ok, tt.want, tt.ok)
		}
	}
	builtin := NewSymbolTable(nil)
	if got, _ := builtin.ID("BTC"); got != "bitcoin" {
		t.Errorf("NewSymbolTable(extra) modified the built-in table: BTC = %q", got)
	}
	if got := table.Symbols(); !slices.IsSorted(got) || len(got) != len(builtin.Symbols())+1 {
		t.Errorf("Symbols() = %v", got)
	}
	// a returned list does not alias the table.
	symbols := builtin.Symbols()
	symbols[0] = "HACKED"
	if builtin.Symbols()[0] == "HACKED" {
		t.Error("Symbols() exposes the table")
	}
}

// fakeCoinGecko serves simple/price for a fixed table of ids and counts requests.
func fakeCoinGecko(t *testing.T, prices map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" || r.URL.Query().Get("vs_currencies") != "usd" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		ids := r.URL.Query().Get("ids")
		requested = append(requested, ids)
		var parts []string
		for _, id := range strings.Split(ids, ",") {
			if p, ok := prices[id]; ok {
				parts = append(parts, `"`+id+`":{"usd":`+p+`}`)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{" + strings.Join(parts, ",") + "}"))
	}))
	t.Cleanup(srv.Close)
	return srv, &requested
}

func TestCoinGecko_Prices(t *testing.T) {
	srv, requested := fakeCoinGecko(t, map[string]string{"bitcoin": "65000.5", "avalanche-2": "30"})
	cg := NewCoinGecko(srv.URL, "", NewSymbolTable(nil), time.Second)

	got, err := cg.Prices(context.Background(), []string{"BTC", "AVAX", "ETH", "UNKNOWN"})
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if len(*requested) != 1 {
		t.Fatalf("requests = %v, want exactly one", *requested)
	}
	if got, want := (*requested)[0], "bitcoin,avalanche-2,ethereum"; got != want {
		t.Errorf("requested ids = %q, want %q", got, want)
	}
	if p, want := got["BTC"], coinfolio.USD(65000.5); !p.Equal(want) {
		t.Errorf("BTC = %v, want %v", p, want)
	}
	if p, want := got["AVAX"], coinfolio.USD(30); !p.Equal(want) {
		t.Errorf("AVAX = %v, want %v", p, want)
	}
	if _, ok := got["ETH"]; ok {
		t.Error("ETH priced, but the server did not return it")
	}
	if _, ok := got["UNKNOWN"]; ok {
		t.Error("UNKNOWN priced, want absent")
	}

	if _, ok, err := cg.Price(context.Background(), "DOGE"); ok || err != nil {
		t.Errorf("Price(DOGE) = %v, %v, want absent", ok, err)
	}
	if _, err := cg.Prices(context.Background(), []string{"NOPE"}); err != nil || len(*requested) != 2 {
		t.Errorf("Prices(NOPE) sent a request or failed: %v %v", *requested, err)
	}
}

func TestCoinGecko_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	cg := NewCoinGecko(srv.URL, "key", NewSymbolTable(nil), time.Second)
	if _, err := cg.Prices(context.Background(), []string{"BTC"}); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Prices() error = %v, want a 429 error", err)
	}
}

func TestUSDPrice(t *testing.T) {
	doc := map[string]any{"usd-coin": map[string]any{"usd": 0.9998}, "broken": map[string]any{"eur": 1.0}}
	if got, ok := usdPrice(doc, "usd-coin"); !ok || !got.Equal(coinfolio.USD(0.9998)) {
		t.Errorf("usdPrice(usd-coin) = %v, %v", got, ok)
	}
	for _, id := range []string{"broken", "missing"} {
		if _, ok := usdPrice(doc, id); ok {
			t.Errorf("usdPrice(%q) ok, want absent", id)
		}
	}
}

// Without a reachable Redis the cache passes every symbol to its source.
func TestCache_Unavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	var asked []string
	source := coinfolio.PriceFunc(func(_ context.Context, symbols []string) (map[string]coinfolio.Money, error) {
		asked = append(asked, symbols...)
		return map[string]coinfolio.Money{"BTC": coinfolio.USD(1)}, nil
	})
	c := NewCache(rdb, source, "test", time.Minute)
	got, err := c.Prices(context.Background(), []string{"BTC", "ETH"})
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if !slices.Equal(asked, []string{"BTC", "ETH"}) {
		t.Errorf("source asked for %v", asked)
	}
	if p := got["BTC"]; !p.Equal(coinfolio.USD(1)) {
		t.Errorf("BTC = %v", p)
	}
}

func TestCache_Redis(t *testing.T) {
	addr := os.Getenv("CFL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CFL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	prefix := "coinfolio-test-" + time.Now().Format("150405.000")
	defer rdb.Del(ctx, prefix+":price:BTC", prefix+":price:ETH")

	calls := 0
	source := coinfolio.PriceFunc(func(_ context.Context, symbols []string) (map[string]coinfolio.Money, error) {
		calls++
		out := make(map[string]coinfolio.Money)
		for _, s := range symbols {
			out[s] = coinfolio.USD(100)
		}
		return out, nil
	})
	c := NewCache(rdb, source, prefix, time.Minute)
	for range 2 {
		got, err := c.Prices(ctx, []string{"BTC", "ETH"})
		if err != nil {
			t.Fatalf("Prices() error = %v", err)
		}
		if p := got["ETH"]; !p.Equal(coinfolio.USD(100)) {
			t.Errorf("ETH = %v, want 100", p)
		}
	}
	if calls != 1 {
		t.Errorf("source calls = %d, want 1", calls)
	}
}
