package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/etnz/coinfolio"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko prices symbols with the simple/price endpoint. It implements coinfolio.PriceOracle.
type CoinGecko struct {
	BaseURL string
	APIKey  string // optional demo API key
	Symbols SymbolTable
	Client  *http.Client
}

// NewCoinGecko returns a client with a request timeout.
func NewCoinGecko(baseURL, apiKey string, symbols SymbolTable, timeout time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGecko{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Symbols: symbols,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Prices fetches every known symbol in one request. Unknown symbols, and symbols CoinGecko does not
// return, are absent from the result.
func (c *CoinGecko) Prices(ctx context.Context, symbols []string) (map[string]coinfolio.Money, error) {
	bySymbol := make(map[string]string)
	var ids []string
	for _, symbol := range symbols {
		id, ok := c.Symbols.ID(symbol)
		if !ok {
			continue
		}
		bySymbol[symbol] = id
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	prices := make(map[string]coinfolio.Money)
	if len(ids) == 0 {
		return prices, nil
	}

	lookups.Inc()
	payload, err := c.get(ctx, ids)
	if err != nil {
		lookupFailures.Inc()
		return nil, err
	}
	for symbol, id := range bySymbol {
		price, ok := usdPrice(payload, id)
		if !ok {
			log.Debug().Str("symbol", symbol).Str("id", id).Msg("no price returned")
			continue
		}
		prices[symbol] = price
	}
	return prices, nil
}

// Price fetches a single symbol.
func (c *CoinGecko) Price(ctx context.Context, symbol string) (coinfolio.Money, bool, error) {
	prices, err := c.Prices(ctx, []string{symbol})
	if err != nil {
		return coinfolio.Money{}, false, err
	}
	price, ok := prices[symbol]
	return price, ok, nil
}

// get calls simple/price and returns the decoded json document.
func (c *CoinGecko) get(ctx context.Context, ids []string) (any, error) {
	values := url.Values{}
	values.Set("ids", strings.Join(ids, ","))
	values.Set("vs_currencies", "usd")
	endpoint := c.BaseURL + "/simple/price?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch coingecko prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("coingecko status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode coingecko prices: %w", err)
	}
	log.Debug().Int("ids", len(ids)).Msg("fetched coingecko prices")
	return payload, nil
}

// usdPrice reads $["<id>"].usd from a simple/price document.
func usdPrice(payload any, id string) (coinfolio.Money, bool) {
	v, err := jsonpath.Get(`$[`+strconv.Quote(id)+`].usd`, payload)
	if err != nil {
		return coinfolio.Money{}, false
	}
	// jsonpath may wrap a single answer in a list.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return coinfolio.Money{}, false
		}
		v = list[0]
	}
	f, ok := v.(float64)
	if !ok {
		return coinfolio.Money{}, false
	}
	return coinfolio.USD(decimal.NewFromFloat(f)), true
}
