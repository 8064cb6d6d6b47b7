// Package oracle prices crypto symbols in USD from CoinGecko, optionally through a Redis cache.
package oracle

import (
	"maps"
	"slices"
	"strings"
)

// coinIDs maps the ticker symbols known out of the box to CoinGecko coin ids. Read only.
var coinIDs = map[string]string{
	"ADA":     "cardano",
	"AERO":    "aerodrome-finance",
	"ALGO":    "algorand",
	"AVAX":    "avalanche-2",
	"BNB":     "binancecoin",
	"BTC":     "bitcoin",
	"CPOOL":   "clearpool",
	"CROW":    "cr0w-by-virtuals",
	"DOGE":    "dogecoin",
	"DOT":     "polkadot",
	"ENA":     "ethena",
	"ETH":     "ethereum",
	"FET":     "fetch-ai",
	"HBAR":    "hedera-hashgraph",
	"HYPE":    "hyperliquid",
	"JTO":     "jito-governance-token",
	"LINK":    "chainlink",
	"LTC":     "litecoin",
	"NEAR":    "near",
	"NOVA":    "ai-shell-nova",
	"ONDO":    "ondo-finance",
	"OXT":     "orchid-protocol",
	"PEPE":    "pepe",
	"RENDER":  "render-token",
	"ROOT":    "the-root-network",
	"SHDW":    "genesysgo-shadow",
	"SKI":     "ski-mask-dog",
	"SOL":     "solana",
	"SUI":     "sui",
	"SYLO":    "sylo",
	"UNI":     "uniswap",
	"USDC":    "usd-coin",
	"USDT":    "tether",
	"VIRTUAL": "virtual-protocol",
	"XLM":     "stellar",
	"XRP":     "ripple",
	"XTZ":     "tezos",
	"ZEC":     "zcash",
}

// SymbolTable is an immutable symbol to coin id mapping.
type SymbolTable struct {
	ids map[string]string
}

// NewSymbolTable returns the built-in symbols overridden by extra. Symbols are upper cased.
// NewSymbolTable(nil) is the built-in table.
func NewSymbolTable(extra map[string]string) SymbolTable {
	ids := maps.Clone(coinIDs)
	for symbol, id := range extra {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		id = strings.TrimSpace(id)
		if symbol == "" || id == "" {
			continue
		}
		ids[symbol] = id
	}
	return SymbolTable{ids: ids}
}

// ID returns the coin id of symbol.
func (t SymbolTable) ID(symbol string) (string, bool) {
	id, ok := t.ids[strings.ToUpper(symbol)]
	return id, ok
}

// Symbols returns every known symbol, sorted.
func (t SymbolTable) Symbols() []string {
	return slices.Sorted(maps.Keys(t.ids))
}
