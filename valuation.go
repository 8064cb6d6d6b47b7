package coinfolio

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"
)

// PriceLookup resolves a batch of symbols to their current USD price.
// Symbols it does not know are simply absent from the result.
type PriceLookup interface {
	Prices(ctx context.Context, symbols []string) (map[string]Money, error)
}

// PriceOracle is a PriceLookup that can also price a single symbol.
type PriceOracle interface {
	PriceLookup
	// Price returns the price of symbol, ok is false for an unknown symbol.
	Price(ctx context.Context, symbol string) (price Money, ok bool, err error)
}

// PriceFunc adapts a function to the PriceOracle interface.
type PriceFunc func(ctx context.Context, symbols []string) (map[string]Money, error)

func (f PriceFunc) Prices(ctx context.Context, symbols []string) (map[string]Money, error) {
	return f(ctx, symbols)
}

func (f PriceFunc) Price(ctx context.Context, symbol string) (Money, bool, error) {
	prices, err := f(ctx, []string{symbol})
	if err != nil {
		return Money{}, false, err
	}
	p, ok := prices[symbol]
	return p, ok, nil
}

// Holding is the valuation of one symbol.
type Holding struct {
	Symbol       string   `json:"symbol"`
	Quantity     Quantity `json:"quantity"`
	CurrentPrice Money    `json:"currentPrice"`
	TotalValue   Money    `json:"totalValue"`
}

// Valuation is the market value of a set of holdings.
type Valuation struct {
	TotalValue Money     `json:"totalValue"`
	Breakdown  []Holding `json:"breakdown"`
}

// ValueAt values quantities at current prices.
//
// Only symbols with a positive quantity are priced, in a single call to prices.
// Unknown symbols are worth 0, and so is everything if the lookup fails.
func ValueAt(ctx context.Context, quantities map[string]Quantity, prices PriceLookup) Valuation {
	held := heldSymbols(quantities)
	return valueWith(quantities, held, lookupPrices(ctx, prices, held))
}

// heldSymbols returns the sorted symbols with a positive quantity.
func heldSymbols(quantities map[string]Quantity) []string {
	var held []string
	for s, q := range quantities {
		if q.IsPositive() {
			held = append(held, s)
		}
	}
	slices.Sort(held)
	return held
}

// valueWith values the held symbols with known prices.
func valueWith(quantities map[string]Quantity, held []string, prices map[string]Money) Valuation {
	v := Valuation{Breakdown: make([]Holding, 0, len(held))}
	for _, s := range held {
		h := Holding{Symbol: s, Quantity: quantities[s], CurrentPrice: prices[s]}
		h.TotalValue = h.CurrentPrice.Mul(h.Quantity)
		v.TotalValue = v.TotalValue.Add(h.TotalValue)
		v.Breakdown = append(v.Breakdown, h)
	}
	return v
}

// lookupPrices makes the single batched price call of a request.
// A failure is logged and degrades every price to 0.
func lookupPrices(ctx context.Context, prices PriceLookup, symbols []string) map[string]Money {
	if len(symbols) == 0 || prices == nil {
		return map[string]Money{}
	}
	found, err := prices.Prices(ctx, symbols)
	if err != nil {
		log.Warn().Err(err).Int("symbols", len(symbols)).Msg("price lookup failed, valuing at 0")
		return map[string]Money{}
	}
	if found == nil {
		return map[string]Money{}
	}
	return found
}
