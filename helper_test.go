package coinfolio

import (
	"context"
	"slices"
)

// fakePrices is a PriceOracle over a fixed price table that records every batch it is asked for.
type fakePrices struct {
	prices map[string]Money
	err    error
	calls  [][]string
}

func newFakePrices(prices map[string]float64) *fakePrices {
	f := &fakePrices{prices: make(map[string]Money)}
	for s, p := range prices {
		f.prices[s] = USD(p)
	}
	return f
}

func (f *fakePrices) Prices(_ context.Context, symbols []string) (map[string]Money, error) {
	f.calls = append(f.calls, slices.Clone(symbols))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]Money)
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func (f *fakePrices) Price(ctx context.Context, symbol string) (Money, bool, error) {
	prices, err := f.Prices(ctx, []string{symbol})
	if err != nil {
		return Money{}, false, err
	}
	p, ok := prices[symbol]
	return p, ok, nil
}

// requested returns every symbol requested so far.
func (f *fakePrices) requested() []string {
	var all []string
	for _, c := range f.calls {
		all = append(all, c...)
	}
	return all
}

func buy(on, symbol string, quantity, price float64) Transaction {
	return Transaction{Date: MustParse(on), Type: TypeBuy, ToSymbol: symbol, ToQuantity: Q(quantity), ToPrice: USD(price)}
}

func sell(on, symbol string, quantity, price float64) Transaction {
	return Transaction{Date: MustParse(on), Type: TypeSell, FromSymbol: symbol, FromQuantity: Q(quantity), FromPrice: USD(price)}
}

func swap(on, from string, fromQuantity float64, to string, toQuantity, toPrice float64) Transaction {
	return Transaction{
		Date: MustParse(on), Type: TypeSwap,
		FromSymbol: from, FromQuantity: Q(fromQuantity),
		ToSymbol: to, ToQuantity: Q(toQuantity), ToPrice: USD(toPrice),
	}
}

func transfer(on, symbol string, quantity float64, fromAccount, toAccount string) Transaction {
	return Transaction{
		Date: MustParse(on), Type: TypeTransfer,
		FromSymbol: symbol, FromQuantity: Q(quantity),
		ToSymbol: symbol, ToQuantity: Q(quantity),
		FromAccount: fromAccount, ToAccount: toAccount,
	}
}

// in returns tx booked on an account.
func in(account string, tx Transaction) Transaction {
	tx.Account = account
	return tx
}

// withID returns tx with an explicit id.
func withID(id int64, tx Transaction) Transaction {
	tx.ID = id
	return tx
}
