package coinfolio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// DefaultManualAccount is the account of manual balances entered without one.
const DefaultManualAccount = "NoAccount"

// ManualBalance is a holding declared by hand rather than derived from the ledger,
// for assets sitting on platforms whose history is not recorded.
type ManualBalance struct {
	ID       int64    `json:"id,omitempty"`
	Account  string   `json:"account"`
	Symbol   string   `json:"symbol"`
	Quantity Quantity `json:"quantity"`
	Notes    string   `json:"notes,omitempty"`
}

// Normalize returns b with an upper case symbol and a default account.
func (b ManualBalance) Normalize() ManualBalance {
	b.Symbol = normalizeSymbol(b.Symbol)
	b.Account = strings.TrimSpace(b.Account)
	if b.Account == "" {
		b.Account = DefaultManualAccount
	}
	return b
}

// Validate checks a balance before it is stored.
func (b ManualBalance) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidBalance)
	}
	return nil
}

// ManualPatch is a partial update of a manual balance: nil fields keep the stored value.
type ManualPatch struct {
	Account  *string   `json:"account,omitempty"`
	Symbol   *string   `json:"symbol,omitempty"`
	Quantity *Quantity `json:"quantity,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

// Apply returns b updated with every field set in p.
func (p ManualPatch) Apply(b ManualBalance) ManualBalance {
	set(&b.Account, p.Account)
	set(&b.Symbol, p.Symbol)
	set(&b.Quantity, p.Quantity)
	set(&b.Notes, p.Notes)
	return b.Normalize()
}

// ManualStore persists manual balances.
type ManualStore interface {
	// List returns every balance ordered by account, then symbol.
	List(ctx context.Context) ([]ManualBalance, error)
	Insert(ctx context.Context, b ManualBalance) (int64, error)
	Update(ctx context.Context, id int64, p ManualPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ManualBook is an in-memory ManualStore. Its zero value is empty and ready to use.
type ManualBook struct {
	mu       sync.RWMutex
	balances []ManualBalance
	lastID   int64
}

func (m *ManualBook) List(_ context.Context) ([]ManualBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.balances)
	slices.SortStableFunc(out, func(a, b ManualBalance) int {
		return cmp.Or(cmp.Compare(a.Account, b.Account), cmp.Compare(a.Symbol, b.Symbol))
	})
	return out, nil
}

func (m *ManualBook) Insert(_ context.Context, b ManualBalance) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID++
	b.ID = m.lastID
	m.balances = append(m.balances, b)
	return b.ID, nil
}

func (m *ManualBook) Update(_ context.Context, id int64, p ManualPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.balances {
		if b.ID == id {
			m.balances[i] = p.Apply(b)
			return true, nil
		}
	}
	return false, nil
}

func (m *ManualBook) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.balances)
	m.balances = slices.DeleteFunc(m.balances, func(b ManualBalance) bool { return b.ID == id })
	return len(m.balances) < before, nil
}

// AccountValuation is the valuation of one account.
type AccountValuation struct {
	Account    string    `json:"account"`
	TotalValue Money     `json:"totalValue"`
	Breakdown  []Holding `json:"breakdown"`
}

// SymbolTotal is the sum of one symbol over every account.
type SymbolTotal struct {
	Symbol        string   `json:"symbol"`
	TotalQuantity Quantity `json:"totalQuantity"`
	CurrentPrice  Money    `json:"currentPrice"`
	TotalValue    Money    `json:"totalValue"`
}

// ManualOverview values the manual balances.
type ManualOverview struct {
	TotalValue Money              `json:"totalValue"`
	ByAccount  []AccountValuation `json:"byAccount"`
	BySymbol   []SymbolTotal      `json:"bySymbol"`
}

// NewManualOverview values balances with a single price lookup.
// Only symbols whose total quantity is positive are priced, the others are worth 0.
func NewManualOverview(ctx context.Context, balances []ManualBalance, prices PriceLookup) ManualOverview {
	totals := make(map[string]Quantity)
	for _, b := range balances {
		totals[b.Symbol] = totals[b.Symbol].Add(b.Quantity)
	}
	found := lookupPrices(ctx, prices, heldSymbols(totals))

	// rows of the same account and symbol add up to one holding, in order of first appearance.
	type position struct{ account, symbol string }
	held := make(map[position]Quantity)
	bySymbols := make(map[string][]string)
	for _, b := range balances {
		p := position{b.Account, b.Symbol}
		if _, ok := held[p]; !ok {
			bySymbols[b.Account] = append(bySymbols[b.Account], b.Symbol)
		}
		held[p] = held[p].Add(b.Quantity)
	}

	var o ManualOverview
	accounts := slices.Sorted(maps.Keys(bySymbols))
	o.ByAccount = make([]AccountValuation, 0, len(accounts))
	for _, name := range accounts {
		a := AccountValuation{Account: name}
		for _, s := range bySymbols[name] {
			h := Holding{Symbol: s, Quantity: held[position{name, s}], CurrentPrice: found[s]}
			h.TotalValue = h.CurrentPrice.Mul(h.Quantity)
			a.Breakdown = append(a.Breakdown, h)
			a.TotalValue = a.TotalValue.Add(h.TotalValue)
		}
		o.TotalValue = o.TotalValue.Add(a.TotalValue)
		o.ByAccount = append(o.ByAccount, a)
	}

	symbols := make([]string, 0, len(totals))
	for s := range totals {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)
	o.BySymbol = make([]SymbolTotal, 0, len(symbols))
	for _, s := range symbols {
		st := SymbolTotal{Symbol: s, TotalQuantity: totals[s], CurrentPrice: found[s]}
		st.TotalValue = st.CurrentPrice.Mul(st.TotalQuantity)
		o.BySymbol = append(o.BySymbol, st)
	}
	return o
}

var errNoManualStore = errors.New("manual balances are not configured")
