package coinfolio

import (
	"encoding/json"
	"slices"
)

// Mode selects what a replay computes.
type Mode int

const (
	// CostBasis tracks quantity and weighted average cost. Transfers are ignored:
	// moving an asset between custody locations neither acquires nor disposes of it.
	CostBasis Mode = iota
	// NetQuantity tracks quantities only, transfers included.
	NetQuantity
)

func (m Mode) String() string {
	switch m {
	case CostBasis:
		return "cost-basis"
	case NetQuantity:
		return "net-quantity"
	}
	return "unknown"
}

// AllAccounts is the scope of a replay over the whole portfolio.
const AllAccounts = ""

// Position is the replayed state of one symbol.
type Position struct {
	Symbol    string
	Quantity  Quantity
	TotalCost Money // always zero in NetQuantity mode
}

// AverageCost is the cost basis per unit, zero when the quantity is zero.
func (p Position) AverageCost() Money {
	if p.Quantity.IsZero() {
		return Money{}
	}
	return p.TotalCost.Div(p.Quantity)
}

// MarshalJSON writes symbol, quantity, totalCost and averageCost.
func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", p.Symbol)
	w.Append("quantity", p.Quantity)
	w.Append("totalCost", p.TotalCost)
	w.Append("averageCost", p.AverageCost())
	return w.MarshalJSON()
}

// Positions is the result of a replay: one Position per symbol touched.
type Positions map[string]Position

// Symbols returns the symbols in alphabetical order.
func (ps Positions) Symbols() []string {
	symbols := make([]string, 0, len(ps))
	for s := range ps {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)
	return symbols
}

// Sorted returns the positions ordered by symbol.
func (ps Positions) Sorted() []Position {
	out := make([]Position, 0, len(ps))
	for _, s := range ps.Symbols() {
		out = append(out, ps[s])
	}
	return out
}

// Quantities returns the quantity of each symbol.
func (ps Positions) Quantities() map[string]Quantity {
	out := make(map[string]Quantity, len(ps))
	for s, p := range ps {
		out[s] = p.Quantity
	}
	return out
}

// MarshalJSON writes the positions as a JSON array ordered by symbol.
func (ps Positions) MarshalJSON() ([]byte, error) { return json.Marshal(ps.Sorted()) }

// Replay folds the ledger into a position table.
//
// Transactions are sorted by (date, id) first, so txs can be in any order.
// scope is either AllAccounts or an account name: in an account scope, a transfer only
// contributes the leg on that account's side, and other transactions contribute the legs
// they book on that account (both legs when their account is the scope).
//
// Replay never fails. Legs without a symbol are skipped and quantities may go negative.
func Replay(txs []Transaction, mode Mode, scope string) Positions {
	ps := make(Positions)
	for _, tx := range Chronological(txs) {
		if mode == CostBasis && tx.Type.IsTransfer() {
			continue
		}
		applyFrom, applyTo := legsInScope(tx, scope)
		// the sell leg reads the state before this transaction's buy leg.
		if applyFrom {
			ps.sell(tx.fromLeg(), mode)
		}
		if applyTo {
			ps.buy(tx.toLeg(), mode)
		}
	}
	return ps
}

// legsInScope reports which legs of tx belong to the scope.
func legsInScope(tx Transaction, scope string) (from, to bool) {
	switch {
	case scope == AllAccounts:
		return true, true
	case tx.Type.IsTransfer():
		return tx.FromAccount == scope, tx.ToAccount == scope
	case tx.Account == scope:
		return true, true
	default:
		return tx.FromAccount == scope, tx.ToAccount == scope
	}
}

// sell removes l.quantity units of l.symbol at the current average cost.
func (ps Positions) sell(l leg, mode Mode) {
	if l.symbol == "" {
		return
	}
	p := ps[l.symbol]
	p.Symbol = l.symbol
	if mode == CostBasis && !p.Quantity.IsZero() {
		// same as AverageCost().Mul(q), but exact when selling everything.
		p.TotalCost = p.TotalCost.Sub(p.TotalCost.Mul(l.quantity).Div(p.Quantity))
	}
	p.Quantity = p.Quantity.Sub(l.quantity)
	ps[l.symbol] = p
}

// buy adds l.quantity units of l.symbol at l.price each.
func (ps Positions) buy(l leg, mode Mode) {
	if l.symbol == "" {
		return
	}
	p := ps[l.symbol]
	p.Symbol = l.symbol
	p.Quantity = p.Quantity.Add(l.quantity)
	if mode == CostBasis {
		p.TotalCost = p.TotalCost.Add(l.price.Mul(l.quantity))
	}
	ps[l.symbol] = p
}
