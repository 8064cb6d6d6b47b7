package coinfolio

import (
	"errors"
	"fmt"
	"strings"
)

// TxType is the kind of a ledger entry.
type TxType string

const (
	TypeBuy      TxType = "buy"
	TypeSell     TxType = "sell"
	TypeSwap     TxType = "swap"
	TypeTransfer TxType = "transfer"
	TypeOther    TxType = "other"
)

// ParseType parses a transaction type, case-insensitively. The empty string is TypeOther.
func ParseType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return TypeOther, nil
	case TypeBuy, TypeSell, TypeSwap, TypeTransfer, TypeOther:
		return t, nil
	}
	return t, fmt.Errorf("unknown transaction type %q, want one of buy, sell, swap, transfer, other", s)
}

// IsTransfer reports whether t moves assets between accounts. Legacy rows may carry any casing.
func (t TxType) IsTransfer() bool { return strings.EqualFold(strings.TrimSpace(string(t)), string(TypeTransfer)) }

// Transaction is a ledger entry. The JSON field names are the wire format shared by the CSV import and the HTTP API.
//
// A transaction has up to two legs: the "from" leg is the asset leaving the position,
// the "to" leg the asset entering it. A buy usually only has a "to" leg, a sell only a "from" leg, and a swap both.
type Transaction struct {
	ID           int64    `json:"id,omitempty"`
	Date         Date     `json:"date"`
	Type         TxType   `json:"type"`
	Notes        string   `json:"notes,omitempty"`
	Account      string   `json:"account,omitempty"`
	FromSymbol   string   `json:"fromSymbol,omitempty"`
	FromQuantity Quantity `json:"fromQuantity"`
	FromPrice    Money    `json:"fromPrice"`
	ToSymbol     string   `json:"toSymbol,omitempty"`
	ToQuantity   Quantity `json:"toQuantity"`
	ToPrice      Money    `json:"toPrice"`
	FromAccount  string   `json:"fromAccount,omitempty"`
	ToAccount    string   `json:"toAccount,omitempty"`
}

// normalizeSymbol returns the canonical form of an asset symbol.
func normalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Normalize returns a copy of tx in canonical form: lower case type, upper case symbols, trimmed labels.
// Unknown types are kept as is, so that Validate can report them.
func (tx Transaction) Normalize() Transaction {
	if t, err := ParseType(string(tx.Type)); err == nil {
		tx.Type = t
	} else {
		tx.Type = TxType(strings.ToLower(strings.TrimSpace(string(tx.Type))))
	}
	tx.FromSymbol = normalizeSymbol(tx.FromSymbol)
	tx.ToSymbol = normalizeSymbol(tx.ToSymbol)
	tx.Account = strings.TrimSpace(tx.Account)
	tx.FromAccount = strings.TrimSpace(tx.FromAccount)
	tx.ToAccount = strings.TrimSpace(tx.ToAccount)
	return tx
}

// Validate checks the transaction before it enters the ledger.
// Replay itself never validates: it tolerates whatever is already stored.
func (tx Transaction) Validate() error {
	var errs []error
	if tx.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	if _, err := ParseType(string(tx.Type)); err != nil {
		errs = append(errs, err)
	}
	if tx.FromQuantity.IsNegative() {
		errs = append(errs, fmt.Errorf("fromQuantity must not be negative, got %v", tx.FromQuantity))
	}
	if tx.ToQuantity.IsNegative() {
		errs = append(errs, fmt.Errorf("toQuantity must not be negative, got %v", tx.ToQuantity))
	}
	if tx.FromPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("fromPrice must not be negative, got %v", tx.FromPrice))
	}
	if tx.ToPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("toPrice must not be negative, got %v", tx.ToPrice))
	}
	if tx.Type.IsTransfer() && tx.FromAccount == "" && tx.ToAccount == "" {
		errs = append(errs, errors.New("a transfer needs fromAccount or toAccount"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, errors.Join(errs...))
	}
	return nil
}

// Involves reports whether the transaction concerns the named account in any of its account fields.
func (tx Transaction) Involves(account string) bool {
	return account != "" && (tx.Account == account || tx.FromAccount == account || tx.ToAccount == account)
}

// leg is one side of a transaction.
type leg struct {
	symbol   string
	quantity Quantity
	price    Money
}

func (tx Transaction) fromLeg() leg {
	return leg{symbol: normalizeSymbol(tx.FromSymbol), quantity: tx.FromQuantity, price: tx.FromPrice}
}

func (tx Transaction) toLeg() leg {
	return leg{symbol: normalizeSymbol(tx.ToSymbol), quantity: tx.ToQuantity, price: tx.ToPrice}
}

// Patch is a partial update of a transaction: nil fields keep the stored value.
type Patch struct {
	Date         *Date     `json:"date,omitempty"`
	Type         *TxType   `json:"type,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Account      *string   `json:"account,omitempty"`
	FromSymbol   *string   `json:"fromSymbol,omitempty"`
	FromQuantity *Quantity `json:"fromQuantity,omitempty"`
	FromPrice    *Money    `json:"fromPrice,omitempty"`
	ToSymbol     *string   `json:"toSymbol,omitempty"`
	ToQuantity   *Quantity `json:"toQuantity,omitempty"`
	ToPrice      *Money    `json:"toPrice,omitempty"`
	FromAccount  *string   `json:"fromAccount,omitempty"`
	ToAccount    *string   `json:"toAccount,omitempty"`
}

// Apply returns tx updated with every field set in p. The id never changes.
func (p Patch) Apply(tx Transaction) Transaction {
	set(&tx.Date, p.Date)
	set(&tx.Type, p.Type)
	set(&tx.Notes, p.Notes)
	set(&tx.Account, p.Account)
	set(&tx.FromSymbol, p.FromSymbol)
	set(&tx.FromQuantity, p.FromQuantity)
	set(&tx.FromPrice, p.FromPrice)
	set(&tx.ToSymbol, p.ToSymbol)
	set(&tx.ToQuantity, p.ToQuantity)
	set(&tx.ToPrice, p.ToPrice)
	set(&tx.FromAccount, p.FromAccount)
	set(&tx.ToAccount, p.ToAccount)
	return tx
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
