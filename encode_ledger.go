package coinfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// compactJSON marshals tx with only its meaningful fields, in wire order.
func (tx Transaction) compactJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", tx.ID)
	w.Append("date", tx.Date)
	w.Append("type", tx.Type)
	w.Optional("notes", tx.Notes)
	w.Optional("account", tx.Account)
	if tx.FromSymbol != "" {
		w.Append("fromSymbol", tx.FromSymbol)
		w.Append("fromQuantity", tx.FromQuantity)
		w.Append("fromPrice", tx.FromPrice)
	}
	if tx.ToSymbol != "" {
		w.Append("toSymbol", tx.ToSymbol)
		w.Append("toQuantity", tx.ToQuantity)
		w.Append("toPrice", tx.ToPrice)
	}
	w.Optional("fromAccount", tx.FromAccount)
	w.Optional("toAccount", tx.ToAccount)
	return w.MarshalJSON()
}

// EncodeTransaction writes a single transaction as one JSON line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := tx.compactJSON()
	if err != nil {
		return fmt.Errorf("could not encode transaction %d: %w", tx.ID, err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// EncodeLedger writes the transactions as JSON lines, in chronological order.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	bw := bufio.NewWriter(w)
	for _, tx := range Chronological(txs) {
		if err := EncodeTransaction(bw, tx); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeLedger reads transactions from JSON lines. Empty lines are skipped.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var tx Transaction
		if err := json.Unmarshal(lineBytes, &tx); err != nil {
			return nil, fmt.Errorf("line %d: could not decode transaction %q: %w", line, string(lineBytes), err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	return txs, nil
}
