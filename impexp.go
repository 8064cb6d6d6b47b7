package coinfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// CSVHeader is the column set of CSV imports and exports, the transaction wire field names.
var CSVHeader = []string{
	"date", "type", "notes", "account",
	"fromSymbol", "fromQuantity", "fromPrice",
	"toSymbol", "toQuantity", "toPrice",
	"fromAccount", "toAccount",
}

// DecodeCSV reads transactions from a CSV file with a header row.
//
// Columns are matched by name, in any order, case-insensitively. Missing columns read as empty.
// Numbers that cannot be parsed read as 0 and dates are parsed leniently; an unreadable date reads
// as the zero date and is rejected when the transaction is validated.
func DecodeCSV(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	var txs []Transaction
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read csv: %w", err)
		}
		field := func(name string) string {
			i, ok := columns[strings.ToLower(name)]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if strings.Join(record, "") == "" {
			continue
		}

		tx := Transaction{
			Type:         TxType(field("type")),
			Notes:        field("notes"),
			Account:      field("account"),
			FromSymbol:   field("fromSymbol"),
			FromQuantity: Quantity{value: lenientDecimal(field("fromQuantity"))},
			FromPrice:    Money{value: lenientDecimal(field("fromPrice"))},
			ToSymbol:     field("toSymbol"),
			ToQuantity:   Quantity{value: lenientDecimal(field("toQuantity"))},
			ToPrice:      Money{value: lenientDecimal(field("toPrice"))},
			FromAccount:  field("fromAccount"),
			ToAccount:    field("toAccount"),
		}
		if on, err := ParseDate(field("date")); err == nil {
			tx.Date = on
		}
		txs = append(txs, tx.Normalize())
	}
	return txs, nil
}

// lenientDecimal parses s, ignoring thousands separators and a leading '$'. Anything else unreadable is 0.
func lenientDecimal(s string) decimal.Decimal {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// EncodeCSV writes transactions as CSV with CSVHeader, in chronological order.
func EncodeCSV(w io.Writer, txs []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	number := func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return d.String()
	}
	for _, tx := range Chronological(txs) {
		record := []string{
			tx.Date.String(), string(tx.Type), tx.Notes, tx.Account,
			tx.FromSymbol, number(tx.FromQuantity.value), number(tx.FromPrice.value),
			tx.ToSymbol, number(tx.ToQuantity.value), number(tx.ToPrice.value),
			tx.FromAccount, tx.ToAccount,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("could not write transaction %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
