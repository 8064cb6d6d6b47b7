package renderer

import (
	"fmt"

	"github.com/etnz/coinfolio"
)

// Transaction renders a transaction to a one line description.
func Transaction(tx coinfolio.Transaction) string {
	switch {
	case tx.Type.IsTransfer():
		return fmt.Sprintf("Moved %s %s from %s to %s", tx.FromQuantity, tx.FromSymbol, orNone(tx.FromAccount), orNone(tx.ToAccount))
	case tx.Type == coinfolio.TypeBuy:
		return fmt.Sprintf("Bought %s %s at %s", tx.ToQuantity, tx.ToSymbol, tx.ToPrice)
	case tx.Type == coinfolio.TypeSell:
		return fmt.Sprintf("Sold %s %s at %s", tx.FromQuantity, tx.FromSymbol, tx.FromPrice)
	case tx.Type == coinfolio.TypeSwap:
		return fmt.Sprintf("Swapped %s %s for %s %s", tx.FromQuantity, tx.FromSymbol, tx.ToQuantity, tx.ToSymbol)
	case tx.FromSymbol != "" && tx.ToSymbol != "":
		return fmt.Sprintf("%s %s %s for %s %s", tx.Type, tx.FromQuantity, tx.FromSymbol, tx.ToQuantity, tx.ToSymbol)
	case tx.ToSymbol != "":
		return fmt.Sprintf("%s %s %s in", tx.Type, tx.ToQuantity, tx.ToSymbol)
	case tx.FromSymbol != "":
		return fmt.Sprintf("%s %s %s out", tx.Type, tx.FromQuantity, tx.FromSymbol)
	default:
		return string(tx.Type)
	}
}

func orNone(account string) string {
	if account == "" {
		return "(none)"
	}
	return account
}
