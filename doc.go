// Package coinfolio tracks a multi-account crypto portfolio from a ledger of
// buy, sell, swap and transfer transactions.
//
// The core functionalities include:
//   - Ledger: an append-mostly list of transactions, kept in a LedgerStore.
//     Ledger is the in-memory implementation, package store the SQL ones.
//   - Replay: folding the ledger, in (date, id) order, into per symbol
//     positions. CostBasis mode tracks the weighted average cost and ignores
//     transfers; NetQuantity mode only counts units, transfers included, and
//     can be scoped to a single account.
//   - Valuation: pricing positions with one batched PriceLookup call. Prices
//     that cannot be found are worth 0, the valuation itself never fails.
//   - Snapshots and performance: recording the total value at a date, and
//     comparing the latest snapshot with the ones a day, a week, a month and
//     a year earlier.
//
// Positions are never stored: every answer is replayed from the ledger. The
// Tracker type wires the stores, the replay and the price oracle together and
// is what the `cfl` command line and the HTTP server use.
package coinfolio
