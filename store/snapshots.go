package store

import (
	"context"

	"github.com/etnz/coinfolio"
)

// Snapshots is the portfolio_snapshots table.
type Snapshots struct{ db *DB }

func (s *Snapshots) Insert(ctx context.Context, on coinfolio.Date, totalValue coinfolio.Money) (int64, error) {
	var id int64
	err := s.db.queryRow(ctx, "INSERT INTO portfolio_snapshots(date, totalValue) VALUES(?, ?) RETURNING id", on, totalValue).Scan(&id)
	return id, err
}

func (s *Snapshots) ListAll(ctx context.Context) ([]coinfolio.Snapshot, error) {
	rows, err := s.db.query(ctx, "SELECT id, date, totalValue FROM portfolio_snapshots ORDER BY date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []coinfolio.Snapshot
	for rows.Next() {
		var snap coinfolio.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Date, &snap.TotalValue); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
