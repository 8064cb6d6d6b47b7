package coinfolio

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Snapshot is a recorded total portfolio value.
//
// TotalValue is the ledger replayed up to Date and valued at the prices of the day the snapshot was recorded,
// not the prices of Date.
type Snapshot struct {
	ID         int64 `json:"id,omitempty"`
	Date       Date  `json:"date"`
	TotalValue Money `json:"totalValue"`
}

// SnapshotStore persists snapshots.
type SnapshotStore interface {
	// Insert records a snapshot and returns its id.
	Insert(ctx context.Context, on Date, totalValue Money) (int64, error)
	// ListAll returns every snapshot ordered by date, then id.
	ListAll(ctx context.Context) ([]Snapshot, error)
}

// SnapshotLog is an in-memory SnapshotStore. Its zero value is empty and ready to use.
type SnapshotLog struct {
	mu        sync.RWMutex
	snapshots []Snapshot
}

// NewSnapshotLog creates a log holding snapshots. Snapshots without an id are given one
// after the highest explicit id.
func NewSnapshotLog(snapshots ...Snapshot) *SnapshotLog {
	l := &SnapshotLog{}
	var last int64
	for _, s := range snapshots {
		last = max(last, s.ID)
	}
	for _, s := range snapshots {
		if s.ID == 0 {
			last++
			s.ID = last
		}
		l.snapshots = append(l.snapshots, s)
	}
	return l
}

func (l *SnapshotLog) Insert(_ context.Context, on Date, totalValue Money) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var id int64
	for _, s := range l.snapshots {
		id = max(id, s.ID)
	}
	id++
	l.snapshots = append(l.snapshots, Snapshot{ID: id, Date: on, TotalValue: totalValue})
	return id, nil
}

func (l *SnapshotLog) ListAll(_ context.Context) ([]Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := slices.Clone(l.snapshots)
	slices.SortStableFunc(out, compareSnapshots)
	return out, nil
}

func compareSnapshots(a, b Snapshot) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// NewestFirst returns a copy of snapshots ordered by date descending, the latest recorded first within a day.
func NewestFirst(snapshots []Snapshot) []Snapshot {
	out := slices.Clone(snapshots)
	slices.SortStableFunc(out, func(a, b Snapshot) int { return compareSnapshots(b, a) })
	return out
}
