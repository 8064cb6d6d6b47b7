package coinfolio

import "github.com/shopspring/decimal"

// Offset is a lookback period of the performance analysis.
type Offset struct {
	Name string // used as a JSON key prefix: dayChange, dayChangePercent...
	Days int
}

// Offsets are the lookback periods reported by ComputePerformance.
var Offsets = []Offset{
	{Name: "day", Days: 1},
	{Name: "week", Days: 7},
	{Name: "month", Days: 30},
	{Name: "year", Days: 365},
}

// Delta is the change of the portfolio value over an Offset.
// Base is nil when no snapshot is old enough, ChangePercent is nil when Base is nil or worth 0.
type Delta struct {
	Offset        Offset
	Base          *Snapshot
	Change        *Money
	ChangePercent *Percent
}

// Available reports whether a base snapshot was found.
func (d Delta) Available() bool { return d.Base != nil }

// Performance compares the latest snapshot with older ones.
type Performance struct {
	Latest *Snapshot // nil when there are no snapshots
	Deltas []Delta   // one per Offsets entry, same order
}

// LatestValue is the value of the latest snapshot, 0 without snapshots.
func (p Performance) LatestValue() Money {
	if p.Latest == nil {
		return Money{}
	}
	return p.Latest.TotalValue
}

// Delta returns the delta for a lookback in days.
func (p Performance) Delta(days int) (Delta, bool) {
	for _, d := range p.Deltas {
		if d.Offset.Days == days {
			return d, true
		}
	}
	return Delta{}, false
}

// noSnapshots is the message of a performance computed without any snapshot.
const noSnapshots = "No snapshots available"

// MarshalJSON writes latestValue, latestDate and, for each offset, <name>Change and <name>ChangePercent (null when unavailable).
// Without snapshots, a message says so.
func (p Performance) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("latestValue", p.LatestValue())
	if p.Latest != nil {
		w.Append("latestDate", p.Latest.Date)
	} else {
		w.Append("latestDate", nil)
	}
	for _, d := range p.Deltas {
		w.Append(d.Offset.Name+"Change", d.Change)
		w.Append(d.Offset.Name+"ChangePercent", d.ChangePercent)
	}
	if p.Latest == nil {
		w.Append("message", noSnapshots)
	}
	return w.MarshalJSON()
}

// MostRecentAsOf returns the first snapshot dated on or before target.
// snapshots must be ordered newest first (see NewestFirst).
func MostRecentAsOf(snapshots []Snapshot, target Date) (Snapshot, bool) {
	for _, s := range snapshots {
		if !s.Date.After(target) {
			return s, true
		}
	}
	return Snapshot{}, false
}

// ComputePerformance computes a Delta for every Offsets entry, relative to today.
// snapshots must be ordered newest first (see NewestFirst); the first one is the latest value.
func ComputePerformance(snapshots []Snapshot, today Date) Performance {
	p := Performance{Deltas: make([]Delta, 0, len(Offsets))}
	if len(snapshots) > 0 {
		latest := snapshots[0]
		p.Latest = &latest
	}
	for _, o := range Offsets {
		d := Delta{Offset: o}
		if p.Latest != nil {
			if base, ok := MostRecentAsOf(snapshots, today.Add(-o.Days)); ok {
				change := p.Latest.TotalValue.Sub(base.TotalValue)
				d.Base, d.Change = &base, &change
				if !base.TotalValue.IsZero() {
					pct := Percent(change.value.Div(base.TotalValue.value).Mul(decimal.NewFromInt(100)).InexactFloat64())
					d.ChangePercent = &pct
				}
			}
		}
		p.Deltas = append(p.Deltas, d)
	}
	return p
}
