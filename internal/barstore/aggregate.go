// Copyright (c) 2025 Neomantra Corp
//
// Interval aggregation (spec §4.3) is lifted out of SQL and implemented
// as a pure function over already-fetched 1-minute bars, per Design
// Note §9 ("SQL-embedded business logic... lift into the query engine
// so storage is a dumb row provider"). GetBars always aggregates this
// way, so the store's "5m response" and a caller manually aggregating
// 1m bars are, by construction, the same code path (spec §8 testable
// property 5: interval aggregation is a homomorphism).

package barstore

import (
	"time"

	"github.com/quantlayer/alphastore"
)

// Aggregate groups ascending, minute-ordered bars into contiguous
// windows per interval and reduces each window to a single bar (spec
// §4.3). Windows with no underlying 1-minute bars are never emitted —
// since we only ever group bars that exist, that is automatic here.
// bars must already be sorted ascending by TsUtc and belong to a single
// symbol.
func Aggregate(bars []alphastore.UnderlyingBar, interval alphastore.Interval) []alphastore.UnderlyingBar {
	if interval == alphastore.Interval1m || len(bars) == 0 {
		return bars
	}

	windowKey := windowKeyFunc(interval)
	var out []alphastore.UnderlyingBar
	var cur *alphastore.UnderlyingBar
	var curKey int64

	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for _, b := range bars {
		key := windowKey(b.TsUtc.Time())
		if cur == nil || key != curKey {
			flush()
			nb := b
			cur = &nb
			curKey = key
			continue
		}
		if b.High.GreaterOrEqual(cur.High) {
			cur.High = b.High
		}
		if cur.Low.GreaterOrEqual(b.Low) {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	flush()
	return out
}

// windowKeyFunc returns a function mapping a bar's timestamp to an
// integer identifying its aggregation window: the open = the earliest
// bar in that window, so windows must align to a fixed clock grid, not
// to the first bar seen (spec §4.3).
func windowKeyFunc(interval alphastore.Interval) func(time.Time) int64 {
	switch interval {
	case alphastore.Interval5m, alphastore.Interval15m, alphastore.Interval1h:
		minutes := int64(interval.Minutes())
		return func(t time.Time) int64 {
			mins := t.Unix() / 60
			return (mins / minutes) * minutes
		}
	case alphastore.Interval1d:
		return func(t time.Time) int64 {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return d.Unix()
		}
	default:
		return func(t time.Time) int64 { return t.Unix() / 60 }
	}
}
