// Copyright (c) 2025 Neomantra Corp
//
// Query Engine (spec §4.6): chain snapshot reconstruction, expiry
// enumeration, and cached interval-aggregated bar retrieval, composed
// over the bar store and chain store.

package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"iter"
	"os"
	"sort"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/internal/chainstore"
	"github.com/quantlayer/alphastore/layout"
)

// BarSource is the subset of barstore.Store the query engine needs.
type BarSource interface {
	GetSpot(ctx context.Context, symbol alphastore.Symbol, at alphastore.InstantUtc) (*alphastore.Money, error)
	GetBars(ctx context.Context, symbol alphastore.Symbol, from, to alphastore.InstantUtc, interval alphastore.Interval) iter.Seq2[alphastore.UnderlyingBar, error]
}

// partitionPrefetcher is implemented by BarSources that can warm their
// handle pool for a range ahead of a sequential GetBars walk (see
// barstore.Store.PrefetchPartitions). Asserted for optionally, since
// test doubles need not implement it.
type partitionPrefetcher interface {
	PrefetchPartitions(ctx context.Context, symbol alphastore.Symbol, from, to alphastore.InstantUtc) error
}

// Engine answers chain, expiry, and bar queries against a Layout,
// caching hot results per spec §4.6.3's latency budget.
type Engine struct {
	layout *layout.Layout
	bars   BarSource
	cache  *Cache
}

// NewEngine builds a query Engine. cache may be nil to disable caching
// entirely (useful for tests asserting on uncached behavior).
func NewEngine(lay *layout.Layout, bars BarSource, cache *Cache) *Engine {
	return &Engine{layout: lay, bars: bars, cache: cache}
}

// manifestHash returns a short stable digest of the session's manifest
// file, or "none" if absent, used to invalidate the chain cache on any
// verified manifest change (spec §5).
func (e *Engine) manifestHash(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	data, err := os.ReadFile(e.layout.ManifestPath(symbol, session))
	if err != nil {
		return "none"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ChainSnapshot reconstructs a chain view per spec §4.6.1.
func (e *Engine) ChainSnapshot(ctx context.Context, q alphastore.ChainQuery) (alphastore.ChainView, error) {
	spot, err := e.bars.GetSpot(ctx, q.Symbol, q.At)
	if err != nil {
		return alphastore.ChainView{}, err
	}
	if spot == nil {
		return alphastore.ChainView{Query: q, Hints: []alphastore.ChainQueryHint{alphastore.HintNoUnderlying}}, nil
	}

	session := q.At.SessionDate()
	mHash := e.manifestHash(q.Symbol, session)
	fp := ChainFingerprint(q, mHash)
	if e.cache != nil {
		if cached, ok := e.cache.GetChainView(fp); ok {
			return cached, nil
		}
	}

	path := e.layout.SnapshotFilePath(q.Symbol, session)
	rows, err := chainstore.ReadSnapshots(ctx, path, q.Symbol, chainstore.SnapshotFilter{})
	if err != nil {
		if os.IsNotExist(err) || alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
			rows = nil
		} else {
			return alphastore.ChainView{}, err
		}
	}

	candidates, foundAny := latestPerContract(rows, q.At)
	view := alphastore.ChainView{Query: q, Spot: spot}
	if len(rows) > 0 && !foundAny {
		view.Hints = append(view.Hints, alphastore.HintBeforeSession)
		if e.cache != nil {
			e.cache.PutChainView(fp, view)
		}
		return view, nil
	}

	filtered := filterChain(candidates, q, *spot)
	sortChain(filtered)
	view.Rows = filtered

	if e.cache != nil {
		e.cache.PutChainView(fp, view)
	}
	return view, nil
}

type contractKey struct {
	Expiry alphastore.SessionDate
	Strike alphastore.Money
	Right  alphastore.Right
}

// latestPerContract selects, for each (Expiry, Strike, Right), the row
// with the greatest InstantUtc ≤ at, tie-breaking on the greater
// Bid+Ask sum (spec §4.6.1 steps 3 and its tie-break rule). foundAny
// reports whether at least one row qualified.
func latestPerContract(rows []alphastore.SnapshotRow, at alphastore.InstantUtc) ([]alphastore.SnapshotRow, bool) {
	best := map[contractKey]alphastore.SnapshotRow{}
	found := false
	for _, r := range rows {
		if r.TsUtc.After(at) {
			continue
		}
		found = true
		key := contractKey{Expiry: r.Expiry, Strike: r.Strike, Right: r.Right}
		cur, ok := best[key]
		if !ok || r.TsUtc.After(cur.TsUtc) ||
			(r.TsUtc.Equal(cur.TsUtc) && r.ToOptionQuote().BidAskSum().GreaterOrEqual(cur.ToOptionQuote().BidAskSum())) {
			best[key] = r
		}
	}
	out := make([]alphastore.SnapshotRow, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out, found
}

// filterChain applies the DTE and moneyness filters (spec §4.6.1 steps 4-5).
func filterChain(rows []alphastore.SnapshotRow, q alphastore.ChainQuery, spot alphastore.Money) []alphastore.SnapshotRow {
	out := make([]alphastore.SnapshotRow, 0, len(rows))
	for _, r := range rows {
		if r.DTE < q.DTEMin || r.DTE > q.DTEMax {
			continue
		}
		if q.Right != nil && r.Right != *q.Right {
			continue
		}
		moneyness := alphastore.Moneyness(r.Strike, spot)
		if moneyness < -q.MoneynessHalf || moneyness > q.MoneynessHalf {
			continue
		}
		m := moneyness
		r.Moneyness = &m
		out = append(out, r)
	}
	return out
}

// sortChain orders rows (Expiry asc, Strike asc, Right asc with C < P),
// per spec §4.6.1 step 6.
func sortChain(rows []alphastore.SnapshotRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Expiry.Equal(b.Expiry) {
			return a.Expiry.Before(b.Expiry)
		}
		if !a.Strike.Equal(b.Strike) {
			return a.Strike.LessThan(b.Strike)
		}
		return a.Right.Less(b.Right)
	})
}

// Expiries returns the sorted distinct expiries observed in the session
// of asOf with 0 ≤ DTE ≤ dteMax (spec §4.6.2).
func (e *Engine) Expiries(ctx context.Context, symbol alphastore.Symbol, asOf alphastore.InstantUtc, dteMax int) ([]alphastore.SessionDate, error) {
	session := asOf.SessionDate()
	path := e.layout.SnapshotFilePath(symbol, session)
	rows, err := chainstore.ReadSnapshots(ctx, path, symbol, chainstore.SnapshotFilter{})
	if err != nil {
		if alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
			return nil, nil
		}
		return nil, err
	}

	seen := map[alphastore.SessionDate]bool{}
	var out []alphastore.SessionDate
	for _, r := range rows {
		if r.DTE < 0 || r.DTE > dteMax {
			continue
		}
		if seen[r.Expiry] {
			continue
		}
		seen[r.Expiry] = true
		out = append(out, r.Expiry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Bars returns interval-aggregated bars for q, serving from cache when
// available (spec §4.3, §4.6.3).
func (e *Engine) Bars(ctx context.Context, q alphastore.BarQuery) ([]alphastore.UnderlyingBar, error) {
	fp := BarFingerprint(q)
	if e.cache != nil {
		if cached, ok := e.cache.GetBars(fp); ok {
			return cached, nil
		}
	}

	if prefetcher, ok := e.bars.(partitionPrefetcher); ok {
		if err := prefetcher.PrefetchPartitions(ctx, q.Symbol, q.From, q.To); err != nil {
			return nil, err
		}
	}

	var out []alphastore.UnderlyingBar
	for b, err := range e.bars.GetBars(ctx, q.Symbol, q.From, q.To, q.Interval) {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	if e.cache != nil {
		e.cache.PutBars(fp, out)
	}
	return out, nil
}

// Spot returns the resolved spot price at an instant, serving from
// cache when available.
func (e *Engine) Spot(ctx context.Context, symbol alphastore.Symbol, at alphastore.InstantUtc) (*alphastore.Money, error) {
	fp := SpotFingerprint(symbol, at)
	if e.cache != nil {
		if cached, ok := e.cache.GetSpot(fp); ok {
			return cached, nil
		}
	}
	spot, err := e.bars.GetSpot(ctx, symbol, at)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.PutSpot(fp, spot)
	}
	return spot, nil
}
