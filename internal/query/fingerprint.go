// Copyright (c) 2025 Neomantra Corp
//
// Cache fingerprints: a deterministic key for a query plus the
// manifest state it was answered against, so a verified manifest
// change invalidates exactly the cache entries it could have affected
// (spec §5's "consistent snapshot of its target partition").

package query

import (
	"fmt"

	"github.com/quantlayer/alphastore"
)

// ChainFingerprint keys the chain-view cache.
func ChainFingerprint(q alphastore.ChainQuery, manifestHash string) string {
	right := "both"
	if q.Right != nil {
		right = q.Right.String()
	}
	return fmt.Sprintf("chain|%s|%s|%d|%d|%g|%s|%s",
		q.Symbol, q.At, q.DTEMin, q.DTEMax, q.MoneynessHalf, right, manifestHash)
}

// BarFingerprint keys the bar-range cache. Bar partitions are not
// manifest-tracked (the bar store is an append-mostly row store, not a
// rewritten columnar file), so this cache relies on its 5 minute TTL
// rather than a manifest hash for invalidation.
func BarFingerprint(q alphastore.BarQuery) string {
	return fmt.Sprintf("bars|%s|%s|%s|%s", q.Symbol, q.From, q.To, q.Interval)
}

// SpotFingerprint keys the spot-price cache, likewise TTL-invalidated.
func SpotFingerprint(symbol alphastore.Symbol, at alphastore.InstantUtc) string {
	return fmt.Sprintf("spot|%s|%s", symbol, at)
}
