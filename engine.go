// Copyright (c) 2025 Neomantra Corp
//
// Engine wires together the partition layout, bar store, chain store,
// query engine, and completeness scorer into the single façade
// external callers (cmd/alpha-cli, cmd/alpha-tui, cmd/alpha-serve) use.
// It carries no package-level state: every field an operation needs
// lives on the Engine value, so a process can run several independent
// Engines (distinct StorageRoots, distinct test fixtures) concurrently.

package alphastore

import (
	"context"
	"path/filepath"
	"time"

	"github.com/quantlayer/alphastore/internal/barstore"
	"github.com/quantlayer/alphastore/internal/chainstore"
	"github.com/quantlayer/alphastore/internal/pool"
	"github.com/quantlayer/alphastore/internal/query"
	"github.com/quantlayer/alphastore/internal/scorer"
	"github.com/quantlayer/alphastore/layout"
)

// Engine is the top-level handle on one storage root.
type Engine struct {
	layout       *layout.Layout
	bars         *barstore.Store
	query        *query.Engine
	buildVersion string
}

// Open builds an Engine rooted at cfg.StorageRoot, opening (but not
// eagerly populating) its bar store and query cache.
func Open(cfg Config) (*Engine, error) {
	lay, err := layout.New(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}

	poolCfg := pool.Config{
		Size:        cfg.Pool.Size,
		IdleTTL:     time.Duration(cfg.Pool.IdleTTLMin) * time.Minute,
		SweepPeriod: time.Duration(cfg.Pool.SweepPeriodMin) * time.Minute,
		Logger:      cfg.Logger,
	}
	bars := barstore.New(lay, poolCfg, cfg.Logger)

	cacheCfg := query.CacheConfig{
		ChainCapacity: cfg.Cache.ChainCapacity,
		BarCapacity:   cfg.Cache.BarCapacity,
		SpotCapacity:  cfg.Cache.SpotCapacity,
	}
	defaults := query.DefaultCacheConfig()
	if cacheCfg.ChainCapacity == 0 {
		cacheCfg.ChainCapacity = defaults.ChainCapacity
	}
	if cacheCfg.BarCapacity == 0 {
		cacheCfg.BarCapacity = defaults.BarCapacity
	}
	if cacheCfg.SpotCapacity == 0 {
		cacheCfg.SpotCapacity = defaults.SpotCapacity
	}
	cache := query.NewCache(cacheCfg, nil)
	qe := query.NewEngine(lay, bars, cache)

	return &Engine{layout: lay, bars: bars, query: qe, buildVersion: cfg.BuildVersion}, nil
}

// Close releases the Engine's pooled storage handles.
func (e *Engine) Close() {
	e.bars.Close()
}

// PutBars appends/upserts bars into their month partitions (spec §4.3).
func (e *Engine) PutBars(ctx context.Context, bars []UnderlyingBar) (int64, error) {
	return e.bars.PutBars(ctx, bars)
}

// Bars returns interval-aggregated bars for q, served from cache when
// available (spec §4.3, §4.6.3).
func (e *Engine) Bars(ctx context.Context, q BarQuery) ([]UnderlyingBar, error) {
	return e.query.Bars(ctx, q)
}

// Spot resolves the latest close at or before at, served from cache
// when available.
func (e *Engine) Spot(ctx context.Context, symbol Symbol, at InstantUtc) (*Money, error) {
	return e.query.Spot(ctx, symbol, at)
}

// WriteChain persists a session's contract universe and records it in
// the partition's manifest (spec §4.4, §4.5).
func (e *Engine) WriteChain(symbol Symbol, session SessionDate, rows []ContractUniverseRow) (WriteResult, error) {
	if err := e.layout.EnsurePartitionDir(symbol, session); err != nil {
		return WriteResult{}, err
	}
	path := e.layout.ChainFilePath(symbol, session)
	result, err := chainstore.WriteChain(path, rows)
	if err != nil {
		return WriteResult{}, err
	}
	if err := e.recordManifest(path, symbol, session, result); err != nil {
		return WriteResult{}, err
	}
	return result, nil
}

// WriteSnapshots persists a session's minute snapshots and records
// them in the partition's manifest (spec §4.4, §4.5).
func (e *Engine) WriteSnapshots(symbol Symbol, session SessionDate, rows []SnapshotRow) (WriteResult, error) {
	if err := e.layout.EnsurePartitionDir(symbol, session); err != nil {
		return WriteResult{}, err
	}
	path := e.layout.SnapshotFilePath(symbol, session)
	result, err := chainstore.WriteSnapshots(path, rows)
	if err != nil {
		return WriteResult{}, err
	}
	if err := e.recordManifest(path, symbol, session, result); err != nil {
		return WriteResult{}, err
	}
	return result, nil
}

// recordManifest updates the partition's manifest entry for the file
// just written at path (spec §4.5, §6.1).
func (e *Engine) recordManifest(path string, symbol Symbol, session SessionDate, result WriteResult) error {
	manifestPath := e.layout.ManifestPath(symbol, session)
	m, err := chainstore.LoadManifest(manifestPath, symbol, session)
	if err != nil {
		return err
	}
	entry := ManifestEntry{
		FileName:     filepath.Base(path),
		RecordCount:  result.Rows,
		Sha256:       result.Hash,
		Symbol:       symbol,
		SessionDate:  session,
		BuildVersion: e.buildVersion,
	}
	chainstore.PutEntry(&m, entry.FileName, entry, time.Now())
	return chainstore.SaveManifest(manifestPath, m)
}

// ReadChain reads a session's full contract universe.
func (e *Engine) ReadChain(ctx context.Context, symbol Symbol, session SessionDate) ([]ContractUniverseRow, error) {
	return chainstore.ReadChain(ctx, e.layout.ChainFilePath(symbol, session), symbol)
}

// ReadSnapshots reads a session's minute snapshots matching filter.
func (e *Engine) ReadSnapshots(ctx context.Context, symbol Symbol, session SessionDate, filter SnapshotFilter) ([]SnapshotRow, error) {
	path := e.layout.SnapshotFilePath(symbol, session)
	return chainstore.ReadSnapshots(ctx, path, symbol, chainstore.SnapshotFilter{
		At:     filter.At,
		DTEMin: filter.DTEMin,
		DTEMax: filter.DTEMax,
		Right:  filter.Right,
	})
}

// VerifyPartition hash-checks a session partition's files against its
// manifest (spec §4.5).
func (e *Engine) VerifyPartition(symbol Symbol, session SessionDate) (VerifyReport, error) {
	return chainstore.VerifyPartition(e.layout, symbol, session)
}

// ValidateSession reports a session's overall data-integrity status
// (spec §4.5), combining partition verification with expected-vs-actual
// bar counts.
func (e *Engine) ValidateSession(ctx context.Context, symbol Symbol, session SessionDate) (SessionIntegrityReport, error) {
	return chainstore.ValidateSession(ctx, e.layout, e.bars, symbol, session)
}

// ChainSnapshot reconstructs a chain view as of q.At (spec §4.6.1).
func (e *Engine) ChainSnapshot(ctx context.Context, q ChainQuery) (ChainView, error) {
	return e.query.ChainSnapshot(ctx, q)
}

// Expiries enumerates the distinct expiries observed in asOf's session
// with 0 ≤ DTE ≤ dteMax (spec §4.6.2).
func (e *Engine) Expiries(ctx context.Context, symbol Symbol, asOf InstantUtc, dteMax int) ([]SessionDate, error) {
	return e.query.Expiries(ctx, symbol, asOf, dteMax)
}

// Score computes a completeness report over a chain view (spec §4.7).
func (e *Engine) Score(view ChainView) CompletenessReport {
	return scorer.Score(view)
}

// ListSymbols enumerates the symbols that have a partition directory
// under the storage root, sorted ascending. Used by inspection tooling
// that needs to discover what's on disk without a separate index.
func (e *Engine) ListSymbols() ([]Symbol, error) {
	return e.layout.Symbols()
}

// ListSessions enumerates the session dates recorded for symbol,
// sorted ascending.
func (e *Engine) ListSessions(symbol Symbol) ([]SessionDate, error) {
	return e.layout.ListSessions(symbol)
}
