// Copyright (c) 2025 Neomantra Corp
//
// Partition Layout (spec §4.2, §6.1): deterministic path derivation and
// enumeration. Reading is a pure function of the disk state (spec §3
// invariant 6) — this package computes paths and lists partition
// directories; the only thing it creates is a partition directory, in
// EnsurePartitionDir. Callers (barstore, chainstore) own the file I/O.

package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantlayer/alphastore"
)

const (
	partitionRootName = "alpha"
	BarFileExt        = "duckdb"
	ChainFileExt      = "parquet"
	ManifestFileName  = "meta.json"
)

// Layout derives the on-disk paths for a given root directory.
type Layout struct {
	root string
}

// New validates root is non-empty and returns a Layout rooted there.
// root itself is not required to exist yet.
func New(root string) (*Layout, error) {
	if strings.TrimSpace(root) == "" {
		return nil, alphastore.NewStoreError(alphastore.KindInvalidArgument, "empty storage root")
	}
	return &Layout{root: root}, nil
}

func (l *Layout) Root() string {
	return l.root
}

// PartitionDir returns `{root}/alpha/{SYMBOL}/{YYYY}/{MM}/` for symbol
// and the given year/month. symbol must already be normalized (spec
// §4.2: invalid/empty symbols are rejected by the layout before any I/O,
// which alphastore.NormalizeSymbol enforces upstream of this call).
func (l *Layout) PartitionDir(symbol alphastore.Symbol, year int, month int) string {
	return filepath.Join(l.root, partitionRootName, string(symbol),
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
}

// SessionPartitionDir is PartitionDir for the month containing session.
func (l *Layout) SessionPartitionDir(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return l.PartitionDir(symbol, session.Year(), session.Month())
}

// BarFilePath returns the month-scoped row-store file path:
// bars_1m.duckdb.
func (l *Layout) BarFilePath(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return filepath.Join(l.SessionPartitionDir(symbol, session), "bars_1m."+BarFileExt)
}

// ChainFilePath returns the daily contract-universe file path:
// chain_{YYYY-MM-DD}.parquet.
func (l *Layout) ChainFilePath(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return filepath.Join(l.SessionPartitionDir(symbol, session),
		fmt.Sprintf("chain_%s.%s", session.String(), ChainFileExt))
}

// SnapshotFilePath returns the daily minute-snapshot file path:
// snapshots_{YYYY-MM-DD}.parquet.
func (l *Layout) SnapshotFilePath(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return filepath.Join(l.SessionPartitionDir(symbol, session),
		fmt.Sprintf("snapshots_%s.%s", session.String(), ChainFileExt))
}

// ManifestPath returns the meta.json path at the month partition root.
func (l *Layout) ManifestPath(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return filepath.Join(l.SessionPartitionDir(symbol, session), ManifestFileName)
}

// EnsurePartitionDir creates the partition directory for (symbol,
// session) if absent.
func (l *Layout) EnsurePartitionDir(symbol alphastore.Symbol, session alphastore.SessionDate) error {
	dir := l.SessionPartitionDir(symbol, session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "create partition dir "+dir, err)
	}
	return nil
}

// Symbols enumerates the normalized symbols that have a partition
// directory under the storage root, sorted ascending.
func (l *Layout) Symbols() ([]alphastore.Symbol, error) {
	root := filepath.Join(l.root, partitionRootName)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "list symbols under "+root, err)
	}
	var symbols []alphastore.Symbol
	for _, ent := range entries {
		if ent.IsDir() {
			symbols = append(symbols, alphastore.Symbol(ent.Name()))
		}
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols, nil
}

// ListSessions enumerates the session dates that have a chain or
// snapshot file under the given symbol's partition tree, sorted
// ascending. Used by verification/backfill tooling to discover what's
// on disk without a separate index.
func (l *Layout) ListSessions(symbol alphastore.Symbol) ([]alphastore.SessionDate, error) {
	symbolRoot := filepath.Join(l.root, partitionRootName, string(symbol))
	var sessions []alphastore.SessionDate
	seen := make(map[string]bool)

	years, err := os.ReadDir(symbolRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "list years under "+symbolRoot, err)
	}
	for _, yEnt := range years {
		if !yEnt.IsDir() {
			continue
		}
		monthsDir := filepath.Join(symbolRoot, yEnt.Name())
		months, err := os.ReadDir(monthsDir)
		if err != nil {
			continue
		}
		for _, mEnt := range months {
			if !mEnt.IsDir() {
				continue
			}
			partDir := filepath.Join(monthsDir, mEnt.Name())
			entries, err := os.ReadDir(partDir)
			if err != nil {
				continue
			}
			for _, fEnt := range entries {
				name := fEnt.Name()
				if !strings.HasSuffix(name, "."+ChainFileExt) ||
					!(strings.HasPrefix(name, "chain_") || strings.HasPrefix(name, "snapshots_")) {
					continue
				}
				dateStr := strings.TrimSuffix(name, "."+ChainFileExt)
				dateStr = strings.TrimPrefix(strings.TrimPrefix(dateStr, "chain_"), "snapshots_")
				session, err := alphastore.ParseSessionDate(dateStr)
				if err != nil || seen[dateStr] {
					continue
				}
				seen[dateStr] = true
				sessions = append(sessions, session)
			}
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Before(sessions[j]) })
	return sessions, nil
}
