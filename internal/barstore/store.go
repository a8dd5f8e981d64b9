// Copyright (c) 2025 Neomantra Corp
//
// Bar Store (spec §4.3): row-oriented minute OHLCV bars keyed on
// (Symbol, InstantUtc), backed by a DuckDB file per month partition —
// the same database/sql + DuckDB driver idiom internal/mcp_data/cache.go
// uses for its parquet cache views, here used as the actual row-store
// engine rather than a read-only view layer.

package barstore

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"sort"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"golang.org/x/sync/errgroup"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/internal/pool"
	"github.com/quantlayer/alphastore/layout"
)

const createBarsTableSQL = `
CREATE TABLE IF NOT EXISTS bars (
	symbol  VARCHAR NOT NULL,
	ts_utc  TIMESTAMP NOT NULL,
	open    BIGINT NOT NULL,
	high    BIGINT NOT NULL,
	low     BIGINT NOT NULL,
	close   BIGINT NOT NULL,
	volume  BIGINT NOT NULL,
	PRIMARY KEY (symbol, ts_utc)
)`

// Store is the bar store for one Layout. It owns a pool of DuckDB
// handles, one per (symbol, month) partition file.
type Store struct {
	layout *layout.Layout
	pool   *pool.Pool[*sql.DB]
	logger *slog.Logger
}

// New opens a Store rooted at lay. It does not eagerly open any
// partition files — those are opened lazily through the handle pool on
// first access.
func New(lay *layout.Layout, poolCfg pool.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{layout: lay, logger: logger}
	poolCfg.Logger = logger
	s.pool = pool.New(poolCfg, s.openHandle)
	return s
}

func (s *Store) openHandle(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createBarsTableSQL); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close disposes the underlying handle pool.
func (s *Store) Close() {
	s.pool.Dispose()
}

func (s *Store) partitionKey(symbol alphastore.Symbol, session alphastore.SessionDate) string {
	return s.layout.BarFilePath(symbol, session)
}

func (s *Store) rent(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate) (*sql.DB, string, error) {
	if err := s.layout.EnsurePartitionDir(symbol, session); err != nil {
		return nil, "", err
	}
	key := s.partitionKey(symbol, session)
	db, err := s.pool.Rent(ctx, key)
	return db, key, err
}

// rentExisting is rent for reads: a partition with no bar file yields
// KindStorageUnavailable instead of creating an empty database.
func (s *Store) rentExisting(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate) (*sql.DB, string, error) {
	key := s.partitionKey(symbol, session)
	if _, err := os.Stat(key); err != nil {
		return nil, "", alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "no bar partition "+key, err)
	}
	db, err := s.pool.Rent(ctx, key)
	return db, key, err
}

// PutBars idempotently inserts bars: a primary-key collision on
// (symbol, ts_utc) upserts the row (spec §4.3). Writes are transactional
// per session-day batch and retried with bounded exponential
// backoff on a transient "storage busy" condition (spec §5, §7).
func (s *Store) PutBars(ctx context.Context, bars []alphastore.UnderlyingBar) (int64, error) {
	byPartition := make(map[alphastore.SessionDate][]alphastore.UnderlyingBar)
	var symbol alphastore.Symbol
	for _, b := range bars {
		symbol = b.Symbol
		session := b.TsUtc.SessionDate()
		byPartition[session] = append(byPartition[session], b)
	}

	var total int64
	for session, partBars := range byPartition {
		n, err := s.putPartition(ctx, symbol, session, partBars)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *Store) putPartition(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate, bars []alphastore.UnderlyingBar) (int64, error) {
	var n int64
	err := withRetry(ctx, func() error {
		db, key, err := s.rent(ctx, symbol, session)
		if err != nil {
			return err
		}
		defer s.pool.Return(key, db)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return alphastore.WrapStoreError(alphastore.KindStorageBusy, "begin tx", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO bars (symbol, ts_utc, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (symbol, ts_utc) DO UPDATE SET
				open = excluded.open, high = excluded.high,
				low = excluded.low, close = excluded.close, volume = excluded.volume`)
		if err != nil {
			tx.Rollback()
			return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "prepare upsert", err)
		}
		defer stmt.Close()

		n = 0
		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx, string(b.Symbol), b.TsUtc.Time(),
				b.Open.Ticks(), b.High.Ticks(), b.Low.Ticks(), b.Close.Ticks(), b.Volume); err != nil {
				tx.Rollback()
				return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "upsert bar", err)
			}
			n++
		}
		if err := tx.Commit(); err != nil {
			return alphastore.WrapStoreError(alphastore.KindStorageBusy, "commit", err)
		}
		return nil
	})
	return n, err
}

// GetBars returns a lazy, finite, non-restartable sequence of bars for
// symbol in [from, to], aggregated to interval (spec §4.3). Bars are
// read month-partition by month-partition, in ascending order, so
// consuming the sequence never holds more than one partition's rows in
// memory before aggregation.
func (s *Store) GetBars(ctx context.Context, symbol alphastore.Symbol, from, to alphastore.InstantUtc, interval alphastore.Interval) iter.Seq2[alphastore.UnderlyingBar, error] {
	return func(yield func(alphastore.UnderlyingBar, error) bool) {
		if to.Before(from) {
			yield(alphastore.UnderlyingBar{}, invalidRange(from, to))
			return
		}
		sessions := monthPartitions(from, to)
		for _, session := range sessions {
			raw, err := s.queryPartition(ctx, symbol, session, from, to)
			if err != nil {
				if alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
					continue // no file for this month: nothing to emit, not an error
				}
				yield(alphastore.UnderlyingBar{}, err)
				return
			}
			for _, b := range Aggregate(raw, interval) {
				if !yield(b, nil) {
					return
				}
			}
		}
	}
}

// PrefetchPartitions concurrently opens (and immediately returns to the
// pool) the handle for every month partition spanned by [from, to], so
// the sequential walk GetBars performs never blocks mid-iteration on
// opening a cold DuckDB file. Emission order is unaffected: GetBars
// still rents and reads partitions strictly in ascending order.
func (s *Store) PrefetchPartitions(ctx context.Context, symbol alphastore.Symbol, from, to alphastore.InstantUtc) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, session := range monthPartitions(from, to) {
		session := session
		g.Go(func() error {
			db, key, err := s.rentExisting(gctx, symbol, session)
			if err != nil {
				if alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
					return nil
				}
				return err
			}
			s.pool.Return(key, db)
			return nil
		})
	}
	return g.Wait()
}

func invalidRange(from, to alphastore.InstantUtc) error {
	return alphastore.NewStoreError(alphastore.KindInvalidArgument,
		fmt.Sprintf("inverted range: from %s after to %s", from, to))
}

func (s *Store) queryPartition(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate, from, to alphastore.InstantUtc) ([]alphastore.UnderlyingBar, error) {
	db, key, err := s.rentExisting(ctx, symbol, session)
	if err != nil {
		return nil, err
	}
	defer s.pool.Return(key, db)

	rows, err := db.QueryContext(ctx, `
		SELECT ts_utc, open, high, low, close, volume FROM bars
		WHERE symbol = ? AND ts_utc >= ? AND ts_utc <= ?
		ORDER BY ts_utc ASC`, string(symbol), from.Time(), to.Time())
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "query bars", err)
	}
	defer rows.Close()

	var out []alphastore.UnderlyingBar
	for rows.Next() {
		var ts time.Time
		var open, high, low, close, volume int64
		if err := rows.Scan(&ts, &open, &high, &low, &close, &volume); err != nil {
			return nil, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "scan bar row", err)
		}
		out = append(out, alphastore.UnderlyingBar{
			Symbol: symbol,
			TsUtc:  alphastore.NewInstantUtc(ts),
			Open:   alphastore.MoneyFromTicks(open),
			High:   alphastore.MoneyFromTicks(high),
			Low:    alphastore.MoneyFromTicks(low),
			Close:  alphastore.MoneyFromTicks(close),
			Volume: volume,
		})
	}
	return out, rows.Err()
}

// GetSpot returns the Close of the latest bar with ts <= at within at's
// session, or nil if no such bar exists (spec §4.3, §4.6.1 step 1).
func (s *Store) GetSpot(ctx context.Context, symbol alphastore.Symbol, at alphastore.InstantUtc) (*alphastore.Money, error) {
	session := at.SessionDate()
	db, key, err := s.rentExisting(ctx, symbol, session)
	if err != nil {
		if alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
			return nil, nil
		}
		return nil, err
	}
	defer s.pool.Return(key, db)

	dayStart := session.Time()
	var closeTicks int64
	err = db.QueryRowContext(ctx, `
		SELECT close FROM bars WHERE symbol = ? AND ts_utc >= ? AND ts_utc <= ?
		ORDER BY ts_utc DESC LIMIT 1`, string(symbol), dayStart, at.Time()).Scan(&closeTicks)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "query spot", err)
	}
	m := alphastore.MoneyFromTicks(closeTicks)
	return &m, nil
}

// CountBars returns the number of stored minute bars for symbol within
// session, used by session integrity validation to compute the
// observed/expected bar ratio (spec §4.5).
func (s *Store) CountBars(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate) (int, error) {
	db, key, err := s.rentExisting(ctx, symbol, session)
	if err != nil {
		if alphastore.KindOf(err) == alphastore.KindStorageUnavailable {
			return 0, nil
		}
		return 0, err
	}
	defer s.pool.Return(key, db)

	dayStart := session.Time()
	dayEnd := dayStart.Add(24 * time.Hour)
	var n int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bars WHERE symbol = ? AND ts_utc >= ? AND ts_utc < ?`,
		string(symbol), dayStart, dayEnd).Scan(&n)
	if err != nil {
		return 0, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "count bars", err)
	}
	return n, nil
}

// monthPartitions returns the distinct (year, month) sessions spanned
// by [from, to], as representative SessionDates (first of month),
// ascending.
func monthPartitions(from, to alphastore.InstantUtc) []alphastore.SessionDate {
	start := from.SessionDate()
	end := to.SessionDate()
	var out []alphastore.SessionDate
	cur := alphastore.NewSessionDate(start.Year(), time.Month(start.Month()), 1)
	endMarker := alphastore.NewSessionDate(end.Year(), time.Month(end.Month()), 1)
	for !cur.After(endMarker) {
		out = append(out, cur)
		nextMonth := time.Month(cur.Month()) + 1
		year := cur.Year()
		if nextMonth > 12 {
			nextMonth = 1
			year++
		}
		cur = alphastore.NewSessionDate(year, nextMonth, 1)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// withRetry retries fn with bounded exponential backoff (spec §5, §7:
// writes may retry on transient storage-busy, up to 5 attempts; reads
// never retry — callers only use this around writes).
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := 10 * time.Millisecond
	for attempt := 0; attempt < alphastore.MaxWriteRetries; attempt++ {
		err = fn()
		if err == nil || alphastore.KindOf(err) != alphastore.KindStorageBusy {
			return err
		}
		select {
		case <-ctx.Done():
			return alphastore.WrapStoreError(alphastore.KindCancelled, "retry cancelled", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
