// Copyright (c) 2025 Neomantra Corp
//
// Chain and snapshot readers, backed by DuckDB's read_parquet() table
// function rather than a hand-rolled Arrow reader — the same idiom the
// teacher's internal/mcp_data/cache.go uses to expose cached parquet
// files as SQL views. Here it is the read path for chainstore itself,
// not just an MCP-facing cache.

package chainstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/quantlayer/alphastore"
)

// sqlLiteral escapes a string for embedding as a SQL string literal.
// Paths come from layout.Layout (derived from a validated Symbol and a
// parsed SessionDate), never from unsanitized user input.
func sqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func openView(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open duckdb", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIEW rows AS SELECT * FROM read_parquet(%s)`, sqlLiteral(path))); err != nil {
		db.Close()
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open parquet view "+path, err)
	}
	return db, nil
}

// ReadChain reads every row of a chain_{date}.parquet file.
func ReadChain(ctx context.Context, path string, symbol alphastore.Symbol) ([]alphastore.ContractUniverseRow, error) {
	db, err := openView(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT session, expiry, strike, "right", first_seen, last_seen FROM rows ORDER BY expiry, strike, "right"`)
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "query chain", err)
	}
	defer rows.Close()

	var out []alphastore.ContractUniverseRow
	for rows.Next() {
		var session, expiry int32
		var strike int64
		var right string
		var firstSeen, lastSeen time.Time
		if err := rows.Scan(&session, &expiry, &strike, &right, &firstSeen, &lastSeen); err != nil {
			return nil, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "scan chain row", err)
		}
		r, err := alphastore.RightFromString(right)
		if err != nil {
			return nil, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "chain row right", err)
		}
		out = append(out, alphastore.ContractUniverseRow{
			Symbol:    symbol,
			Session:   alphastore.SessionDateFromDaysSinceEpoch(session),
			Expiry:    alphastore.SessionDateFromDaysSinceEpoch(expiry),
			Strike:    alphastore.MoneyFromTicks(strike),
			Right:     r,
			FirstSeen: alphastore.NewInstantUtc(firstSeen),
			LastSeen:  alphastore.NewInstantUtc(lastSeen),
		})
	}
	return out, rows.Err()
}

// SnapshotFilter narrows ReadSnapshots to a single minute and/or a
// DTE/right range, pushed down into DuckDB instead of filtered in Go
// after a full scan. The query engine's chain reconstruction passes an
// empty filter and applies its DTE/right/moneyness filter in Go.
type SnapshotFilter struct {
	At     *alphastore.InstantUtc
	DTEMin *int
	DTEMax *int
	Right  *alphastore.Right
}

// ReadSnapshots reads rows of a snapshots_{date}.parquet file matching filter.
func ReadSnapshots(ctx context.Context, path string, symbol alphastore.Symbol, filter SnapshotFilter) ([]alphastore.SnapshotRow, error) {
	db, err := openView(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	where := []string{"1=1"}
	var args []any
	if filter.At != nil {
		where = append(where, "ts_utc = ?")
		args = append(args, filter.At.Time())
	}
	if filter.DTEMin != nil {
		where = append(where, "dte >= ?")
		args = append(args, *filter.DTEMin)
	}
	if filter.DTEMax != nil {
		where = append(where, "dte <= ?")
		args = append(args, *filter.DTEMax)
	}
	if filter.Right != nil {
		where = append(where, `"right" = ?`)
		args = append(args, filter.Right.String())
	}

	query := fmt.Sprintf(`
		SELECT ts_utc, expiry, strike, "right", bid, ask, mid, "last", iv, delta, gamma, theta, vega,
		       open_interest, volume, dte, moneyness
		FROM rows WHERE %s ORDER BY expiry, strike, "right", ts_utc`, strings.Join(where, " AND "))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "query snapshots", err)
	}
	defer rows.Close()

	var out []alphastore.SnapshotRow
	for rows.Next() {
		var ts time.Time
		var expiry int32
		var strike int64
		var right string
		var bid, ask int64
		var mid, last, openInterest, volume sql.NullInt64
		var iv, delta, gamma, theta, vega, moneyness sql.NullFloat64
		var dte int32
		if err := rows.Scan(&ts, &expiry, &strike, &right, &bid, &ask, &mid, &last,
			&iv, &delta, &gamma, &theta, &vega, &openInterest, &volume, &dte, &moneyness); err != nil {
			return nil, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "scan snapshot row", err)
		}
		r, err := alphastore.RightFromString(right)
		if err != nil {
			return nil, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "snapshot row right", err)
		}
		out = append(out, alphastore.SnapshotRow{
			Symbol:       symbol,
			TsUtc:        alphastore.NewInstantUtc(ts),
			Expiry:       alphastore.SessionDateFromDaysSinceEpoch(expiry),
			Strike:       alphastore.MoneyFromTicks(strike),
			Right:        r,
			Bid:          alphastore.MoneyFromTicks(bid),
			Ask:          alphastore.MoneyFromTicks(ask),
			Mid:          nullInt64ToMoney(mid),
			Last:         nullInt64ToMoney(last),
			IV:           nullFloat64Ptr(iv),
			Delta:        nullFloat64Ptr(delta),
			Gamma:        nullFloat64Ptr(gamma),
			Theta:        nullFloat64Ptr(theta),
			Vega:         nullFloat64Ptr(vega),
			OpenInterest: nullInt64Ptr(openInterest),
			Volume:       nullInt64Ptr(volume),
			DTE:          int(dte),
			Moneyness:    nullFloat64Ptr(moneyness),
		})
	}
	return out, rows.Err()
}

func nullInt64ToMoney(n sql.NullInt64) *alphastore.Money {
	if !n.Valid {
		return nil
	}
	m := alphastore.MoneyFromTicks(n.Int64)
	return &m
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullFloat64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
