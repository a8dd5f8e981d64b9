// Copyright (c) 2025 Neomantra Corp
//
// Parquet schemas for the columnar chain and snapshot stores (spec
// §4.4, §6.1). Adapted directly from internal/file/parquet_writer.go's
// GroupNode builders, retargeted from DBN wire messages onto
// ContractUniverseRow and SnapshotRow.

package chainstore

import (
	"github.com/apache/arrow-go/v18/parquet"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"
)

// chainGroupNode is the schema for chain_{date}.parquet: one row per
// contract observed that session (spec §4.4).
//
//	required binary symbol (String);
//	required int32 session (days since epoch);
//	required int32 expiry (days since epoch);
//	required int64 strike (scale-4 ticks);
//	required binary right (String, 1 char);
//	required int64 first_seen (Timestamp, micros, UTC);
//	required int64 last_seen (Timestamp, micros, UTC);
func chainGroupNode() *pqschema.GroupNode {
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, pqschema.FieldList{
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("symbol", parquet.Repetitions.Required, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.NewInt32Node("session", parquet.Repetitions.Required, -1),
		pqschema.NewInt32Node("expiry", parquet.Repetitions.Required, -1),
		pqschema.NewInt64Node("strike", parquet.Repetitions.Required, -1),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("right", parquet.Repetitions.Required, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("first_seen", parquet.Repetitions.Required, pqschema.NewTimestampLogicalType(true, pqschema.TimeUnitMicros), parquet.Types.Int64, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("last_seen", parquet.Repetitions.Required, pqschema.NewTimestampLogicalType(true, pqschema.TimeUnitMicros), parquet.Types.Int64, 0, -1)),
	}, -1))
}

// snapshotGroupNode is the schema for snapshots_{date}.parquet: one row
// per (contract, minute) observed quote (spec §4.4). Greek and
// open-interest/volume columns are optional so an absent vendor field
// round-trips as a Parquet null rather than a coerced zero (spec §4.6.1
// edge cases).
func snapshotGroupNode() *pqschema.GroupNode {
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, pqschema.FieldList{
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("symbol", parquet.Repetitions.Required, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical("ts_utc", parquet.Repetitions.Required, pqschema.NewTimestampLogicalType(true, pqschema.TimeUnitMicros), parquet.Types.Int64, 0, -1)),
		pqschema.NewInt32Node("expiry", parquet.Repetitions.Required, -1),
		pqschema.NewInt64Node("strike", parquet.Repetitions.Required, -1),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("right", parquet.Repetitions.Required, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.NewInt64Node("bid", parquet.Repetitions.Required, -1),
		pqschema.NewInt64Node("ask", parquet.Repetitions.Required, -1),
		pqschema.NewInt64Node("mid", parquet.Repetitions.Optional, -1),
		pqschema.NewInt64Node("last", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("iv", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("delta", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("gamma", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("theta", parquet.Repetitions.Optional, -1),
		pqschema.NewFloat64Node("vega", parquet.Repetitions.Optional, -1),
		pqschema.NewInt64Node("open_interest", parquet.Repetitions.Optional, -1),
		pqschema.NewInt64Node("volume", parquet.Repetitions.Optional, -1),
		pqschema.NewInt32Node("dte", parquet.Repetitions.Required, -1),
		pqschema.NewFloat64Node("moneyness", parquet.Repetitions.Optional, -1),
	}, -1))
}
