// Copyright (c) 2025 Neomantra Corp
//
// Columnar writers for the chain and snapshot stores (spec §4.4). The
// buffered-row-group write loop is adapted from
// internal/file/parquet_writer.go's ParquetWriter / BufferedRowGroupWriter
// / FlushWithFooter. Writes land in a temp file, are hashed, then
// renamed into place so a reader never observes a partially written
// partition (spec §3 invariant 6, §6.1).

package chainstore

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/quantlayer/alphastore"
)

var writerProps = parquet.NewWriterProperties(
	parquet.WithVersion(parquet.V2_LATEST),
	parquet.WithCompression(compress.Codecs.Snappy))

// WriteChain writes rows to path's contract universe parquet file and
// returns the file's row count and content hash (spec §4.4).
func WriteChain(path string, rows []alphastore.ContractUniverseRow) (alphastore.WriteResult, error) {
	return writeAtomic(path, chainGroupNode(), int64(len(rows)), func(rgw pqfile.BufferedRowGroupWriter) error {
		for _, r := range rows {
			if err := writeChainRow(rgw, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSnapshots writes rows to path's minute-snapshot parquet file and
// returns the file's row count and content hash (spec §4.4).
func WriteSnapshots(path string, rows []alphastore.SnapshotRow) (alphastore.WriteResult, error) {
	return writeAtomic(path, snapshotGroupNode(), int64(len(rows)), func(rgw pqfile.BufferedRowGroupWriter) error {
		for _, r := range rows {
			if err := writeSnapshotRow(rgw, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeAtomic writes the buffered row group produced by fill into a
// temp file beside path, hashes it, then renames it into place.
func writeAtomic(path string, node *pqschema.GroupNode, rowCount int64, fill func(pqfile.BufferedRowGroupWriter) error) (alphastore.WriteResult, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "create partition dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(path))
	if err != nil {
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	pw := pqfile.NewParquetWriter(tmp, node, pqfile.WithWriterProps(writerProps))
	rgw := pw.AppendBufferedRowGroup()

	if err := fill(rgw); err != nil {
		rgw.Close()
		pw.Close()
		tmp.Close()
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "write rows", err)
	}
	rgw.Close()
	if err := pw.FlushWithFooter(); err != nil {
		pw.Close()
		tmp.Close()
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "flush parquet footer", err)
	}
	pw.Close()

	hash, err := hashFile(tmp)
	tmp.Close()
	if err != nil {
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "hash written file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return alphastore.WriteResult{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "rename into place", err)
	}

	return alphastore.WriteResult{Path: path, Rows: rowCount, Hash: hash}, nil
}

func hashFile(f *os.File) (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeChainRow(rgw pqfile.BufferedRowGroupWriter, r alphastore.ContractUniverseRow) error {
	cw, _ := rgw.Column(0)
	cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{[]byte(r.Symbol)}, nil, nil)
	cw, _ = rgw.Column(1)
	cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch([]int32{r.Session.DaysSinceEpoch()}, nil, nil)
	cw, _ = rgw.Column(2)
	cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch([]int32{r.Expiry.DaysSinceEpoch()}, nil, nil)
	cw, _ = rgw.Column(3)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.Strike.Ticks()}, nil, nil)
	cw, _ = rgw.Column(4)
	cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{[]byte(r.Right.String())}, nil, nil)
	cw, _ = rgw.Column(5)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.FirstSeen.Time().UnixMicro()}, nil, nil)
	cw, _ = rgw.Column(6)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.LastSeen.Time().UnixMicro()}, nil, nil)
	return nil
}

func writeSnapshotRow(rgw pqfile.BufferedRowGroupWriter, r alphastore.SnapshotRow) error {
	cw, _ := rgw.Column(0)
	cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{[]byte(r.Symbol)}, nil, nil)
	cw, _ = rgw.Column(1)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.TsUtc.Time().UnixMicro()}, nil, nil)
	cw, _ = rgw.Column(2)
	cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch([]int32{r.Expiry.DaysSinceEpoch()}, nil, nil)
	cw, _ = rgw.Column(3)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.Strike.Ticks()}, nil, nil)
	cw, _ = rgw.Column(4)
	cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{[]byte(r.Right.String())}, nil, nil)
	cw, _ = rgw.Column(5)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.Bid.Ticks()}, nil, nil)
	cw, _ = rgw.Column(6)
	cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{r.Ask.Ticks()}, nil, nil)
	writeOptionalInt64(rgw, 7, moneyPtrTicks(r.Mid))
	writeOptionalInt64(rgw, 8, moneyPtrTicks(r.Last))
	writeOptionalFloat64(rgw, 9, r.IV)
	writeOptionalFloat64(rgw, 10, r.Delta)
	writeOptionalFloat64(rgw, 11, r.Gamma)
	writeOptionalFloat64(rgw, 12, r.Theta)
	writeOptionalFloat64(rgw, 13, r.Vega)
	writeOptionalInt64(rgw, 14, r.OpenInterest)
	writeOptionalInt64(rgw, 15, r.Volume)
	cw, _ = rgw.Column(16)
	cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch([]int32{int32(r.DTE)}, nil, nil)
	writeOptionalFloat64(rgw, 17, r.Moneyness)
	return nil
}

func moneyPtrTicks(m *alphastore.Money) *int64 {
	if m == nil {
		return nil
	}
	v := m.Ticks()
	return &v
}

func writeOptionalInt64(rgw pqfile.BufferedRowGroupWriter, col int, v *int64) {
	cw, _ := rgw.Column(col)
	typed := cw.(*pqfile.Int64ColumnChunkWriter)
	if v == nil {
		typed.WriteBatch(nil, []int16{0}, nil)
		return
	}
	typed.WriteBatch([]int64{*v}, []int16{1}, nil)
}

func writeOptionalFloat64(rgw pqfile.BufferedRowGroupWriter, col int, v *float64) {
	cw, _ := rgw.Column(col)
	typed := cw.(*pqfile.Float64ColumnChunkWriter)
	if v == nil {
		typed.WriteBatch(nil, []int16{0}, nil)
		return
	}
	typed.WriteBatch([]float64{*v}, []int16{1}, nil)
}
