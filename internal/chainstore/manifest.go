// Copyright (c) 2025 Neomantra Corp
//
// Partition manifests (spec §4.5, §6.1): a meta.json sidecar tracking
// each partition file's row count, hash, and build version. Manifest
// updates are atomic (temp-then-rename, same as the data files) so a
// reader never observes a manifest referencing a file mid-write.
//
// Manifest history is a supplemented feature: every update appends the
// prior manifest to a zstd-compressed audit log, adapted from
// compressed_io.go's stdout/stdin codec helpers but narrowed to a
// single file-to-file append use. Each appended record is tagged with
// its own UUID so audit tooling can reference a specific history
// entry independent of its position in the log.

package chainstore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/quantlayer/alphastore"
)

const historyFileName = "meta_history.jsonl.zst"

// manifestFile is the on-disk JSON shape of a PartitionManifest: an
// object with "symbol", "sessionDate" and a "files" map of filename to
// entry. The top level of meta.json is not itself keyed by filename;
// PartitionManifest's own fields are all tagged json:"-".
type manifestFile struct {
	Symbol  alphastore.Symbol                   `json:"symbol"`
	Session alphastore.SessionDate               `json:"sessionDate"`
	Files   map[string]alphastore.ManifestEntry `json:"files"`
}

// historyEnvelope wraps one appended history record with a unique ID,
// independent of the manifest's own content, so a record can be cited
// by audit tooling even across manifests with identical file hashes.
type historyEnvelope struct {
	ID       string       `json:"id"`
	Manifest manifestFile `json:"manifest"`
}

// LoadManifest reads the manifest at path. A missing file is not an
// error: it returns an empty manifest, since a partition with no
// manifest yet is a valid pre-write state.
func LoadManifest(path string, symbol alphastore.Symbol, session alphastore.SessionDate) (alphastore.PartitionManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return alphastore.PartitionManifest{Symbol: symbol, Session: session, Files: map[string]alphastore.ManifestEntry{}}, nil
	}
	if err != nil {
		return alphastore.PartitionManifest{}, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "read manifest", err)
	}
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return alphastore.PartitionManifest{}, alphastore.WrapStoreError(alphastore.KindManifestCorrupt, "parse manifest "+path, err)
	}
	if mf.Files == nil {
		mf.Files = map[string]alphastore.ManifestEntry{}
	}
	return alphastore.PartitionManifest{Symbol: symbol, Session: session, Files: mf.Files}, nil
}

// SaveManifest atomically rewrites the manifest at path, appending the
// previous version (if any) to the partition's compressed history log.
func SaveManifest(path string, m alphastore.PartitionManifest) error {
	if prev, err := os.ReadFile(path); err == nil {
		var prevMF manifestFile
		if err := json.Unmarshal(prev, &prevMF); err != nil {
			return alphastore.WrapStoreError(alphastore.KindManifestCorrupt, "parse previous manifest", err)
		}
		if err := appendHistory(filepath.Join(filepath.Dir(path), historyFileName), prevMF); err != nil {
			return err
		}
	}

	mf := manifestFile{Symbol: m.Symbol, Session: m.Session, Files: m.Files}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "marshal manifest", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "create partition dir", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-meta-*.json")
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "create temp manifest", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "write temp manifest", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "close temp manifest", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "rename manifest into place", err)
	}
	return nil
}

// PutEntry records fileName's entry in m, stamping CreatedUtc with now.
func PutEntry(m *alphastore.PartitionManifest, fileName string, entry alphastore.ManifestEntry, now time.Time) {
	entry.CreatedUtc = alphastore.NewInstantUtc(now)
	if m.Files == nil {
		m.Files = map[string]alphastore.ManifestEntry{}
	}
	m.Files[fileName] = entry
}

// appendHistory appends prevMF, tagged with a fresh history entry ID,
// as one zstd-compressed JSONL record to the history log at path,
// creating it if absent.
func appendHistory(path string, prevMF manifestFile) error {
	recordJSON, err := json.Marshal(historyEnvelope{ID: uuid.NewString(), Manifest: prevMF})
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindSchemaMismatch, "marshal history record", err)
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open history encoder", err)
	}
	record := append(recordJSON, '\n')
	if _, err := enc.Write(record); err != nil {
		enc.Close()
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "write history record", err)
	}
	if err := enc.Close(); err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "close history encoder", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open history log", err)
	}
	defer f.Close()
	_, err = f.Write(buf.Bytes())
	if err != nil {
		return alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "append history log", err)
	}
	return nil
}

// ReadHistory decodes every zstd frame appended to a partition's
// history log, in append order. Used by audit tooling, not the hot
// query path.
func ReadHistory(path string) ([]alphastore.PartitionManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "read history log", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open history decoder", err)
	}
	defer dec.Close()

	// zstd frames concatenate: the decoder reads consecutive frames
	// written by separate appendHistory calls as one continuous stream.
	decoded, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, alphastore.WrapStoreError(alphastore.KindManifestCorrupt, "decode history log", err)
	}

	var out []alphastore.PartitionManifest
	for _, line := range bytes.Split(bytes.TrimSpace(decoded), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var env historyEnvelope
		if err := json.Unmarshal(line, &env); err == nil {
			out = append(out, alphastore.PartitionManifest{
				Symbol: env.Manifest.Symbol, Session: env.Manifest.Session, Files: env.Manifest.Files,
				HistoryEntryID: env.ID,
			})
		}
	}
	return out, nil
}
