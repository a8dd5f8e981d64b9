// Copyright (c) 2025 Neomantra Corp
//
// Core entities of the data model (spec §3).

package alphastore

// UnderlyingBar is a single minute-aligned OHLCV bar, keyed on
// (Symbol, InstantUtc). Appended by ingest; never mutated.
type UnderlyingBar struct {
	Symbol Symbol     `json:"symbol"`
	TsUtc  InstantUtc `json:"tsUtc"`
	Open   Money      `json:"open"`
	High   Money      `json:"high"`
	Low    Money      `json:"low"`
	Close  Money      `json:"close"`
	Volume int64      `json:"volume"`
}

// OptionContract identifies a contract's static key. It is materialised
// from observed quotes rather than stored separately in the hot path.
type OptionContract struct {
	Symbol Symbol
	Expiry SessionDate
	Strike Money
	Right  Right
}

// OptionQuote is a single snapshot row: one contract's observed market
// at one minute. Unique on (Symbol, InstantUtc, Expiry, Strike, Right).
// Greek fields are pointers so a vendor's missing Greek is preserved as
// absent, never coerced to zero (spec §4.6.1 edge cases).
type OptionQuote struct {
	Symbol InstantUtcKey
	Expiry SessionDate
	Strike Money
	Right  Right

	Bid  Money
	Ask  Money
	Mid  *Money
	Last *Money

	IV    *float64
	Delta *float64
	Gamma *float64
	Theta *float64
	Vega  *float64

	OpenInterest *int64
	Volume       *int64
}

// InstantUtcKey bundles the symbol and instant that key both bar and
// snapshot rows; kept as a tiny value type so call sites read as
// `q.Symbol.Symbol` / `q.Symbol.TsUtc` without a combinatorial struct
// explosion between bar and snapshot row types.
type InstantUtcKey struct {
	Symbol Symbol
	TsUtc  InstantUtc
}

// DTE returns the contract's days-to-expiry as of the given session.
func (q OptionQuote) DTE(session SessionDate) int {
	return DTE(q.Expiry, session)
}

// BidAskSum is used for the tie-break rule in §4.6.1.
func (q OptionQuote) BidAskSum() Money {
	return q.Bid.Add(q.Ask)
}

// ContractUniverseRow is one row of a session's daily contract universe
// (the chain_*.parquet file): the set of contracts observed that day,
// independent of any particular minute's quote.
type ContractUniverseRow struct {
	Symbol      Symbol
	Session     SessionDate
	Expiry      SessionDate
	Strike      Money
	Right       Right
	FirstSeen   InstantUtc
	LastSeen    InstantUtc
}

// SnapshotRow is one row of a session's minute-snapshot file
// (snapshots_*.parquet): an OptionQuote plus its derived DTE and
// optional moneyness columns (spec §6.3).
type SnapshotRow struct {
	Symbol    Symbol
	TsUtc     InstantUtc
	Expiry    SessionDate
	Strike    Money
	Right     Right
	Bid       Money
	Ask       Money
	Mid       *Money
	Last      *Money
	IV        *float64
	Delta     *float64
	Gamma     *float64
	Theta     *float64
	Vega      *float64
	OpenInterest *int64
	Volume    *int64
	DTE       int
	Moneyness *float64
}

// ToOptionQuote projects a SnapshotRow down to its OptionQuote view.
func (r SnapshotRow) ToOptionQuote() OptionQuote {
	return OptionQuote{
		Symbol:       InstantUtcKey{Symbol: r.Symbol, TsUtc: r.TsUtc},
		Expiry:       r.Expiry,
		Strike:       r.Strike,
		Right:        r.Right,
		Bid:          r.Bid,
		Ask:          r.Ask,
		Mid:          r.Mid,
		Last:         r.Last,
		IV:           r.IV,
		Delta:        r.Delta,
		Gamma:        r.Gamma,
		Theta:        r.Theta,
		Vega:         r.Vega,
		OpenInterest: r.OpenInterest,
		Volume:       r.Volume,
	}
}

// ManifestEntry describes one file tracked by a partition's manifest
// (spec §4.5, §6.1).
type ManifestEntry struct {
	FileName     string      `json:"fileName"`
	RecordCount  int64       `json:"recordCount"`
	Sha256       string      `json:"sha256"`
	Symbol       Symbol      `json:"symbol"`
	SessionDate  SessionDate `json:"sessionDate"`
	CreatedUtc   InstantUtc  `json:"createdUtc"`
	BuildVersion string      `json:"buildVersion"`
}

// PartitionManifest is the per-partition descriptor: filename -> entry,
// rewritten atomically on each write of its partition.
type PartitionManifest struct {
	Symbol  Symbol                   `json:"-"`
	Session SessionDate              `json:"-"`
	Files   map[string]ManifestEntry `json:"-"`

	// HistoryEntryID is set only on manifests decoded from the history
	// log (chainstore.ReadHistory); it is empty on the live manifest.
	HistoryEntryID string `json:"-"`
}

// WriteResult is returned by write_chain / write_snapshots (spec §4.4).
type WriteResult struct {
	Path string
	Rows int64
	Hash string
}

// ChainQuery is the input to chain snapshot reconstruction (spec
// §4.6.1). Zero-value DTEMax/MoneynessHalf are not valid; callers
// should start from DefaultChainQuery and override fields.
type ChainQuery struct {
	Symbol         Symbol
	At             InstantUtc
	DTEMin         int
	DTEMax         int
	MoneynessHalf  float64
	Right          *Right // nil means both
}

// DefaultChainQuery returns a ChainQuery with spec §4.6.1's defaults
// (dte_min=0, dte_max=45, moneyness=0.15) for the given symbol/instant.
func DefaultChainQuery(symbol Symbol, at InstantUtc) ChainQuery {
	return ChainQuery{
		Symbol:        symbol,
		At:            at,
		DTEMin:        DefaultDTEMin,
		DTEMax:        DefaultDTEMax,
		MoneynessHalf: DefaultMoneynessHalf,
	}
}

// SnapshotFilter narrows a read_snapshots call to a single minute
// and/or a DTE/right range, pushed down to the storage layer rather
// than filtered after a full scan.
type SnapshotFilter struct {
	At     *InstantUtc
	DTEMin *int
	DTEMax *int
	Right  *Right
}

// ChainQueryHint is an actionable annotation on an otherwise-empty or
// partial ChainView (spec §4.6.1 edge cases, §4.7 hint emission).
type ChainQueryHint string

const (
	HintNoUnderlying    ChainQueryHint = "no underlying price at T"
	HintBeforeSession   ChainQueryHint = "instant precedes session open"
	HintExpandDTERange  ChainQueryHint = "expand DTE range"
)

// ChainView is the result of a chain snapshot reconstruction query: the
// retained rows plus the resolved spot and any hints.
type ChainView struct {
	Query Query
	Spot  *Money
	Rows  []SnapshotRow
	Hints []ChainQueryHint
}

// Query is an alias of ChainQuery (the same type under a second name),
// for code that shares the cache fingerprint machinery.
type Query = ChainQuery

// BarQuery is the input to interval-aggregated bar retrieval (spec §4.3, §6.4).
type BarQuery struct {
	Symbol   Symbol
	From     InstantUtc
	To       InstantUtc
	Interval Interval
}

// CompletenessReport is the deterministic scalar-plus-hints output of
// the v2 scorer (spec §4.7). Derived; never persisted on the read path.
type CompletenessReport struct {
	Symbol       Symbol
	At           InstantUtc
	OverallScore float64
	BucketScores map[int]float64
	Hints        []string
}

// SessionIntegrityReport is the output of validate_session (spec §4.5).
type SessionIntegrityReport struct {
	Symbol            Symbol
	Session           SessionDate
	Status            SessionStatus
	ExpectedBars      int
	ActualBars        int
	BarRatio          float64
	MissingFiles      []string
	CorruptedFiles    []string
	MetadataMissing   bool
}

// VerifyReport is the output of verify_partition (spec §4.5).
type VerifyReport struct {
	Symbol         Symbol
	Session        SessionDate
	Status         VerifyStatus
	TotalFiles     int
	VerifiedFiles  int
	MissingFiles   []string
	CorruptedFiles []string
}
