// Copyright (c) 2025 Neomantra Corp
//
// Completeness Scorer v2 (spec §4.7): a deterministic, purely-derived
// quality score over a chain view. Never persisted — recomputed fresh
// from whatever ChainView the query engine just produced.

package scorer

import (
	"fmt"
	"sort"

	"github.com/quantlayer/alphastore"
)

const (
	weightStrikeDensity = 0.4
	weightQuoteCoverage = 0.2
	weightAtmSpread     = 0.2
	weightLiquidity     = 0.2

	atmMoneynessBound  = 0.05
	atmSpreadBoundBps  = 0.01 // 100 bps
	quoteCoverageMin   = 0.80
	liquidityMin       = 0.70
	minActiveBuckets   = 3
	overallHintTrigger = 0.9
)

// Score computes a CompletenessReport for view (spec §4.7).
func Score(view alphastore.ChainView) alphastore.CompletenessReport {
	report := alphastore.CompletenessReport{
		Symbol:       view.Query.Symbol,
		At:           view.Query.At,
		BucketScores: map[int]float64{},
	}

	if view.Spot == nil {
		report.Hints = append(report.Hints, string(alphastore.HintNoUnderlying))
		return report
	}
	if len(view.Rows) == 0 {
		return report
	}

	buckets := map[int][]alphastore.SnapshotRow{}
	for _, r := range view.Rows {
		buckets[r.DTE] = append(buckets[r.DTE], r)
	}

	var dtes []int
	for dte := range buckets {
		dtes = append(dtes, dte)
	}
	sort.Ints(dtes)

	var failedByBucket = map[int][]string{}
	var sum float64
	for _, dte := range dtes {
		rows := buckets[dte]
		score, failed := scoreBucket(rows, *view.Spot)
		report.BucketScores[dte] = score
		sum += score
		if len(failed) > 0 {
			failedByBucket[dte] = failed
		}
	}
	report.OverallScore = sum / float64(len(dtes))

	if report.OverallScore < overallHintTrigger {
		for _, dte := range dtes {
			for _, component := range failedByBucket[dte] {
				report.Hints = append(report.Hints, fmt.Sprintf("DTE %d: %s", dte, component))
			}
		}
		if len(dtes) < minActiveBuckets {
			report.Hints = append(report.Hints, string(alphastore.HintExpandDTERange))
		}
	}
	return report
}

// scoreBucket computes one DTE bucket's score as the sum of its four
// independent components, and the names of the components that failed.
func scoreBucket(rows []alphastore.SnapshotRow, spot alphastore.Money) (float64, []string) {
	var score float64
	var failed []string

	if strikeDensityOK(rows, spot) {
		score += weightStrikeDensity
	} else {
		failed = append(failed, "insufficient strike density near the money")
	}

	if quoteCoverageOK(rows) {
		score += weightQuoteCoverage
	} else {
		failed = append(failed, "insufficient quote coverage")
	}

	if atmSpreadOK(rows, spot) {
		score += weightAtmSpread
	} else {
		failed = append(failed, "ATM spread too wide")
	}

	if liquidityOK(rows) {
		score += weightLiquidity
	} else {
		failed = append(failed, "insufficient open interest or volume")
	}

	return score, failed
}

// strikeDensityOK reports whether the bucket has at least 3 distinct
// Put strikes and 3 distinct Call strikes within 5% of spot.
func strikeDensityOK(rows []alphastore.SnapshotRow, spot alphastore.Money) bool {
	puts := map[alphastore.Money]bool{}
	calls := map[alphastore.Money]bool{}
	for _, r := range rows {
		m := alphastore.Moneyness(r.Strike, spot)
		if m < -atmMoneynessBound || m > atmMoneynessBound {
			continue
		}
		if r.Right == alphastore.RightPut {
			puts[r.Strike] = true
		} else {
			calls[r.Strike] = true
		}
	}
	return len(puts) >= 3 && len(calls) >= 3
}

// quoteCoverageOK reports whether at least 80% of rows carry a
// non-zero Bid and Ask (spec §4.7; Bid/Ask are required columns, so
// "present" here means a real two-sided market rather than a 0/0
// placeholder quote).
func quoteCoverageOK(rows []alphastore.SnapshotRow) bool {
	var quoted int
	for _, r := range rows {
		if !r.Bid.IsZero() && !r.Ask.IsZero() {
			quoted++
		}
	}
	return float64(quoted)/float64(len(rows)) >= quoteCoverageMin
}

// atmSpreadOK reports whether the mean relative bid/ask spread of
// at-the-money rows is under 100bps. A bucket with no ATM rows fails
// this component outright: there is nothing to assess spread quality
// on.
func atmSpreadOK(rows []alphastore.SnapshotRow, spot alphastore.Money) bool {
	var sum float64
	var n int
	for _, r := range rows {
		m := alphastore.Moneyness(r.Strike, spot)
		if m < -atmMoneynessBound || m > atmMoneynessBound {
			continue
		}
		mid := alphastore.Mid(r.Bid, r.Ask)
		if mid.IsZero() {
			continue
		}
		spread := r.Ask.Sub(r.Bid).Float64() / mid.Float64()
		sum += spread
		n++
	}
	if n == 0 {
		return false
	}
	return sum/float64(n) < atmSpreadBoundBps
}

// liquidityOK reports whether at least 70% of rows have a positive
// open interest or volume.
func liquidityOK(rows []alphastore.SnapshotRow) bool {
	var liquid int
	for _, r := range rows {
		if (r.OpenInterest != nil && *r.OpenInterest > 0) || (r.Volume != nil && *r.Volume > 0) {
			liquid++
		}
	}
	return float64(liquid)/float64(len(rows)) >= liquidityMin
}
