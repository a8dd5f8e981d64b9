// Copyright (c) 2025 Neomantra Corp

package scorer_test

import (
	"testing"
	"time"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/internal/scorer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestScorer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "completeness scorer suite")
}

var _ = Describe("Completeness Scorer", func() {
	var (
		symbol  alphastore.Symbol
		expiry  alphastore.SessionDate
		at      alphastore.InstantUtc
		spot    alphastore.Money
		session alphastore.SessionDate
	)

	BeforeEach(func() {
		symbol = "SPX"
		session = alphastore.NewSessionDate(2024, time.January, 15)
		expiry = session.AddDays(1)
		at = alphastore.NewInstantUtc(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC))
		spot = alphastore.MoneyFromFloat(4755.00)
	})

	row := func(strike float64, right alphastore.Right, bid, ask float64, oi, vol int64) alphastore.SnapshotRow {
		strikeM := alphastore.MoneyFromFloat(strike)
		m := alphastore.Moneyness(strikeM, spot)
		return alphastore.SnapshotRow{
			Symbol: symbol, TsUtc: at, Expiry: expiry, Strike: strikeM, Right: right,
			Bid: alphastore.MoneyFromFloat(bid), Ask: alphastore.MoneyFromFloat(ask),
			OpenInterest: &oi, Volume: &vol,
			DTE:       alphastore.DTE(expiry, session),
			Moneyness: &m,
		}
	}

	denseGoodBucket := func() []alphastore.SnapshotRow {
		var rows []alphastore.SnapshotRow
		for _, strike := range []float64{4700, 4725, 4750, 4760, 4775, 4800} {
			for _, right := range []alphastore.Right{alphastore.RightCall, alphastore.RightPut} {
				rows = append(rows, row(strike, right, 10, 10.05, 100, 50))
			}
		}
		return rows
	}

	It("scores an empty view as zero with no hints", func() {
		report := scorer.Score(alphastore.ChainView{Query: alphastore.DefaultChainQuery(symbol, at), Spot: &spot})
		Expect(report.OverallScore).To(Equal(0.0))
		Expect(report.Hints).To(BeEmpty())
	})

	It("emits a NoUnderlying hint and zero score when spot is absent", func() {
		view := alphastore.ChainView{
			Query: alphastore.DefaultChainQuery(symbol, at),
			Rows:  denseGoodBucket(),
		}
		report := scorer.Score(view)
		Expect(report.OverallScore).To(Equal(0.0))
		Expect(report.Hints).To(ConsistOf(string(alphastore.HintNoUnderlying)))
	})

	It("scores a dense, well-quoted, liquid bucket near 1.0", func() {
		view := alphastore.ChainView{
			Query: alphastore.DefaultChainQuery(symbol, at),
			Spot:  &spot,
			Rows:  denseGoodBucket(),
		}
		report := scorer.Score(view)
		dte := alphastore.DTE(expiry, session)
		Expect(report.BucketScores[dte]).To(BeNumerically("~", 1.0, 0.001))
		Expect(report.OverallScore).To(BeNumerically("~", 1.0, 0.001))
		Expect(report.Hints).To(BeEmpty())
	})

	It("penalizes a bucket with too few strikes near the money", func() {
		rows := []alphastore.SnapshotRow{
			row(4750, alphastore.RightCall, 10, 10.05, 100, 50),
			row(4750, alphastore.RightPut, 10, 10.05, 100, 50),
		}
		view := alphastore.ChainView{
			Query: alphastore.DefaultChainQuery(symbol, at),
			Spot:  &spot,
			Rows:  rows,
		}
		report := scorer.Score(view)
		Expect(report.OverallScore).To(BeNumerically("<", 1.0))
		Expect(report.Hints).To(ContainElement(ContainSubstring("strike density")))
	})

	It("penalizes a bucket with a wide ATM spread", func() {
		rows := denseGoodBucket()
		for i := range rows {
			if rows[i].Strike.Equal(alphastore.MoneyFromFloat(4750)) || rows[i].Strike.Equal(alphastore.MoneyFromFloat(4760)) {
				rows[i].Ask = alphastore.MoneyFromFloat(rows[i].Bid.Float64() * 1.5)
			}
		}
		view := alphastore.ChainView{Query: alphastore.DefaultChainQuery(symbol, at), Spot: &spot, Rows: rows}
		report := scorer.Score(view)
		Expect(report.Hints).To(ContainElement(ContainSubstring("ATM spread")))
	})

	It("penalizes a bucket with little open interest or volume", func() {
		rows := denseGoodBucket()
		for i := range rows {
			var zero int64
			rows[i].OpenInterest = &zero
			rows[i].Volume = &zero
		}
		view := alphastore.ChainView{Query: alphastore.DefaultChainQuery(symbol, at), Spot: &spot, Rows: rows}
		report := scorer.Score(view)
		Expect(report.Hints).To(ContainElement(ContainSubstring("open interest or volume")))
	})

	It("suggests expanding the DTE range when fewer than 3 buckets are active", func() {
		rows := []alphastore.SnapshotRow{
			row(4750, alphastore.RightCall, 10, 10.05, 100, 50),
			row(4750, alphastore.RightPut, 10, 10.05, 100, 50),
		}
		view := alphastore.ChainView{Query: alphastore.DefaultChainQuery(symbol, at), Spot: &spot, Rows: rows}
		report := scorer.Score(view)
		Expect(report.Hints).To(ContainElement(string(alphastore.HintExpandDTERange)))
	})
})
