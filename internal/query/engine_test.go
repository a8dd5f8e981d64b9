// Copyright (c) 2025 Neomantra Corp

package query_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/internal/chainstore"
	"github.com/quantlayer/alphastore/internal/query"
	"github.com/quantlayer/alphastore/layout"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestQueryEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "query engine suite")
}

type fakeBars struct {
	spot *alphastore.Money
}

func (f fakeBars) GetSpot(ctx context.Context, symbol alphastore.Symbol, at alphastore.InstantUtc) (*alphastore.Money, error) {
	return f.spot, nil
}

func (f fakeBars) GetBars(ctx context.Context, symbol alphastore.Symbol, from, to alphastore.InstantUtc, interval alphastore.Interval) iter.Seq2[alphastore.UnderlyingBar, error] {
	return func(yield func(alphastore.UnderlyingBar, error) bool) {}
}

var _ = Describe("Chain Snapshot Reconstruction", func() {
	var (
		lay     *layout.Layout
		symbol  alphastore.Symbol
		session alphastore.SessionDate
		at      alphastore.InstantUtc
		spot    alphastore.Money
	)

	BeforeEach(func() {
		var err error
		lay, err = layout.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		symbol = "SPX"
		session = alphastore.NewSessionDate(2024, time.January, 15)
		at = alphastore.NewInstantUtc(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC))
		spot = alphastore.MoneyFromFloat(4755.00)
	})

	writeRow := func(expiry alphastore.SessionDate, strike float64, right alphastore.Right, ts time.Time, bid, ask float64) alphastore.SnapshotRow {
		e := alphastore.NewInstantUtc(ts)
		return alphastore.SnapshotRow{
			Symbol: symbol, TsUtc: e, Expiry: expiry, Strike: alphastore.MoneyFromFloat(strike), Right: right,
			Bid: alphastore.MoneyFromFloat(bid), Ask: alphastore.MoneyFromFloat(ask),
			DTE: alphastore.DTE(expiry, e.SessionDate()),
		}
	}

	It("returns the happy-path chain ordered by (expiry, strike, C before P)", func() {
		expiry1 := session.AddDays(1)
		expiry2 := session.AddDays(7)
		ts := time.Date(2024, 1, 15, 14, 45, 0, 0, time.UTC)
		rows := []alphastore.SnapshotRow{
			writeRow(expiry1, 4750, alphastore.RightPut, ts, 10, 11),
			writeRow(expiry1, 4775, alphastore.RightCall, ts, 9, 10),
			writeRow(expiry2, 4725, alphastore.RightPut, ts, 5, 6),
			writeRow(expiry2, 4725, alphastore.RightCall, ts, 40, 41),
		}
		_, err := chainstore.WriteSnapshots(lay.SnapshotFilePath(symbol, session), rows)
		Expect(err).NotTo(HaveOccurred())

		eng := query.NewEngine(lay, fakeBars{spot: &spot}, query.NewCache(query.DefaultCacheConfig(), nil))
		view, err := eng.ChainSnapshot(context.Background(), alphastore.DefaultChainQuery(symbol, at))
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Hints).To(BeEmpty())
		Expect(view.Rows).To(HaveLen(4))
		Expect(view.Rows[0].Expiry).To(Equal(expiry1))
		Expect(view.Rows[0].Right).To(Equal(alphastore.RightPut))
		Expect(view.Rows[1].Right).To(Equal(alphastore.RightCall))
		Expect(view.Rows[2].Expiry).To(Equal(expiry2))
	})

	It("excludes rows outside the moneyness band", func() {
		ts := time.Date(2024, 1, 15, 14, 45, 0, 0, time.UTC)
		rows := []alphastore.SnapshotRow{
			writeRow(session.AddDays(1), 4750, alphastore.RightPut, ts, 10, 11),  // within 0.15
			writeRow(session.AddDays(1), 3000, alphastore.RightPut, ts, 1, 2),    // far OTM, excluded
		}
		_, err := chainstore.WriteSnapshots(lay.SnapshotFilePath(symbol, session), rows)
		Expect(err).NotTo(HaveOccurred())

		eng := query.NewEngine(lay, fakeBars{spot: &spot}, nil)
		view, err := eng.ChainSnapshot(context.Background(), alphastore.DefaultChainQuery(symbol, at))
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Rows).To(HaveLen(1))
		Expect(view.Rows[0].Strike).To(Equal(alphastore.MoneyFromFloat(4750)))
	})

	It("emits a NoUnderlying hint when spot cannot be resolved", func() {
		eng := query.NewEngine(lay, fakeBars{spot: nil}, nil)
		view, err := eng.ChainSnapshot(context.Background(), alphastore.DefaultChainQuery(symbol, at))
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Hints).To(ConsistOf(alphastore.HintNoUnderlying))
		Expect(view.Rows).To(BeEmpty())
	})

	It("emits a BeforeSession hint when at precedes every observed snapshot", func() {
		later := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
		rows := []alphastore.SnapshotRow{
			writeRow(session.AddDays(1), 4750, alphastore.RightPut, later, 10, 11),
		}
		_, err := chainstore.WriteSnapshots(lay.SnapshotFilePath(symbol, session), rows)
		Expect(err).NotTo(HaveOccurred())

		early := alphastore.NewInstantUtc(time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC))
		eng := query.NewEngine(lay, fakeBars{spot: &spot}, nil)
		view, err := eng.ChainSnapshot(context.Background(), alphastore.DefaultChainQuery(symbol, early))
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Hints).To(ConsistOf(alphastore.HintBeforeSession))
	})

	It("enumerates expiries within the DTE range", func() {
		ts := time.Date(2024, 1, 15, 14, 45, 0, 0, time.UTC)
		rows := []alphastore.SnapshotRow{
			writeRow(session.AddDays(1), 4750, alphastore.RightPut, ts, 10, 11),
			writeRow(session.AddDays(90), 4750, alphastore.RightPut, ts, 10, 11),
		}
		_, err := chainstore.WriteSnapshots(lay.SnapshotFilePath(symbol, session), rows)
		Expect(err).NotTo(HaveOccurred())

		eng := query.NewEngine(lay, fakeBars{spot: &spot}, nil)
		expiries, err := eng.Expiries(context.Background(), symbol, at, alphastore.MaxDTE)
		Expect(err).NotTo(HaveOccurred())
		Expect(expiries).To(Equal([]alphastore.SessionDate{session.AddDays(1)}))
	})
})
