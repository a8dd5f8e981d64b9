// Copyright (c) 2025 Neomantra Corp

package alphastore_test

import (
	"context"
	"testing"
	"time"

	"github.com/quantlayer/alphastore"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "engine suite")
}

var _ = Describe("Engine", func() {
	var (
		eng     *alphastore.Engine
		symbol  alphastore.Symbol
		session alphastore.SessionDate
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		eng, err = alphastore.Open(alphastore.Config{StorageRoot: GinkgoT().TempDir(), BuildVersion: "test"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(eng.Close)

		symbol = "SPX"
		session = alphastore.NewSessionDate(2024, time.January, 15)
		ctx = context.Background()
	})

	It("round-trips bars through PutBars/Bars", func() {
		ts := alphastore.NewInstantUtc(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))
		bars := []alphastore.UnderlyingBar{
			{Symbol: symbol, TsUtc: ts, Open: alphastore.MoneyFromFloat(100), High: alphastore.MoneyFromFloat(101),
				Low: alphastore.MoneyFromFloat(99), Close: alphastore.MoneyFromFloat(100.5), Volume: 1000},
		}
		n, err := eng.PutBars(ctx, bars)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		got, err := eng.Bars(ctx, alphastore.BarQuery{Symbol: symbol, From: ts, To: ts, Interval: alphastore.Interval1m})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Close).To(Equal(alphastore.MoneyFromFloat(100.5)))

		spot, err := eng.Spot(ctx, symbol, ts)
		Expect(err).NotTo(HaveOccurred())
		Expect(spot).NotTo(BeNil())
		Expect(*spot).To(Equal(alphastore.MoneyFromFloat(100.5)))
	})

	It("writes and verifies a chain partition", func() {
		rows := []alphastore.ContractUniverseRow{
			{Symbol: symbol, Session: session, Expiry: session.AddDays(7), Strike: alphastore.MoneyFromFloat(4750),
				Right: alphastore.RightCall, FirstSeen: alphastore.NewInstantUtc(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)),
				LastSeen: alphastore.NewInstantUtc(time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC))},
		}
		result, err := eng.WriteChain(symbol, session, rows)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Rows).To(Equal(int64(1)))

		got, err := eng.ReadChain(ctx, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Strike).To(Equal(alphastore.MoneyFromFloat(4750)))

		report, err := eng.VerifyPartition(symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Status).To(Equal(alphastore.VerifyValid))
	})

	It("scores an empty chain query as zero with a NoUnderlying hint", func() {
		at := alphastore.NewInstantUtc(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC))
		view, err := eng.ChainSnapshot(ctx, alphastore.DefaultChainQuery(symbol, at))
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Hints).To(ConsistOf(alphastore.HintNoUnderlying))

		report := eng.Score(view)
		Expect(report.OverallScore).To(Equal(0.0))
	})

	// Design Note §9: "multiple engines in the same process are
	// supported and independent" — no ambient global root, no shared
	// cache or pool state between distinct Engine values.
	It("keeps two engines over different roots fully independent", func() {
		engA := eng // from BeforeEach, rooted at its own TempDir
		engB, err := alphastore.Open(alphastore.Config{StorageRoot: GinkgoT().TempDir(), BuildVersion: "test-b"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(engB.Close)

		ts := alphastore.NewInstantUtc(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))
		barsA := []alphastore.UnderlyingBar{
			{Symbol: symbol, TsUtc: ts, Open: alphastore.MoneyFromFloat(100), High: alphastore.MoneyFromFloat(101),
				Low: alphastore.MoneyFromFloat(99), Close: alphastore.MoneyFromFloat(100.5), Volume: 1000},
		}
		_, err = engA.PutBars(ctx, barsA)
		Expect(err).NotTo(HaveOccurred())

		// engB shares no cache, pool, or on-disk state with engA: the
		// same (symbol, instant) resolves to no spot at all.
		spotB, err := engB.Spot(ctx, symbol, ts)
		Expect(err).NotTo(HaveOccurred())
		Expect(spotB).To(BeNil())

		spotA, err := engA.Spot(ctx, symbol, ts)
		Expect(err).NotTo(HaveOccurred())
		Expect(spotA).NotTo(BeNil())
		Expect(*spotA).To(Equal(alphastore.MoneyFromFloat(100.5)))

		symbolsB, err := engB.ListSymbols()
		Expect(err).NotTo(HaveOccurred())
		Expect(symbolsB).To(BeEmpty())

		symbolsA, err := engA.ListSymbols()
		Expect(err).NotTo(HaveOccurred())
		Expect(symbolsA).To(ContainElement(symbol))
	})
})
