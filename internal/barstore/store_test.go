// Copyright (c) 2025 Neomantra Corp

package barstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/internal/barstore"
	"github.com/quantlayer/alphastore/internal/pool"
	"github.com/quantlayer/alphastore/layout"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBarStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "bar store suite")
}

func minuteBar(symbol alphastore.Symbol, ts time.Time, o, h, l, c float64, vol int64) alphastore.UnderlyingBar {
	return alphastore.UnderlyingBar{
		Symbol: symbol,
		TsUtc:  alphastore.NewInstantUtc(ts),
		Open:   alphastore.MoneyFromFloat(o),
		High:   alphastore.MoneyFromFloat(h),
		Low:    alphastore.MoneyFromFloat(l),
		Close:  alphastore.MoneyFromFloat(c),
		Volume: vol,
	}
}

func collectBars(seq func(func(alphastore.UnderlyingBar, error) bool)) ([]alphastore.UnderlyingBar, error) {
	var out []alphastore.UnderlyingBar
	var outErr error
	seq(func(b alphastore.UnderlyingBar, err error) bool {
		if err != nil {
			outErr = err
			return false
		}
		out = append(out, b)
		return true
	})
	return out, outErr
}

var _ = Describe("Bar Store", func() {
	var (
		store *barstore.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		lay, err := layout.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		store = barstore.New(lay, pool.Config{Size: 4}, nil)
		ctx = context.Background()
	})

	AfterEach(func() {
		store.Close()
	})

	It("round-trips a batch of minute bars and reads them back", func() {
		base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		bars := []alphastore.UnderlyingBar{
			minuteBar("SPX", base, 4750, 4752, 4749, 4751, 1000),
			minuteBar("SPX", base.Add(time.Minute), 4751, 4753, 4750, 4752, 1200),
		}
		n, err := store.PutBars(ctx, bars)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(2)))

		from := alphastore.NewInstantUtc(base)
		to := alphastore.NewInstantUtc(base.Add(time.Minute))
		got, err := collectBars(store.GetBars(ctx, "SPX", from, to, alphastore.Interval1m))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].Close).To(Equal(alphastore.MoneyFromFloat(4751)))
		Expect(got[1].Close).To(Equal(alphastore.MoneyFromFloat(4752)))
	})

	It("upserts on a repeated (symbol, ts_utc) write", func() {
		ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		_, err := store.PutBars(ctx, []alphastore.UnderlyingBar{
			minuteBar("SPX", ts, 100, 101, 99, 100, 10),
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.PutBars(ctx, []alphastore.UnderlyingBar{
			minuteBar("SPX", ts, 100, 105, 99, 104, 50),
		})
		Expect(err).NotTo(HaveOccurred())

		at := alphastore.NewInstantUtc(ts)
		got, err := collectBars(store.GetBars(ctx, "SPX", at, at, alphastore.Interval1m))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Close).To(Equal(alphastore.MoneyFromFloat(104)))
		Expect(got[0].Volume).To(Equal(int64(50)))
	})

	It("aggregates to a coarser interval via GetBars", func() {
		base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		var bars []alphastore.UnderlyingBar
		for i := 0; i < 5; i++ {
			bars = append(bars, minuteBar("SPX", base.Add(time.Duration(i)*time.Minute),
				100+float64(i), 101+float64(i), 99+float64(i), 100+float64(i), 10))
		}
		_, err := store.PutBars(ctx, bars)
		Expect(err).NotTo(HaveOccurred())

		from := alphastore.NewInstantUtc(base)
		to := alphastore.NewInstantUtc(base.Add(4 * time.Minute))
		got, err := collectBars(store.GetBars(ctx, "SPX", from, to, alphastore.Interval5m))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Open).To(Equal(alphastore.MoneyFromFloat(100)))
		Expect(got[0].Close).To(Equal(alphastore.MoneyFromFloat(104)))
		Expect(got[0].Volume).To(Equal(int64(50)))
	})

	It("returns nil spot when the symbol has no bars yet", func() {
		at := alphastore.NewInstantUtc(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))
		spot, err := store.GetSpot(ctx, "SPX", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(spot).To(BeNil())
	})

	It("returns the latest close at or before the query instant", func() {
		base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		_, err := store.PutBars(ctx, []alphastore.UnderlyingBar{
			minuteBar("SPX", base, 100, 101, 99, 100, 10),
			minuteBar("SPX", base.Add(time.Minute), 100, 102, 100, 101, 10),
		})
		Expect(err).NotTo(HaveOccurred())

		spot, err := store.GetSpot(ctx, "SPX", alphastore.NewInstantUtc(base.Add(30*time.Second)))
		Expect(err).NotTo(HaveOccurred())
		Expect(spot).NotTo(BeNil())
		Expect(*spot).To(Equal(alphastore.MoneyFromFloat(100)))
	})

	It("rejects an inverted range", func() {
		base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		from := alphastore.NewInstantUtc(base)
		to := alphastore.NewInstantUtc(base.Add(-time.Minute))
		_, err := collectBars(store.GetBars(ctx, "SPX", from, to, alphastore.Interval1m))
		Expect(err).To(HaveOccurred())
		Expect(alphastore.KindOf(err)).To(Equal(alphastore.KindInvalidArgument))
	})
})
