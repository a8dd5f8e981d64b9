// Copyright (c) 2025 Neomantra Corp

package chainstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/calendar"
	"github.com/quantlayer/alphastore/internal/chainstore"
	"github.com/quantlayer/alphastore/layout"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestChainStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "chain store suite")
}

var _ = Describe("Chain Store", func() {
	var (
		lay     *layout.Layout
		session alphastore.SessionDate
		symbol  alphastore.Symbol
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		lay, err = layout.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		symbol = "SPX"
		session = alphastore.NewSessionDate(2024, time.January, 16) // a Tuesday
		ctx = context.Background()
	})

	It("round-trips a contract universe file", func() {
		path := lay.ChainFilePath(symbol, session)
		rows := []alphastore.ContractUniverseRow{
			{
				Symbol: symbol, Session: session,
				Expiry: session.AddDays(30), Strike: alphastore.MoneyFromFloat(4750),
				Right:     alphastore.RightCall,
				FirstSeen: alphastore.NewInstantUtc(time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC)),
				LastSeen:  alphastore.NewInstantUtc(time.Date(2024, 1, 16, 21, 0, 0, 0, time.UTC)),
			},
		}
		result, err := chainstore.WriteChain(path, rows)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Rows).To(Equal(int64(1)))
		Expect(result.Hash).NotTo(BeEmpty())

		got, err := chainstore.ReadChain(ctx, path, symbol)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Strike).To(Equal(alphastore.MoneyFromFloat(4750)))
		Expect(got[0].Right).To(Equal(alphastore.RightCall))
	})

	It("round-trips a snapshot file preserving absent Greeks", func() {
		path := lay.SnapshotFilePath(symbol, session)
		iv := 0.18
		rows := []alphastore.SnapshotRow{
			{
				Symbol: symbol, TsUtc: alphastore.NewInstantUtc(time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC)),
				Expiry: session.AddDays(30), Strike: alphastore.MoneyFromFloat(4750), Right: alphastore.RightCall,
				Bid: alphastore.MoneyFromFloat(10.0), Ask: alphastore.MoneyFromFloat(10.5),
				IV: &iv, DTE: 30,
			},
		}
		_, err := chainstore.WriteSnapshots(path, rows)
		Expect(err).NotTo(HaveOccurred())

		got, err := chainstore.ReadSnapshots(ctx, path, symbol, chainstore.SnapshotFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].IV).NotTo(BeNil())
		Expect(*got[0].IV).To(BeNumerically("~", 0.18, 1e-9))
		Expect(got[0].Delta).To(BeNil())
		Expect(got[0].Mid).To(BeNil())
	})

	It("filters snapshots by DTE range", func() {
		path := lay.SnapshotFilePath(symbol, session)
		base := alphastore.NewInstantUtc(time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC))
		rows := []alphastore.SnapshotRow{
			{Symbol: symbol, TsUtc: base, Expiry: session.AddDays(5), Strike: alphastore.MoneyFromFloat(100), Right: alphastore.RightCall, DTE: 5},
			{Symbol: symbol, TsUtc: base, Expiry: session.AddDays(60), Strike: alphastore.MoneyFromFloat(100), Right: alphastore.RightCall, DTE: 60},
		}
		_, err := chainstore.WriteSnapshots(path, rows)
		Expect(err).NotTo(HaveOccurred())

		dteMax := 45
		got, err := chainstore.ReadSnapshots(ctx, path, symbol, chainstore.SnapshotFilter{DTEMax: &dteMax})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].DTE).To(Equal(5))
	})

	It("persists manifest entries and records history on update", func() {
		mPath := lay.ManifestPath(symbol, session)
		m, err := chainstore.LoadManifest(mPath, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Files).To(BeEmpty())

		chainstore.PutEntry(&m, "chain_2024-01-16.parquet", alphastore.ManifestEntry{
			FileName: "chain_2024-01-16.parquet", RecordCount: 1, Sha256: "abc",
			Symbol: symbol, SessionDate: session, BuildVersion: "test",
		}, time.Date(2024, 1, 16, 21, 5, 0, 0, time.UTC))
		Expect(chainstore.SaveManifest(mPath, m)).To(Succeed())

		reloaded, err := chainstore.LoadManifest(mPath, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Files).To(HaveKey("chain_2024-01-16.parquet"))

		chainstore.PutEntry(&reloaded, "chain_2024-01-16.parquet", alphastore.ManifestEntry{
			FileName: "chain_2024-01-16.parquet", RecordCount: 2, Sha256: "def",
			Symbol: symbol, SessionDate: session, BuildVersion: "test",
		}, time.Date(2024, 1, 16, 21, 10, 0, 0, time.UTC))
		Expect(chainstore.SaveManifest(mPath, reloaded)).To(Succeed())

		history, err := chainstore.ReadHistory(filepath.Join(lay.SessionPartitionDir(symbol, session), "meta_history.jsonl.zst"))
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(1))
		Expect(history[0].Files["chain_2024-01-16.parquet"].Sha256).To(Equal("abc"))
	})

	It("reports metadata missing when verifying a partition with no manifest", func() {
		report, err := chainstore.VerifyPartition(lay, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Status).To(Equal(alphastore.VerifyMetadataMissing))
	})

	It("verifies a partition whose files match their recorded hashes", func() {
		chainPath := lay.ChainFilePath(symbol, session)
		result, err := chainstore.WriteChain(chainPath, []alphastore.ContractUniverseRow{
			{Symbol: symbol, Session: session, Expiry: session.AddDays(10), Strike: alphastore.MoneyFromFloat(100), Right: alphastore.RightPut,
				FirstSeen: alphastore.NewInstantUtc(time.Now().UTC()), LastSeen: alphastore.NewInstantUtc(time.Now().UTC())},
		})
		Expect(err).NotTo(HaveOccurred())

		mPath := lay.ManifestPath(symbol, session)
		m, _ := chainstore.LoadManifest(mPath, symbol, session)
		chainstore.PutEntry(&m, filepath.Base(chainPath), alphastore.ManifestEntry{
			FileName: filepath.Base(chainPath), RecordCount: result.Rows, Sha256: result.Hash,
			Symbol: symbol, SessionDate: session, BuildVersion: "test",
		}, time.Now().UTC())
		Expect(chainstore.SaveManifest(mPath, m)).To(Succeed())

		report, err := chainstore.VerifyPartition(lay, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Status).To(Equal(alphastore.VerifyValid))
		Expect(report.VerifiedFiles).To(Equal(1))
	})

	It("downgrades validate_session to Incomplete when the bar ratio is in [0.80, 0.95)", func() {
		Expect(calendar.IsTrading(session)).To(BeTrue())
		counter := fakeBarCounter{count: 340} // 340/390 ~= 0.87
		report, err := chainstore.ValidateSession(ctx, lay, counter, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Status).To(Equal(alphastore.SessionIncomplete))
		Expect(report.ExpectedBars).To(Equal(alphastore.RegularSessionBars))
	})

	It("downgrades validate_session to Corrupted when the bar ratio is below 0.80", func() {
		counter := fakeBarCounter{count: 100} // far short of 390
		report, err := chainstore.ValidateSession(ctx, lay, counter, symbol, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Status).To(Equal(alphastore.SessionCorrupted))
	})
})

type fakeBarCounter struct{ count int }

func (f fakeBarCounter) CountBars(ctx context.Context, symbol alphastore.Symbol, session alphastore.SessionDate) (int, error) {
	return f.count, nil
}
