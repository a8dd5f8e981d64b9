// Copyright (c) 2025 Neomantra Corp

package layout_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quantlayer/alphastore"
	"github.com/quantlayer/alphastore/layout"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLayout(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "layout suite")
}

var _ = Describe("Partition Layout", func() {
	var l *layout.Layout

	BeforeEach(func() {
		var err error
		l, err = layout.New("/data/root")
		Expect(err).NotTo(HaveOccurred())
	})

	session := alphastore.NewSessionDate(2024, time.January, 15)

	It("derives the partition directory deterministically", func() {
		dir := l.SessionPartitionDir("SPX", session)
		Expect(dir).To(Equal(filepath.Join("/data/root", "alpha", "SPX", "2024", "01")))
	})

	It("derives the bar file path", func() {
		Expect(l.BarFilePath("SPX", session)).To(Equal(filepath.Join("/data/root", "alpha", "SPX", "2024", "01", "bars_1m.duckdb")))
	})

	It("derives the chain file path", func() {
		Expect(l.ChainFilePath("SPX", session)).To(Equal(filepath.Join("/data/root", "alpha", "SPX", "2024", "01", "chain_2024-01-15.parquet")))
	})

	It("derives the snapshot file path", func() {
		Expect(l.SnapshotFilePath("SPX", session)).To(Equal(filepath.Join("/data/root", "alpha", "SPX", "2024", "01", "snapshots_2024-01-15.parquet")))
	})

	It("derives the manifest path", func() {
		Expect(l.ManifestPath("SPX", session)).To(Equal(filepath.Join("/data/root", "alpha", "SPX", "2024", "01", "meta.json")))
	})

	It("rejects an empty root", func() {
		_, err := layout.New("")
		Expect(err).To(HaveOccurred())
		Expect(alphastore.KindOf(err)).To(Equal(alphastore.KindInvalidArgument))
	})
})
