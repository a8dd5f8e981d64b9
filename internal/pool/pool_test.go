// Copyright (c) 2025 Neomantra Corp

package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/quantlayer/alphastore/internal/pool"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "handle pool suite")
}

type fakeHandle struct {
	closed bool
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

var _ = Describe("Handle Pool", func() {
	It("reuses a returned handle for the same key", func() {
		created := 0
		p := pool.New(pool.Config{Size: 2}, func(key string) (*fakeHandle, error) {
			created++
			return &fakeHandle{}, nil
		})
		defer p.Dispose()

		ctx := context.Background()
		h1, err := p.Rent(ctx, "SPX/2024/01")
		Expect(err).NotTo(HaveOccurred())
		p.Return("SPX/2024/01", h1)

		h2, err := p.Rent(ctx, "SPX/2024/01")
		Expect(err).NotTo(HaveOccurred())
		Expect(h2).To(BeIdenticalTo(h1))
		Expect(created).To(Equal(1))
	})

	It("blocks when exhausted and wakes on return", func() {
		p := pool.New(pool.Config{Size: 1}, func(key string) (*fakeHandle, error) {
			return &fakeHandle{}, nil
		})
		defer p.Dispose()

		ctx := context.Background()
		h1, err := p.Rent(ctx, "A")
		Expect(err).NotTo(HaveOccurred())

		done := make(chan struct{})
		go func() {
			h2, err := p.Rent(ctx, "B")
			Expect(err).NotTo(HaveOccurred())
			p.Return("B", h2)
			close(done)
		}()

		select {
		case <-done:
			Fail("rent should have blocked while pool was exhausted")
		case <-time.After(50 * time.Millisecond):
		}

		p.Return("A", h1)

		select {
		case <-done:
		case <-time.After(time.Second):
			Fail("rent did not unblock after return")
		}
	})

	It("respects context cancellation while blocked", func() {
		p := pool.New(pool.Config{Size: 1}, func(key string) (*fakeHandle, error) {
			return &fakeHandle{}, nil
		})
		defer p.Dispose()

		ctx := context.Background()
		h1, err := p.Rent(ctx, "A")
		Expect(err).NotTo(HaveOccurred())
		defer p.Return("A", h1)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = p.Rent(cctx, "B")
		Expect(err).To(HaveOccurred())
	})

	It("closes idle handles on dispose", func() {
		p := pool.New(pool.Config{Size: 1}, func(key string) (*fakeHandle, error) {
			return &fakeHandle{}, nil
		})
		h, err := p.Rent(context.Background(), "A")
		Expect(err).NotTo(HaveOccurred())
		p.Return("A", h)
		p.Dispose()
		Expect(h.closed).To(BeTrue())
	})
})
