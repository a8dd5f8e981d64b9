// Copyright (c) 2025 Neomantra Corp
//
// Connection / Handle Pool (spec §4.8): a bounded pool of reusable
// storage handles with idle eviction. The reaper loop is adapted from
// the ticker-driven background loop in internal/tui/download_manager.go
// (queueHandler/queueTicker/queueExitCh).

package pool

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantlayer/alphastore"
)

// Handle is anything the pool can lend out and eventually close.
type Handle interface {
	io.Closer
}

// Factory creates a new Handle for a given partition key (e.g. a
// DuckDB connection opened against a specific bars_1m.duckdb file).
type Factory[H Handle] func(key string) (H, error)

type idleEntry[H Handle] struct {
	handle   H
	key      string
	returned time.Time
}

// Pool is a bounded, keyed pool of reusable handles. Handles are keyed
// by partition (so renting "SPX/2024/01" always returns a handle
// scoped to that partition) but the pool enforces one global size cap
// across all keys, matching spec §4.8's "bounded size N".
type Pool[H Handle] struct {
	size    int
	idleTTL time.Duration
	factory Factory[H]
	logger  *slog.Logger

	mu        sync.Mutex
	idle      []idleEntry[H]
	outCount  int
	waitCh    chan struct{}
	closed    bool

	sweepTicker *time.Ticker
	exitCh      chan struct{}
	reaper      *errgroup.Group
}

// Config configures a Pool's size and eviction timing (spec §4.8 defaults).
type Config struct {
	Size         int
	IdleTTL      time.Duration
	SweepPeriod  time.Duration
	Logger       *slog.Logger
}

// DefaultConfig returns spec §4.8's defaults: 20 handles, 30 minute
// idle TTL, 10 minute sweep period.
func DefaultConfig() Config {
	return Config{
		Size:        alphastore.DefaultHandlePoolSize,
		IdleTTL:     alphastore.DefaultHandleIdleTTLMin * time.Minute,
		SweepPeriod: alphastore.DefaultReaperSweepMin * time.Minute,
	}
}

// New creates a Pool and starts its background reaper goroutine.
func New[H Handle](cfg Config, factory Factory[H]) *Pool[H] {
	if cfg.Size <= 0 {
		cfg.Size = alphastore.DefaultHandlePoolSize
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = alphastore.DefaultHandleIdleTTLMin * time.Minute
	}
	if cfg.SweepPeriod <= 0 {
		cfg.SweepPeriod = alphastore.DefaultReaperSweepMin * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool[H]{
		size:        cfg.Size,
		idleTTL:     cfg.IdleTTL,
		factory:     factory,
		logger:      logger,
		waitCh:      make(chan struct{}),
		sweepTicker: time.NewTicker(cfg.SweepPeriod),
		exitCh:      make(chan struct{}),
		reaper:      &errgroup.Group{},
	}
	p.reaper.Go(p.reapLoop)
	return p
}

// Rent returns a handle for key, reusing an idle one if available, or
// creating a new one if the pool has not reached its size cap. At the
// cap with only other keys' handles idle, the longest-idle of them is
// closed to make room. Blocks cooperatively (on ctx or handle return) when exhausted, per
// spec §4.8 and §5's suspension-point list.
func (p *Pool[H]) Rent(ctx context.Context, key string) (H, error) {
	var zero H
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, alphastore.NewStoreError(alphastore.KindStorageUnavailable, "pool closed")
		}
		for i, e := range p.idle {
			if e.key == key {
				p.idle = append(p.idle[:i], p.idle[i+1:]...)
				p.outCount++
				p.mu.Unlock()
				return e.handle, nil
			}
		}
		var evicted *idleEntry[H]
		if p.outCount+len(p.idle) >= p.size && len(p.idle) > 0 {
			e := p.idle[0]
			p.idle = p.idle[1:]
			evicted = &e
		}
		if p.outCount+len(p.idle) < p.size {
			p.outCount++
			p.mu.Unlock()
			if evicted != nil {
				evicted.handle.Close()
			}
			h, err := p.factory(key)
			if err != nil {
				p.mu.Lock()
				p.outCount--
				p.mu.Unlock()
				p.broadcast()
				return zero, alphastore.WrapStoreError(alphastore.KindStorageUnavailable, "open handle for "+key, err)
			}
			return h, nil
		}
		wait := p.waitCh
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, alphastore.WrapStoreError(alphastore.KindCancelled, "rent cancelled", ctx.Err())
		case <-wait:
			// retry
		}
	}
}

// Return returns a handle to the idle queue for reuse. If the pool has
// been disposed, the handle is closed immediately instead.
func (p *Pool[H]) Return(key string, h H) {
	p.mu.Lock()
	p.outCount--
	if p.closed {
		p.mu.Unlock()
		h.Close()
		return
	}
	p.idle = append(p.idle, idleEntry[H]{handle: h, key: key, returned: time.Now()})
	p.mu.Unlock()
	p.broadcast()
}

// broadcast wakes any Rent calls blocked on exhaustion.
func (p *Pool[H]) broadcast() {
	p.mu.Lock()
	old := p.waitCh
	p.waitCh = make(chan struct{})
	p.mu.Unlock()
	close(old)
}

// reapLoop disposes idle-expired handles every sweep period (spec §4.8:
// "Background reaper disposes idle-expired handles every T_sweep"). It
// runs under the pool's errgroup.Group so Dispose can wait for a clean
// exit the same way it would wait for any other cooperative goroutine.
func (p *Pool[H]) reapLoop() error {
	for {
		select {
		case <-p.exitCh:
			return nil
		case now := <-p.sweepTicker.C:
			p.sweep(now)
		}
	}
}

func (p *Pool[H]) sweep(now time.Time) {
	p.mu.Lock()
	kept := p.idle[:0]
	var expired []H
	for _, e := range p.idle {
		if now.Sub(e.returned) > p.idleTTL {
			expired = append(expired, e.handle)
		} else {
			kept = append(kept, e)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	for _, h := range expired {
		if err := h.Close(); err != nil {
			p.logger.Warn("pool reaper: close idle handle failed", "error", err)
		}
	}
}

// Dispose closes every idle handle and stops the reaper. Handles
// currently rented out close on their next Return (spec §4.8).
func (p *Pool[H]) Dispose() {
	p.sweepTicker.Stop()
	close(p.exitCh)
	p.reaper.Wait()

	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range idle {
		e.handle.Close()
	}
}
