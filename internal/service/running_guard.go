package service

import (
	"context"
	"sync"
)

// ExportedTickGuard is an exported alias so _test packages can test the guard.
type ExportedTickGuard = tickGuard

// ─────────────────────────────────────────────────────────────
// tickGuard: prevents overlapping ticks
// ─────────────────────────────────────────────────────────────

// tickGuard ensures at most one tick runs at a time, whether it was started
// by the scheduler or by hand.
type tickGuard struct {
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// TryLock marks a tick as running. Returns false if one already is.
func (g *tickGuard) TryLock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	g.wg.Add(1)
	return true
}

// Unlock marks the tick as finished. Must be called after TryLock returns true.
func (g *tickGuard) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
	g.wg.Done()
}

// Running reports whether a tick is in progress.
func (g *tickGuard) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Wait blocks until the running tick completes or ctx is cancelled.
func (g *tickGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
