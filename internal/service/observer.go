package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"fedpipeline/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// TickObserver: decouples the scheduler from history and metrics
// ─────────────────────────────────────────────────────────────

// TickObserver is notified after every tick, including aborted ones.
// Observers must not block for long; they run on the scheduler goroutine.
type TickObserver interface {
	ObserveTick(ctx context.Context, t *etl.TickResult)
}

// ObserverFunc adapts a function to TickObserver.
type ObserverFunc func(ctx context.Context, t *etl.TickResult)

func (f ObserverFunc) ObserveTick(ctx context.Context, t *etl.TickResult) { f(ctx, t) }

// TickRecorder persists ticks; storage.RunStore implements it.
type TickRecorder interface {
	RecordTick(ctx context.Context, t *etl.TickResult) error
}

// HistoryObserver writes each tick to a TickRecorder. Write failures are
// logged and never reach the pipeline.
func HistoryObserver(rec TickRecorder, log zerolog.Logger) TickObserver {
	return ObserverFunc(func(ctx context.Context, t *etl.TickResult) {
		if err := rec.RecordTick(ctx, t); err != nil {
			log.Warn().Err(err).Str("tick", t.ID).Msg("failed to record run history")
		}
	})
}

// MockObserver is a test-friendly TickObserver that records all calls.
type MockObserver struct {
	mu    sync.Mutex
	Ticks []*etl.TickResult
}

func (m *MockObserver) ObserveTick(_ context.Context, t *etl.TickResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ticks = append(m.Ticks, t)
}

// Count returns the number of observed ticks.
func (m *MockObserver) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Ticks)
}
