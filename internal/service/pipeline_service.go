package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"fedpipeline/internal/etl"
)

// ErrTickRunning is returned by RunTick when another tick is in progress.
var ErrTickRunning = errors.New("tick already running")

// TickRunner performs one full pipeline pass; etl.Engine implements it.
type TickRunner interface {
	RunTick(ctx context.Context) *etl.TickResult
}

// ─────────────────────────────────────────────────────────────
// Pipeline Service: schedules ticks and fans out their results
// ─────────────────────────────────────────────────────────────

// PipelineService runs the pipeline every interval until stopped.
type PipelineService struct {
	runner     TickRunner
	observers  []TickObserver
	interval   time.Duration
	runOnStart bool
	log        zerolog.Logger

	guard tickGuard

	mu        sync.Mutex
	cronSched *cron.Cron
}

// Option configures a PipelineService.
type Option func(*PipelineService)

// WithObservers adds observers notified after every tick.
func WithObservers(obs ...TickObserver) Option {
	return func(s *PipelineService) { s.observers = append(s.observers, obs...) }
}

// WithRunOnStart runs one tick immediately when Start is called.
func WithRunOnStart(v bool) Option {
	return func(s *PipelineService) { s.runOnStart = v }
}

// NewPipelineService creates a PipelineService ready for Start.
func NewPipelineService(runner TickRunner, interval time.Duration, log zerolog.Logger, opts ...Option) *PipelineService {
	s := &PipelineService{
		runner:   runner,
		interval: interval,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Run ────────────────────────────────────────────────────

// RunTick executes a single tick synchronously and notifies observers.
func (s *PipelineService) RunTick(ctx context.Context) (*etl.TickResult, error) {
	if !s.guard.TryLock() {
		return nil, ErrTickRunning
	}
	defer s.guard.Unlock()

	result := s.runner.RunTick(ctx)
	for _, o := range s.observers {
		s.notify(ctx, o, result)
	}
	return result, nil
}

// notify shields the scheduler from a faulty observer.
func (s *PipelineService) notify(ctx context.Context, o TickObserver, t *etl.TickResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("tick", t.ID).Msg("tick observer panicked")
		}
	}()
	o.ObserveTick(ctx, t)
}

// ── Schedule ───────────────────────────────────────────────

// Start registers the tick with the scheduler. Ticks run until Stop is called
// or ctx is cancelled; a tick in progress when ctx is cancelled sees the
// cancellation through its own context.
func (s *PipelineService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cronSched != nil {
		return fmt.Errorf("scheduler already started")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid interval %s", s.interval)
	}

	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	spec := "@every " + s.interval.String()
	if _, err := c.AddFunc(spec, func() { s.scheduledTick(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.cronSched = c
	c.Start()
	s.log.Info().Dur("interval", s.interval).Msg("Scheduler started")

	if s.runOnStart {
		go s.scheduledTick(ctx)
	}
	return nil
}

func (s *PipelineService) scheduledTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunTick(ctx); err != nil {
		s.log.Warn().Err(err).Msg("skipping scheduled tick")
	}
}

// Running reports whether a tick is in progress.
func (s *PipelineService) Running() bool {
	return s.guard.Running()
}

// WaitRunning blocks until the running tick finishes or ctx is cancelled.
// Used for graceful shutdown.
func (s *PipelineService) WaitRunning(ctx context.Context) {
	s.guard.Wait(ctx)
}

// Stop prevents further ticks from being scheduled. It does not wait for a
// tick in progress; pair it with WaitRunning.
func (s *PipelineService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
		s.log.Info().Msg("Scheduler stopped")
	}
}
