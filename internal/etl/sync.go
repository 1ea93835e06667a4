package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ── Sync ───────────────────────────────────────────────────
// Orchestrates one tick: authenticate once, then fetch → map → load for
// every EntityJob in order. Failures stay inside the entity that caused them.

// SyncStatus is the outcome of one entity sync.
type SyncStatus string

const (
	SyncSuccess     SyncStatus = "success"      // batch committed, no rejected rows
	SyncPartial     SyncStatus = "partial"      // batch committed, some rows rejected
	SyncEmpty       SyncStatus = "empty"        // nothing fetched, loader not called
	SyncFetchFailed SyncStatus = "fetch_failed" // degraded to empty, loader not called
	SyncLoadFailed  SyncStatus = "load_failed"  // batch connection or commit failed
	SyncError       SyncStatus = "error"        // recovered fault
)

// TickStatus is the outcome of one tick.
type TickStatus string

const (
	TickSuccess  TickStatus = "success"  // every entity succeeded or was empty
	TickDegraded TickStatus = "degraded" // at least one entity did not fully succeed
	TickAborted  TickStatus = "aborted"  // no credential, nothing dispatched
)

// SyncResult is the outcome of syncing one entity.
type SyncResult struct {
	Entity        string        `json:"entity"`
	Status        SyncStatus    `json:"status"`
	RowsFetched   int           `json:"rowsFetched"`
	RowsAttempted int           `json:"rowsAttempted"`
	RowsFailed    int           `json:"rowsFailed"`
	Duration      time.Duration `json:"duration"`
	Err           error         `json:"-"`
}

// TickResult is the outcome of one scheduled run.
type TickResult struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Status     TickStatus   `json:"status"`
	Entities   []SyncResult `json:"entities"`
	Err        error        `json:"-"`
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs ticks against a source and a destination.
type Engine struct {
	Auth   Authenticator
	Source Source
	Dest   Destination
	Jobs   []EntityJob

	// Placeholder renders statement parameters for the destination dialect.
	Placeholder func(n int) string

	Log zerolog.Logger
}

// NewEngine creates an Engine over the standard entity table.
func NewEngine(auth Authenticator, src Source, dest Destination, placeholder func(n int) string, log zerolog.Logger) *Engine {
	return &Engine{
		Auth:        auth,
		Source:      src,
		Dest:        dest,
		Jobs:        Entities(),
		Placeholder: placeholder,
		Log:         log.With().Str("component", "engine").Logger(),
	}
}

// RunTick performs one full pass. It never panics and never returns an error;
// the outcome is carried by the result.
func (e *Engine) RunTick(ctx context.Context) *TickResult {
	tick := &TickResult{ID: uuid.New().String(), StartedAt: time.Now()}
	log := e.Log.With().Str("tick", tick.ID).Logger()
	log.Info().Msg("Starting scheduled job...")

	defer func() {
		if r := recover(); r != nil {
			tick.Status = TickDegraded
			tick.Err = fmt.Errorf("%w: %v", ErrUnexpected, r)
			log.Error().Err(tick.Err).Msg("Unexpected error in tick")
		}
		tick.FinishedAt = time.Now()
	}()

	// INIT
	cred, err := e.Auth.Authenticate(ctx)
	if err == nil && cred == "" {
		err = fmt.Errorf("%w: empty credential", ErrAuth)
	}
	if err != nil {
		tick.Status = TickAborted
		tick.Err = err
		log.Error().Err(err).Msg("tick aborted: missing credential")
		return tick
	}

	// DISPATCH
	tick.Status = TickSuccess
	for i := range e.Jobs {
		res := e.dispatch(ctx, &e.Jobs[i], cred, log)
		if res.Status != SyncSuccess && res.Status != SyncEmpty {
			tick.Status = TickDegraded
		}
		tick.Entities = append(tick.Entities, res)
	}

	// DONE
	log.Info().Str("status", string(tick.Status)).Dur("duration", time.Since(tick.StartedAt)).
		Msg("Scheduled job finished")
	return tick
}

// dispatch isolates one job a second time, in case Sync itself faults
// outside its own recovery.
func (e *Engine) dispatch(ctx context.Context, job *EntityJob, cred Credential, log zerolog.Logger) (res SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SyncResult{Entity: job.Name, Status: SyncError, Err: fmt.Errorf("%w: %v", ErrUnexpected, r)}
			log.Error().Err(res.Err).Str("entity", job.Name).Msgf("Error in %s sync", job.Name)
		}
	}()
	res = e.Sync(ctx, job, cred)
	log.Info().Str("entity", job.Name).Str("status", string(res.Status)).
		Msgf("%s sync completed.", job.Name)
	return res
}

// Sync runs fetch → map → load for a single entity. It never panics.
func (e *Engine) Sync(ctx context.Context, job *EntityJob, cred Credential) (res SyncResult) {
	start := time.Now()
	log := e.Log.With().Str("entity", job.Name).Logger()
	res.Entity = job.Name

	defer func() {
		if r := recover(); r != nil {
			res.Status = SyncError
			res.Err = fmt.Errorf("%w: %v", ErrUnexpected, r)
			log.Error().Err(res.Err).Msgf("Error processing %s data", job.Name)
		}
		res.Duration = time.Since(start)
	}()

	records, err := e.Source.Fetch(ctx, job.Endpoint, cred)
	if err != nil {
		res.Status = SyncFetchFailed
		res.Err = err
		log.Warn().Err(err).Msgf("No %s data fetched.", job.Name)
		return res
	}
	res.RowsFetched = len(records)
	if len(records) == 0 {
		res.Status = SyncEmpty
		log.Warn().Msgf("No %s data fetched.", job.Name)
		return res
	}

	rows := MapAll(records, job.Mapper())

	loaded, err := e.Dest.Load(ctx, job.InsertStatement(e.placeholder()), rows, job.Name)
	if loaded != nil {
		res.RowsAttempted = loaded.Attempted
		res.RowsFailed = loaded.Failed
	}
	switch {
	case err != nil:
		res.Status = SyncLoadFailed
		res.Err = err
	case res.RowsFailed > 0:
		res.Status = SyncPartial
		errs := make([]error, 0, len(loaded.Errors))
		for _, re := range loaded.Errors {
			errs = append(errs, re)
		}
		res.Err = errors.Join(errs...)
	default:
		res.Status = SyncSuccess
	}
	return res
}

func (e *Engine) placeholder() func(int) string {
	if e.Placeholder != nil {
		return e.Placeholder
	}
	return func(int) string { return "?" }
}

// ── Run logs ───────────────────────────────────────────────
// Flattened, serializable views of results for the run history.

// SyncRunLog is a historical record of one entity sync.
type SyncRunLog struct {
	TickID        string `json:"tickId"`
	Entity        string `json:"entity"`
	Status        string `json:"status"`
	RowsFetched   int    `json:"rowsFetched"`
	RowsAttempted int    `json:"rowsAttempted"`
	RowsFailed    int    `json:"rowsFailed"`
	DurationMs    int64  `json:"durationMs"`
	Error         string `json:"error,omitempty"`
}

// TickRunLog is a historical record of one tick.
type TickRunLog struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Entities   []SyncRunLog `json:"entities"`
}

// RunLog converts the result into its history form.
func (t *TickResult) RunLog() TickRunLog {
	l := TickRunLog{
		ID:         t.ID,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		Status:     string(t.Status),
		Error:      errString(t.Err),
		Entities:   make([]SyncRunLog, 0, len(t.Entities)),
	}
	for _, s := range t.Entities {
		l.Entities = append(l.Entities, SyncRunLog{
			TickID:        t.ID,
			Entity:        s.Entity,
			Status:        string(s.Status),
			RowsFetched:   s.RowsFetched,
			RowsAttempted: s.RowsAttempted,
			RowsFailed:    s.RowsFailed,
			DurationMs:    s.Duration.Milliseconds(),
			Error:         errString(s.Err),
		})
	}
	return l
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
