package etl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"fedpipeline/internal/dbclient"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes one entity's batch of rows.

// Destination loads rows with a parameterized statement, once per row.
type Destination interface {
	// Load never panics. A nil error means the batch was committed, possibly
	// with individual rows rejected (see LoadResult.Failed). A non-nil error
	// wraps ErrBatchConnection and means nothing from the batch is committed.
	Load(ctx context.Context, query string, rows []Row, label string) (*LoadResult, error)
}

// LoadResult reports what happened to one batch.
type LoadResult struct {
	Attempted int        `json:"attempted"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
}

// RowError is a single rejected row.
type RowError struct {
	ID  any   `json:"id"`
	Err error `json:"-"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %v: %v", e.ID, e.Err) }

func (e RowError) Unwrap() []error { return []error{ErrRowInsert, e.Err} }

// ── SQL Destination ────────────────────────────────────────

// SQLWriter implements Destination on top of a dbclient.Connector.
// Every Load opens, uses and closes its own connection.
type SQLWriter struct {
	Conn dbclient.Connector
	Log  zerolog.Logger
}

// NewSQLWriter creates a SQLWriter.
func NewSQLWriter(conn dbclient.Connector, log zerolog.Logger) *SQLWriter {
	return &SQLWriter{Conn: conn, Log: log.With().Str("component", "loader").Logger()}
}

func (w *SQLWriter) Load(ctx context.Context, query string, rows []Row, label string) (*LoadResult, error) {
	log := w.Log.With().Str("entity", label).Logger()
	result := &LoadResult{}

	if len(rows) == 0 {
		log.Warn().Msgf("No %s records to insert.", label)
		return result, nil
	}

	log.Info().Int("rows", len(rows)).Msgf("Inserting %d %s records to DB.", len(rows), label)

	sess, err := w.Conn.Open(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to connect to database for %s records.", label)
		return result, fmt.Errorf("%w: %s: %w", ErrBatchConnection, label, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("close session")
		}
	}()

	for _, row := range rows {
		result.Attempted++
		if err := sess.Exec(ctx, query, row...); err != nil {
			rowErr := RowError{ID: row.ID(), Err: err}
			result.Failed++
			result.Errors = append(result.Errors, rowErr)
			log.Error().Err(err).Interface("id", row.ID()).
				Msgf("Error executing query for record with ID: %v", row.ID())
		}
	}

	// Committed even when every row failed; see DESIGN.md open questions.
	if err := sess.Commit(); err != nil {
		log.Error().Err(err).Msgf("Failed to commit %s records.", label)
		return result, fmt.Errorf("%w: %s: %w", ErrBatchConnection, label, err)
	}

	log.Info().Int("attempted", result.Attempted).Int("failed", result.Failed).
		Msgf("%d %s records insertion ended.", result.Attempted, label)
	return result, nil
}
