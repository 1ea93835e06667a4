package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fedpipeline/internal/etl"
)

// RunStore persists tick outcomes. History is write-mostly and never read
// back by the pipeline itself.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// RecordTick stores a tick and its per-entity results in one transaction.
func (s *RunStore) RecordTick(ctx context.Context, t *etl.TickResult) error {
	l := t.RunLog()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tick_runs (id, started_at, finished_at, status, error) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.StartedAt.UTC(), l.FinishedAt.UTC(), l.Status, l.Error,
	); err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}

	for i, e := range l.Entities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entity_runs (id, tick_id, seq, entity, status, rows_fetched, rows_attempted, rows_failed, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), l.ID, i, e.Entity, e.Status,
			e.RowsFetched, e.RowsAttempted, e.RowsFailed, e.DurationMs, e.Error,
		); err != nil {
			return fmt.Errorf("insert entity run %s: %w", e.Entity, err)
		}
	}
	return tx.Commit()
}

// ListRecentTicks returns up to limit ticks, newest first, with entities in
// dispatch order.
func (s *RunStore) ListRecentTicks(ctx context.Context, limit int) ([]etl.TickRunLog, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, error
		 FROM tick_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []etl.TickRunLog
	for rows.Next() {
		var l etl.TickRunLog
		if err := rows.Scan(&l.ID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.Error); err != nil {
			return nil, err
		}
		ticks = append(ticks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range ticks {
		entities, err := s.listEntityRuns(ctx, ticks[i].ID)
		if err != nil {
			return nil, err
		}
		ticks[i].Entities = entities
	}
	return ticks, nil
}

func (s *RunStore) listEntityRuns(ctx context.Context, tickID string) ([]etl.SyncRunLog, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT tick_id, entity, status, rows_fetched, rows_attempted, rows_failed, duration_ms, error
		 FROM entity_runs WHERE tick_id = ? ORDER BY seq ASC`, tickID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []etl.SyncRunLog
	for rows.Next() {
		var l etl.SyncRunLog
		if err := rows.Scan(&l.TickID, &l.Entity, &l.Status, &l.RowsFetched, &l.RowsAttempted, &l.RowsFailed, &l.DurationMs, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
