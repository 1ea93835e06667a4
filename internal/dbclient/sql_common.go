package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/goccy/go-json"
)

// sqlConnector is the shared implementation for every database/sql driver.
type sqlConnector struct {
	driverName string
	dsn        string
	dialect    Dialect
}

func newSQLConnector(driverName, dsn string, dialect Dialect) *sqlConnector {
	return &sqlConnector{driverName: driverName, dsn: dsn, dialect: dialect}
}

func (c *sqlConnector) Dialect() Dialect { return c.dialect }

// Open dials a dedicated connection and begins a transaction on it.
func (c *sqlConnector) Open(ctx context.Context) (Session, error) {
	db, err := sql.Open(c.driverName, c.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.driverName, err)
	}
	// One batch, one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", c.driverName, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &sqlSession{db: db, tx: tx, dialect: c.dialect}, nil
}

type sqlSession struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect Dialect
	seq     atomic.Int64
}

func (s *sqlSession) Exec(ctx context.Context, query string, args ...any) error {
	bound := bindArgs(args)
	if !s.dialect.RowSavepoints {
		_, err := s.tx.ExecContext(ctx, query, bound...)
		return err
	}

	sp := fmt.Sprintf("row_%d", s.seq.Add(1))
	if _, err := s.tx.ExecContext(ctx, fmt.Sprintf(s.dialect.savepoint, sp)); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if _, err := s.tx.ExecContext(ctx, query, bound...); err != nil {
		if _, rbErr := s.tx.ExecContext(ctx, fmt.Sprintf(s.dialect.rollbackTo, sp)); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}
	if s.dialect.release != "" {
		if _, err := s.tx.ExecContext(ctx, fmt.Sprintf(s.dialect.release, sp)); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
	}
	return nil
}

func (s *sqlSession) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqlSession) Close() error {
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	_ = s.tx.Rollback()
	return s.db.Close()
}

// number is satisfied by json.Number from both encoding/json and go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// bindArgs converts decoded API values into something every driver accepts.
// Numbers keep integer precision; nested objects and arrays are stored as JSON text.
func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = bindValue(v)
	}
	return out
}

func bindValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64, []byte:
		return val
	case number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return val
	}
}
