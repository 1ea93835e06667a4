package dbclient

import (
	"context"
	"fmt"
	"strconv"

	"fedpipeline/internal/domain"
)

// Dialect captures the per-engine differences the loader has to care about.
type Dialect struct {
	Name string

	// Placeholder renders the n-th (1-based) positional parameter.
	Placeholder func(n int) string

	// RowSavepoints wraps every row in its own savepoint. Required on engines
	// where one failed statement aborts the surrounding transaction.
	RowSavepoints bool

	savepoint, rollbackTo, release string
}

func questionMark(int) string { return "?" }
func dollar(n int) string     { return "$" + strconv.Itoa(n) }
func atP(n int) string        { return "@p" + strconv.Itoa(n) }

var (
	DialectSQLServer = Dialect{
		Name:        "sqlserver",
		Placeholder: atP,
		savepoint:   "SAVE TRANSACTION %s",
		rollbackTo:  "ROLLBACK TRANSACTION %s",
	}
	DialectPostgres = Dialect{
		Name:          "postgres",
		Placeholder:   dollar,
		RowSavepoints: true,
		savepoint:     "SAVEPOINT %s",
		rollbackTo:    "ROLLBACK TO SAVEPOINT %s",
		release:       "RELEASE SAVEPOINT %s",
	}
	DialectMySQL = Dialect{
		Name:        "mysql",
		Placeholder: questionMark,
		savepoint:   "SAVEPOINT %s",
		rollbackTo:  "ROLLBACK TO SAVEPOINT %s",
		release:     "RELEASE SAVEPOINT %s",
	}
	DialectSQLite = Dialect{
		Name:        "sqlite",
		Placeholder: questionMark,
		savepoint:   "SAVEPOINT %s",
		rollbackTo:  "ROLLBACK TO SAVEPOINT %s",
		release:     "RELEASE SAVEPOINT %s",
	}
)

// WithRowSavepoints returns a copy of d that isolates each row in a savepoint.
func (d Dialect) WithRowSavepoints() Dialect {
	d.RowSavepoints = true
	return d
}

// Session is one open connection with one open transaction.
// Close must always be called; it rolls back anything not committed.
type Session interface {
	// Exec runs a single parameterized statement inside the transaction.
	Exec(ctx context.Context, query string, args ...any) error

	// Commit commits the transaction.
	Commit() error

	// Close rolls back an uncommitted transaction and releases the connection.
	Close() error
}

// Connector opens destination sessions. Every Open dials a fresh
// connection; nothing is pooled between calls.
type Connector interface {
	Open(ctx context.Context) (Session, error)
	Dialect() Dialect
}

// NewConnector creates a Connector for the given destination.
func NewConnector(conn *domain.DatabaseConnection) (Connector, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLServer:
		return newSQLConnector("sqlserver", pick(conn.DSN, buildSQLServerDSN(conn)), DialectSQLServer), nil
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", pick(conn.DSN, buildPostgresDSN(conn)), DialectPostgres), nil
	case domain.DatabaseDriverPgx:
		return newSQLConnector("pgx", pick(conn.DSN, buildPostgresDSN(conn)), DialectPostgres), nil
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", pick(conn.DSN, buildMySQLDSN(conn)), DialectMySQL), nil
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

func pick(override, built string) string {
	if override != "" {
		return override
	}
	return built
}
