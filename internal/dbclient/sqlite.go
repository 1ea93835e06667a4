package dbclient

import (
	"fedpipeline/internal/domain"

	_ "modernc.org/sqlite"
)

// newSQLiteConnector creates a connector for a SQLite destination file.
func newSQLiteConnector(conn *domain.DatabaseConnection) *sqlConnector {
	dsn := conn.DSN
	if dsn == "" {
		dsn = SQLiteDSN(conn.Path)
	}
	return newSQLConnector("sqlite", dsn, DialectSQLite)
}

// SQLiteDSN returns a modernc DSN with a busy timeout and foreign keys enforced.
func SQLiteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
