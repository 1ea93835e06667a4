package domain

// DatabaseDriver represents the type of database engine rows are loaded into.
type DatabaseDriver string

const (
	DatabaseDriverSQLServer DatabaseDriver = "sqlserver"
	DatabaseDriverPostgres  DatabaseDriver = "postgres"
	DatabaseDriverPgx       DatabaseDriver = "pgx"
	DatabaseDriverMySQL     DatabaseDriver = "mysql"
	DatabaseDriverSQLite    DatabaseDriver = "sqlite"
)

// DatabaseConnection holds everything needed to reach the destination database.
// When DSN is set it is used verbatim and the discrete fields are ignored.
type DatabaseConnection struct {
	Driver   DatabaseDriver `json:"driver"`
	Host     string         `json:"host"`
	Port     int            `json:"port"`     // 0 = driver default
	Instance string         `json:"instance"` // sqlserver named instance, e.g. SQLEXPRESS
	Database string         `json:"database"`
	Username string         `json:"username"`
	Password string         `json:"-"`
	SSLMode  string         `json:"sslMode"`
	Path     string         `json:"path"` // sqlite file
	DSN      string         `json:"-"`
}
