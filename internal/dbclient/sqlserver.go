package dbclient

import (
	"net/url"
	"strconv"

	"fedpipeline/internal/domain"

	_ "github.com/microsoft/go-mssqldb"
)

// buildSQLServerDSN constructs a sqlserver:// URL. A named instance replaces
// the port, matching how SQL Server Browser resolves it.
func buildSQLServerDSN(conn *domain.DatabaseConnection) string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(conn.Username, conn.Password),
		Host:   conn.Host,
	}
	if conn.Instance != "" {
		u.Path = conn.Instance
	} else if conn.Port != 0 {
		u.Host = conn.Host + ":" + strconv.Itoa(conn.Port)
	}

	q := url.Values{}
	q.Set("database", conn.Database)
	switch conn.SSLMode {
	case "disable":
		q.Set("encrypt", "disable")
	case "require":
		q.Set("encrypt", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
