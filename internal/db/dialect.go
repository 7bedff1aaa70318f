package db

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDialect is returned for unknown driver names.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// Dialect identifies a supported SQL database.
type Dialect string

// Supported dialects.
const (
	MySQL     Dialect = "mysql"
	Postgres  Dialect = "postgres"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{MySQL, Postgres, SQLite, SQLServer}

// ParseDialect maps a configured driver name (or common alias) to a Dialect.
// An empty name selects MySQL.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return "mysql"
	}
}

// GooseDialect returns the dialect name understood by goose.
func (d Dialect) GooseDialect() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite3"
	case SQLServer:
		return "mssql"
	default:
		return "mysql"
	}
}

// MaxParams is the largest number of bind parameters one statement may carry.
func (d Dialect) MaxParams() int {
	switch d {
	case SQLite:
		return 32766
	case SQLServer:
		return 2100
	default:
		return 65535
	}
}

// TruncateSQL empties a table inside a transaction. MySQL's TRUNCATE is an
// implicit commit and SQLite has none, so both use DELETE.
func (d Dialect) TruncateSQL(table string) string {
	switch d {
	case Postgres, SQLServer:
		return "TRUNCATE TABLE " + table
	default:
		return "DELETE FROM " + table
	}
}

// DropTableSQL drops a table if it exists.
func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

// RenameTableSQL renames a table.
func (d Dialect) RenameTableSQL(from, to string) string {
	switch d {
	case MySQL:
		return fmt.Sprintf("RENAME TABLE %s TO %s", from, to)
	case SQLServer:
		return fmt.Sprintf("EXEC sp_rename '%s', '%s'", from, to)
	default:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", from, to)
	}
}

// ExplainPrefix returns the statement prefix that yields a query plan, or ""
// when the dialect has no plain-SQL EXPLAIN.
func (d Dialect) ExplainPrefix() string {
	switch d {
	case MySQL, Postgres:
		return "EXPLAIN "
	case SQLite:
		return "EXPLAIN QUERY PLAN "
	default:
		return ""
	}
}
