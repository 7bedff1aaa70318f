package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
)

// BuildDSN returns the connection string for a database config. An explicit
// DSN is returned unchanged.
func BuildDSN(d Dialect, cfg config.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Name == "" {
		return "", fmt.Errorf("database name is required to build a %s connection string", d)
	}

	switch d {
	case MySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = hostPort(cfg.Host, cfg.Port, 3306)
		mc.DBName = cfg.Name
		return mc.FormatDSN(), nil

	case Postgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   hostPort(cfg.Host, cfg.Port, 5432),
			Path:   "/" + cfg.Name,
		}
		if cfg.User != "" {
			if cfg.Password != "" {
				u.User = url.UserPassword(cfg.User, cfg.Password)
			} else {
				u.User = url.User(cfg.User)
			}
		}
		return u.String(), nil

	case SQLServer:
		u := url.URL{
			Scheme:   "sqlserver",
			Host:     hostPort(cfg.Host, cfg.Port, 1433),
			RawQuery: url.Values{"database": {cfg.Name}}.Encode(),
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		return u.String(), nil

	case SQLite:
		return cfg.Name, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, d)
}

// Describe extracts the host and database name from a connection string for
// logging. Credentials are never returned.
func Describe(d Dialect, dsn string) (host, database string) {
	switch d {
	case MySQL:
		if mc, err := mysql.ParseDSN(dsn); err == nil {
			return mc.Addr, mc.DBName
		}
	case Postgres:
		if pc, err := pgx.ParseConfig(dsn); err == nil {
			return pc.Host, pc.Database
		}
	case SQLServer:
		if u, err := url.Parse(dsn); err == nil {
			return u.Host, u.Query().Get("database")
		}
	case SQLite:
		return "local", strings.TrimPrefix(dsn, "file:")
	}
	return "", ""
}

func hostPort(host string, port, defaultPort int) string {
	if host == "" {
		host = "localhost"
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
