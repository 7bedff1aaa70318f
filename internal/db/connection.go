// Package db provides database connection management for pgedge-salesdw.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers for the supported dialects
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB is a connection pool bound to its dialect.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns default connection pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Connect opens and verifies a connection pool for the given configuration.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(dialect, cfg)
	if err != nil {
		return nil, err
	}
	return Open(ctx, dialect, dsn)
}

// Open opens and verifies a connection pool for a dialect and DSN.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	host, database := Describe(dialect, dsn)

	logging.Debug().
		Str("dialect", string(dialect)).
		Str("host", host).
		Str("database", database).
		Msg("Connecting to database")

	conn, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pool := DefaultPoolConfig()
	if dialect == SQLite {
		// A second connection would see a different in-memory database
		// and SQLite serializes writers anyway.
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxLifetime = 0
		pool.ConnMaxIdleTime = 0
	}
	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	// Verify connection
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("dialect", string(dialect)).
		Str("host", host).
		Str("database", database).
		Msg("Connected to database")

	return &DB{DB: conn, Dialect: dialect}, nil
}

// Wrap binds an existing sqlx handle to a dialect.
func Wrap(conn *sqlx.DB, dialect Dialect) *DB {
	return &DB{DB: conn, Dialect: dialect}
}
