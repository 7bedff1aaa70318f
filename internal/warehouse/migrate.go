package warehouse

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// goose keeps its configuration in package globals
var gooseMu sync.Mutex

// zerologGooseLogger adapts zerolog to the goose.Logger interface.
type zerologGooseLogger struct {
	log zerolog.Logger
}

func (l *zerologGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *zerologGooseLogger) Printf(format string, v ...any) {
	l.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func setupGoose(d db.Dialect) error {
	goose.SetLogger(&zerologGooseLogger{log: logging.Component("migrate")})
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(d.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies all pending warehouse migrations.
func Migrate(ctx context.Context, conn *db.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	logging.Info().Str("dialect", string(conn.Dialect)).Msg("Running warehouse migrations")

	if err := setupGoose(conn.Dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, conn.DB.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Info().Msg("Warehouse migrations complete")
	return nil
}

// MigrationStatus logs the state of every migration.
func MigrationStatus(ctx context.Context, conn *db.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(conn.Dialect); err != nil {
		return err
	}
	return goose.StatusContext(ctx, conn.DB.DB, migrationsDir)
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(ctx context.Context, conn *db.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(conn.Dialect); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, conn.DB.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}
