//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// MetadataTable holds key/value facts about the last ETL run. It is created
// by the warehouse migrations.
const MetadataTable = "etl_metadata"

// ErrNoMetadata is returned when a metadata key has never been written.
var ErrNoMetadata = errors.New("metadata key not found")

// SaveMetadata writes metadata entries in one transaction. Existing keys are
// replaced.
func SaveMetadata(ctx context.Context, conn *DB, entries map[string]string) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC().Format(time.RFC3339)
	del := tx.Rebind("DELETE FROM " + MetadataTable + " WHERE meta_key = ?")
	ins := tx.Rebind("INSERT INTO " + MetadataTable + " (meta_key, meta_value, updated_at) VALUES (?, ?, ?)")

	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, del, key); err != nil {
			return fmt.Errorf("failed to clear metadata %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, ins, key, value, now); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}

	logging.Debug().
		Int("keys", len(entries)).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, conn *DB, key string) (string, error) {
	var value string
	err := conn.GetContext(ctx, &value,
		conn.Rebind("SELECT meta_value FROM "+MetadataTable+" WHERE meta_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNoMetadata, key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, conn *DB) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"meta_key"`
		Value string `db:"meta_value"`
	}
	if err := conn.SelectContext(ctx, &rows, "SELECT meta_key, meta_value FROM "+MetadataTable); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(rows))
	for _, r := range rows {
		metadata[r.Key] = r.Value
	}
	return metadata, nil
}

// DropMetadata removes every metadata entry.
func DropMetadata(ctx context.Context, conn *DB) error {
	_, err := conn.ExecContext(ctx, "DELETE FROM "+MetadataTable)
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, conn *DB) (bool, error) {
	return TableExists(ctx, conn, MetadataTable)
}

// TableExists reports whether a table exists in the connected database.
func TableExists(ctx context.Context, conn *DB, table string) (bool, error) {
	var query string
	switch conn.Dialect {
	case SQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case MySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case SQLServer:
		query = "SELECT COUNT(*) FROM sys.tables WHERE name = ?"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	}

	var n int
	if err := conn.GetContext(ctx, &n, conn.Rebind(query), table); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return n > 0, nil
}
