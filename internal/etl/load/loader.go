//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package load writes transformed rows into the warehouse. Dimensions are
// replaced wholesale through a staging table; facts are truncated and
// appended in chunks. Both run inside a single transaction.
package load

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/transform"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// DefaultChunkSize is the number of fact rows appended per chunk.
const DefaultChunkSize = 50000

const stagingSuffix = "_staging"

// Result describes one completed write.
type Result struct {
	Table    string
	Rows     int64
	Skipped  bool
	Duration time.Duration
}

// Loader writes star-schema tables.
type Loader struct {
	conn      *db.DB
	chunkSize int
	batchSize int
	log       zerolog.Logger
}

// NewLoader creates a loader. A chunkSize below 1 selects DefaultChunkSize.
func NewLoader(conn *db.DB, chunkSize int) *Loader {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Loader{
		conn:      conn,
		chunkSize: chunkSize,
		batchSize: db.DefaultBatchConfig().BatchSize,
		log:       logging.Component("load"),
	}
}

// ChunkSize returns the fact append chunk size.
func (l *Loader) ChunkSize() int {
	return l.chunkSize
}

// ReplaceDimension swaps the contents of a dimension table for rows. The rows
// go into a staging table first; the live table is then dropped and the
// staging table renamed over it. A nil rows slice means the source table was
// absent and nothing is written.
func (l *Loader) ReplaceDimension(ctx context.Context, table db.Table, rows [][]any) (Result, error) {
	res := Result{Table: table.Name}
	if rows == nil {
		l.log.Warn().Str("table", table.Name).Msg("No rows to load, skipping table")
		res.Skipped = true
		return res, nil
	}

	start := time.Now()
	staging := table.Name + stagingSuffix
	d := l.conn.Dialect

	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, d.DropTableSQL(staging)); err != nil {
			return fmt.Errorf("failed to drop stale %s: %w", staging, err)
		}
		if _, err := tx.ExecContext(ctx, table.CreateSQL(d, staging)); err != nil {
			return fmt.Errorf("failed to create %s: %w", staging, err)
		}

		n, err := l.insertChunks(ctx, tx, staging, table.ColumnNames(), rows)
		if err != nil {
			return err
		}
		res.Rows = n

		if _, err := tx.ExecContext(ctx, d.DropTableSQL(table.Name)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table.Name, err)
		}
		if _, err := tx.ExecContext(ctx, d.RenameTableSQL(staging, table.Name)); err != nil {
			return fmt.Errorf("failed to rename %s to %s: %w", staging, table.Name, err)
		}
		return nil
	})
	if err != nil {
		// MySQL commits DDL implicitly, so the staging table can outlive
		// the rollback.
		if _, dropErr := l.conn.ExecContext(context.WithoutCancel(ctx), d.DropTableSQL(staging)); dropErr != nil {
			l.log.Warn().Err(dropErr).Str("table", staging).Msg("Failed to drop staging table")
		}
		return res, err
	}

	res.Duration = time.Since(start)
	l.log.Info().
		Str("table", table.Name).
		Int64("rows", res.Rows).
		Dur("duration", res.Duration).
		Msg("Replaced dimension")
	return res, nil
}

// AppendFacts empties fact_sales and appends rows in chunks. The table
// itself is owned by the migrations and never dropped. A nil rows slice
// leaves the table untouched.
func (l *Loader) AppendFacts(ctx context.Context, rows []warehouse.FactRow) (Result, error) {
	res := Result{Table: warehouse.FactSales}
	if rows == nil {
		l.log.Warn().Str("table", warehouse.FactSales).Msg("No rows to load, skipping table")
		res.Skipped = true
		return res, nil
	}

	start := time.Now()
	err := l.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, l.conn.Dialect.TruncateSQL(warehouse.FactSales)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", warehouse.FactSales, err)
		}
		n, err := l.insertChunks(ctx, tx, warehouse.FactSales, warehouse.FactTable.ColumnNames(), warehouse.RowValues(rows))
		res.Rows = n
		return err
	})
	if err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	l.log.Info().
		Str("table", warehouse.FactSales).
		Int64("rows", res.Rows).
		Int("chunk_size", l.chunkSize).
		Dur("duration", res.Duration).
		Msg("Appended facts")
	return res, nil
}

// insertChunks writes rows chunkSize at a time, checking for cancellation
// between chunks.
func (l *Loader) insertChunks(ctx context.Context, tx *sqlx.Tx, table string, columns []string, rows [][]any) (int64, error) {
	progress := db.NewProgressReporter(table, int64(len(rows)), int64(l.chunkSize))
	for start := 0; start < len(rows); start += l.chunkSize {
		if err := ctx.Err(); err != nil {
			return progress.Rows(), fmt.Errorf("load of %s canceled: %w", table, err)
		}
		end := min(start+l.chunkSize, len(rows))
		n, err := db.InsertRows(ctx, tx, l.conn.Dialect, table, columns, rows[start:end], l.batchSize)
		progress.Update(n)
		if err != nil {
			return progress.Rows(), err
		}
	}
	progress.Done()
	return progress.Rows(), nil
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (l *Loader) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := l.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.log.Warn().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ExistingKeys reads the current values of a key column. A missing table
// yields a nil set, which matches every key.
func (l *Loader) ExistingKeys(ctx context.Context, table, column string) (transform.KeySet, error) {
	exists, err := db.TableExists(ctx, l.conn, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var values []int64
	query := fmt.Sprintf("SELECT %s FROM %s", column, table)
	if err := l.conn.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to read keys from %s: %w", table, err)
	}
	keys := make(transform.KeySet, len(values))
	for _, v := range values {
		keys[v] = struct{}{}
	}
	return keys, nil
}
