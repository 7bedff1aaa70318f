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
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// Execer is satisfied by *sqlx.DB and *sqlx.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	sqlx.QueryerContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// BatchInsertConfig configures batch insert behavior.
type BatchInsertConfig struct {
	// BatchSize is the number of rows per INSERT statement. It is lowered
	// automatically to respect the dialect's bind-parameter limit.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch insert configuration.
func DefaultBatchConfig() BatchInsertConfig {
	return BatchInsertConfig{
		BatchSize:        1000,
		ProgressInterval: 100000,
	}
}

// RowsPerStatement returns how many rows of the given width fit in one
// multi-row INSERT for the dialect.
func RowsPerStatement(d Dialect, columns, batchSize int) int {
	if columns < 1 {
		return 0
	}
	n := d.MaxParams() / columns
	if d == SQLServer {
		// Table value constructors are capped at 1000 rows
		n = min(n, 1000)
	}
	if batchSize > 0 {
		n = min(n, batchSize)
	}
	return max(n, 1)
}

// InsertRows writes rows into table with multi-row INSERT statements and
// returns the number of rows inserted. Every row must have one value per
// column.
func InsertRows(ctx context.Context, ex Execer, d Dialect, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	perStmt := RowsPerStatement(d, len(columns), batchSize)
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	// Full-size statements share one rebound query string
	fullStmt := ""
	var inserted int64

	for start := 0; start < len(rows); start += perStmt {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := min(start+perStmt, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		for i, row := range batch {
			if len(row) != len(columns) {
				return inserted, fmt.Errorf("row %d for %s has %d values, expected %d",
					start+i, table, len(row), len(columns))
			}
			args = append(args, row...)
		}

		var query string
		if len(batch) == perStmt && fullStmt != "" {
			query = fullStmt
		} else {
			query = ex.Rebind(prefix + strings.TrimSuffix(strings.Repeat(tuple+", ", len(batch)), ", "))
			if len(batch) == perStmt {
				fullStmt = query
			}
		}

		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return inserted, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		inserted += int64(len(batch))
	}

	return inserted, nil
}

// ProgressReporter tracks and reports row progress for long writes.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = DefaultBatchConfig().ProgressInterval
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if an interval boundary was crossed.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := 100.0
		if p.totalRows > 0 {
			pct = float64(p.currentRow) / float64(p.totalRows) * 100
		}
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Writing rows")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}
