//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package olap implements the roll-up, drill-down, slice, dice and pivot
// operations over the star schema.
package olap

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Query is one parameterized OLAP statement. SQL uses ? placeholders.
type Query struct {
	Name string
	SQL  string
	Args []any

	// TTL is how long a cached result stays valid. Zero uses the cache
	// default.
	TTL time.Duration
}

// Result is a query result table.
type Result struct {
	Name    string        `json:"name"`
	Columns []string      `json:"columns"`
	Rows    [][]any       `json:"rows"`
	Elapsed time.Duration `json:"elapsed_ns"`
	SQL     string        `json:"sql,omitempty"`
	Args    []any         `json:"args,omitempty"`
	Cached  bool          `json:"cached"`
}

// Executor runs queries.
type Executor interface {
	Execute(ctx context.Context, q Query) (*Result, error)
}

// Empty returns a result with no columns and no rows.
func Empty(name string) *Result {
	return &Result{Name: name, Columns: []string{}, Rows: [][]any{}}
}

// Column returns the index of a column, or -1.
func (r *Result) Column(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i in the named column, or nil.
func (r *Result) Value(i int, column string) any {
	c := r.Column(column)
	if c < 0 || i < 0 || i >= len(r.Rows) {
		return nil
	}
	return r.Rows[i][c]
}

// Float returns the cell at row i in the named column as a number. Cells
// that are not numeric read as 0.
func (r *Result) Float(i int, column string) float64 {
	f, _ := toFloat(r.Value(i, column))
	return f
}

// Strings returns every value of a column formatted as text.
func (r *Result) Strings(column string) []string {
	c := r.Column(column)
	if c < 0 {
		return nil
	}
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, label(row[c]))
	}
	return out
}

// Sum adds up a numeric column.
func (r *Result) Sum(column string) float64 {
	var total float64
	for i := range r.Rows {
		total += r.Float(i, column)
	}
	return total
}

// ElapsedMillis returns the query time in milliseconds.
func (r *Result) ElapsedMillis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func label(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
