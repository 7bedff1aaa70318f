package olap

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
)

// DBExecutor runs queries against the warehouse and times them.
type DBExecutor struct {
	conn    *db.DB
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewDBExecutor creates an executor. A positive timeout bounds every query.
// m may be nil.
func NewDBExecutor(conn *db.DB, timeout time.Duration, m *metrics.Metrics) *DBExecutor {
	return &DBExecutor{
		conn:    conn,
		timeout: timeout,
		metrics: m,
		log:     logging.Component("olap"),
	}
}

// Dialect returns the warehouse dialect.
func (e *DBExecutor) Dialect() db.Dialect {
	return e.conn.Dialect
}

// Execute runs q and returns its rows with the elapsed wall-clock time.
func (e *DBExecutor) Execute(ctx context.Context, q Query) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.query(ctx, q)
	elapsed := time.Since(start)
	e.metrics.ObserveQuery(q.Name, elapsed, err)

	if err != nil {
		e.log.Error().Err(err).Str("query", q.Name).Msg("Query failed")
		return nil, fmt.Errorf("failed to run %s: %w", q.Name, err)
	}
	res.Elapsed = elapsed

	e.log.Debug().
		Str("query", q.Name).
		Int("rows", len(res.Rows)).
		Dur("elapsed", elapsed).
		Msg("Query complete")
	return res, nil
}

func (e *DBExecutor) query(ctx context.Context, q Query) (*Result, error) {
	rows, err := e.conn.QueryxContext(ctx, e.conn.Rebind(q.SQL), q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:    q.Name,
		Columns: columns,
		Rows:    [][]any{},
		SQL:     q.SQL,
		Args:    q.Args,
	}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalize(v, types[i])
		}
		res.Rows = append(res.Rows, values)
	}
	return res, rows.Err()
}

// normalize turns driver values into strings, int64 and float64 so results
// look the same on every dialect.
func normalize(v any, ct *sql.ColumnType) any {
	switch x := v.(type) {
	case []byte:
		return normalizeText(string(x), ct)
	case string:
		return normalizeText(x, ct)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// normalizeText parses numbers that drivers hand back as text, such as
// MySQL and SQL Server DECIMAL or Postgres NUMERIC.
func normalizeText(s string, ct *sql.ColumnType) any {
	if ct == nil || !isNumericType(ct.DatabaseTypeName()) {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

var numericTypes = map[string]bool{
	"TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "INT": true, "INTEGER": true, "BIGINT": true,
	"INT2": true, "INT4": true, "INT8": true,
	"DECIMAL": true, "NEWDECIMAL": true, "NUMERIC": true, "MONEY": true,
	"FLOAT": true, "FLOAT4": true, "FLOAT8": true, "DOUBLE": true, "REAL": true,
}

func isNumericType(name string) bool {
	return numericTypes[strings.TrimPrefix(strings.ToUpper(name), "UNSIGNED ")]
}
