//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs the extract, transform and load steps that rebuild
// the star schema from the source database.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/load"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/source"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/transform"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// Metadata keys written after each run.
const (
	MetaRunID     = "last_run_id"
	MetaStarted   = "last_run_started"
	MetaFinished  = "last_run_finished"
	MetaStatus    = "last_run_status"
	MetaRowPrefix = "rows_"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// TableReport describes one table of a run.
type TableReport struct {
	Table   string         `json:"table"`
	Input   int            `json:"input"`
	Loaded  int64          `json:"loaded"`
	Dropped map[string]int `json:"dropped,omitempty"`
	Skipped bool           `json:"skipped"`
	Error   string         `json:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Status   string        `json:"status"`
	Tables   []TableReport `json:"tables"`
	Indexes  []string      `json:"indexes_created,omitempty"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records step metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithContinents overrides the continent resolver.
func WithContinents(c *transform.ContinentResolver) Option {
	return func(r *Runner) { r.continents = c }
}

// Runner executes ETL runs.
type Runner struct {
	source     *source.Extractor
	warehouse  *db.DB
	loader     *load.Loader
	cfg        config.ETLConfig
	continents *transform.ContinentResolver
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewRunner creates a runner reading from src and writing to wh.
func NewRunner(src, wh *db.DB, cfg config.ETLConfig, opts ...Option) *Runner {
	r := &Runner{
		source:    source.NewExtractor(src),
		warehouse: wh,
		loader:    load.NewLoader(wh, cfg.ChunkSize),
		cfg:       cfg,
		log:       logging.Component("pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.continents == nil {
		r.continents = transform.LoadContinentResolver(cfg.ContinentCSV)
	}
	return r
}

// run holds the state of one execution.
type run struct {
	report    Report
	selected  []string
	refs      transform.References
	facts     []warehouse.FactRow
	factStats transform.Stats
	errs      []error
}

func (rn *run) wants(table string) bool {
	return slices.Contains(rn.selected, table)
}

func (rn *run) fail(tr *TableReport, err error) {
	tr.Error = err.Error()
	rn.errs = append(rn.errs, fmt.Errorf("%s: %w", tr.Table, err))
}

// Run executes one ETL run. Failures of individual tables are joined into
// the returned error while the remaining tables still load; a migration
// failure aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rn := &run{
		report: Report{
			RunID:   uuid.NewString(),
			Started: time.Now().UTC(),
		},
		selected: r.cfg.SelectedTables(),
	}
	r.log.Info().
		Str("run_id", rn.report.RunID).
		Strs("tables", rn.selected).
		Msg("Starting ETL run")

	if err := r.step("migrate", func() error { return warehouse.Migrate(ctx, r.warehouse) }); err != nil {
		return &rn.report, err
	}

	if rn.wants(config.TableRiders) {
		if rows := r.riders(ctx, rn); rows != nil {
			rn.refs.Riders = transform.KeysOf(rows, func(x warehouse.RiderRow) int64 { return x.RiderKey })
		}
	}
	if rn.wants(config.TableUsers) {
		if rows := r.users(ctx, rn); rows != nil {
			rn.refs.Users = transform.KeysOf(rows, func(x warehouse.UserRow) int64 { return x.UserKey })
		}
	}
	if rn.wants(config.TableProducts) {
		if rows := r.products(ctx, rn); rows != nil {
			rn.refs.Products = transform.KeysOf(rows, func(x warehouse.ProductRow) int64 { return x.ProductKey })
		}
	}
	if rn.wants(config.TableSales) {
		r.sales(ctx, rn)
	}
	if rn.wants(config.TableDates) {
		r.dates(ctx, rn)
	}
	if rn.wants(config.TableSales) {
		r.appendFacts(ctx, rn)
	}

	if r.cfg.CreateIndexes {
		var report warehouse.IndexReport
		err := r.step("indexes", func() (err error) {
			report, err = warehouse.CreateIndexes(ctx, r.warehouse)
			return err
		})
		if err != nil {
			rn.errs = append(rn.errs, err)
		}
		rn.report.Indexes = report.Created
	}

	rn.report.Finished = time.Now().UTC()
	rn.report.Status = StatusSuccess
	if len(rn.errs) > 0 {
		rn.report.Status = StatusPartial
	}
	if err := r.saveMetadata(ctx, &rn.report); err != nil {
		rn.errs = append(rn.errs, err)
	}
	r.metrics.MarkRun(rn.report.Finished)

	ev := r.log.Info()
	if len(rn.errs) > 0 {
		ev = r.log.Warn()
	}
	ev.Str("run_id", rn.report.RunID).
		Str("status", rn.report.Status).
		Dur("duration", rn.report.Finished.Sub(rn.report.Started)).
		Msg("ETL run complete")

	return &rn.report, errors.Join(rn.errs...)
}

// step times fn and records it.
func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.metrics.ObserveStep(name, time.Since(start), err)
	if err != nil {
		r.log.Error().Err(err).Str("step", name).Msg("Step failed")
	}
	return err
}

// extract reads one source table. A failed query is logged and the table
// is treated as absent.
func extract[T any](ctx context.Context, r *Runner, table string, fn func(context.Context) ([]T, error)) []T {
	var rows []T
	err := r.step("extract_"+table, func() (err error) {
		rows, err = fn(ctx)
		return err
	})
	if err != nil {
		r.log.Warn().Str("table", table).Msg("Treating source table as absent")
		return nil
	}
	r.metrics.AddRows(table, "extracted", len(rows))
	return rows
}

func (r *Runner) recordTransform(tr *TableReport, stats transform.Stats) {
	stats.Log()
	tr.Input = stats.Input
	if stats.DroppedTotal() > 0 {
		tr.Dropped = stats.Dropped
	}
	r.metrics.AddDropped(stats.Table, stats.Dropped)
}

// replace loads a dimension and reports it. It returns false if the load
// failed.
func (r *Runner) replace(ctx context.Context, rn *run, tr TableReport, table db.Table, rows [][]any) bool {
	var res load.Result
	err := r.step("load_"+table.Name, func() (err error) {
		res, err = r.loader.ReplaceDimension(ctx, table, rows)
		return err
	})
	tr.Loaded = res.Rows
	tr.Skipped = res.Skipped
	if err != nil {
		rn.fail(&tr, err)
	} else {
		r.metrics.AddRows(table.Name, "loaded", int(res.Rows))
	}
	rn.report.Tables = append(rn.report.Tables, tr)
	return err == nil
}

func (r *Runner) riders(ctx context.Context, rn *run) []warehouse.RiderRow {
	records := extract(ctx, r, config.TableRiders, r.source.Riders)

	rows, stats := transform.Riders(records)
	tr := TableReport{Table: warehouse.DimRider}
	r.recordTransform(&tr, stats)
	if !r.replace(ctx, rn, tr, warehouse.RiderTable, warehouse.RowValues(rows)) || rows == nil {
		return nil
	}
	return rows
}

func (r *Runner) users(ctx context.Context, rn *run) []warehouse.UserRow {
	records := extract(ctx, r, config.TableUsers, r.source.Users)

	rows, stats := transform.Users(records, r.continents)
	tr := TableReport{Table: warehouse.DimUser}
	r.recordTransform(&tr, stats)
	if !r.replace(ctx, rn, tr, warehouse.UserTable, warehouse.RowValues(rows)) || rows == nil {
		return nil
	}
	return rows
}

func (r *Runner) products(ctx context.Context, rn *run) []warehouse.ProductRow {
	records := extract(ctx, r, config.TableProducts, r.source.Products)

	rows, stats := transform.Products(records, r.cfg.InferCategory)
	tr := TableReport{Table: warehouse.DimProduct}
	r.recordTransform(&tr, stats)
	if !r.replace(ctx, rn, tr, warehouse.ProductTable, warehouse.RowValues(rows)) || rows == nil {
		return nil
	}
	return rows
}

// sales transforms the fact rows and checks them against the dimensions.
// Dimensions that were not rebuilt in this run are checked against the
// warehouse's current keys.
func (r *Runner) sales(ctx context.Context, rn *run) {
	records := extract(ctx, r, config.TableSales, r.source.Sales)

	facts, stats := transform.Facts(records)
	if facts == nil {
		rn.factStats = stats
		stats.Log()
		return
	}

	for _, k := range []struct {
		set    *transform.KeySet
		table  string
		column string
	}{
		{&rn.refs.Riders, warehouse.DimRider, "rider_key"},
		{&rn.refs.Users, warehouse.DimUser, "user_key"},
		{&rn.refs.Products, warehouse.DimProduct, "product_key"},
	} {
		if *k.set != nil {
			continue
		}
		keys, err := r.loader.ExistingKeys(ctx, k.table, k.column)
		if err != nil {
			r.log.Warn().Err(err).Str("table", k.table).Msg("Failed to read existing keys, skipping check")
			continue
		}
		*k.set = keys
	}

	if start, end, _ := r.cfg.DateRange(); !start.IsZero() && rn.wants(config.TableDates) {
		rn.refs.Dates = transform.KeysOf(transform.DateDimension(transform.DateRange(start, end)),
			func(d warehouse.DateRow) int64 { return int64(d.DateKey) })
	} else if !rn.wants(config.TableDates) {
		keys, err := r.loader.ExistingKeys(ctx, warehouse.DimDate, "date_key")
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to read existing date keys, skipping check")
		}
		rn.refs.Dates = keys
	}

	filtered, refStats := transform.FilterReferences(facts, rn.refs)
	rn.facts = filtered
	rn.factStats = stats.Merge(refStats)
	rn.factStats.Log()
	r.metrics.AddDropped(warehouse.FactSales, rn.factStats.Dropped)
}

// dates builds dim_date over the configured range, or the span of the fact
// rows. Without facts in this run, the span of the loaded fact table is used.
func (r *Runner) dates(ctx context.Context, rn *run) {
	start, end, _ := r.cfg.DateRange()
	if start.IsZero() {
		var lo, hi int
		if rn.facts != nil {
			lo, hi = transform.DateSpan(rn.facts)
		} else {
			var err error
			if lo, hi, err = r.factDateSpan(ctx); err != nil {
				r.log.Warn().Err(err).Msg("Failed to read fact date span")
			}
		}
		start, _ = transform.DateFromKey(lo)
		end, _ = transform.DateFromKey(hi)
	}

	var rows []warehouse.DateRow
	if !start.IsZero() && !end.IsZero() {
		rows = transform.DateDimension(transform.DateRange(start, end))
	}
	tr := TableReport{Table: warehouse.DimDate, Input: len(rows)}
	r.replace(ctx, rn, tr, warehouse.DateTable, warehouse.RowValues(rows))
}

func (r *Runner) factDateSpan(ctx context.Context) (int, int, error) {
	var span struct {
		Lo *int `db:"lo"`
		Hi *int `db:"hi"`
	}
	if err := r.warehouse.GetContext(ctx, &span, "SELECT MIN(date_key) AS lo, MAX(date_key) AS hi FROM "+warehouse.FactSales); err != nil {
		return 0, 0, fmt.Errorf("failed to read fact date span: %w", err)
	}
	if span.Lo == nil || span.Hi == nil {
		return 0, 0, nil
	}
	return *span.Lo, *span.Hi, nil
}

func (r *Runner) appendFacts(ctx context.Context, rn *run) {
	tr := TableReport{Table: warehouse.FactSales, Input: rn.factStats.Input}
	if rn.factStats.DroppedTotal() > 0 {
		tr.Dropped = rn.factStats.Dropped
	}

	var res load.Result
	err := r.step("load_"+warehouse.FactSales, func() (err error) {
		res, err = r.loader.AppendFacts(ctx, rn.facts)
		return err
	})
	tr.Loaded = res.Rows
	tr.Skipped = res.Skipped
	if err != nil {
		rn.fail(&tr, err)
	} else {
		r.metrics.AddRows(warehouse.FactSales, "loaded", int(res.Rows))
	}
	rn.report.Tables = append(rn.report.Tables, tr)
}

func (r *Runner) saveMetadata(ctx context.Context, report *Report) error {
	entries := map[string]string{
		MetaRunID:    report.RunID,
		MetaStarted:  report.Started.Format(time.RFC3339),
		MetaFinished: report.Finished.Format(time.RFC3339),
		MetaStatus:   report.Status,
	}
	for _, t := range report.Tables {
		if !t.Skipped {
			entries[MetaRowPrefix+t.Table] = strconv.FormatInt(t.Loaded, 10)
		}
	}
	return r.step("metadata", func() error {
		return db.SaveMetadata(ctx, r.warehouse, entries)
	})
}
