package pipeline

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/transform"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
	"github.com/pgEdge/pgedge-salesdw/internal/testutil"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

func newRunner(src, wh *db.DB, cfg config.ETLConfig, opts ...Option) *Runner {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 2
	}
	opts = append([]Option{WithContinents(transform.NewContinentResolver())}, opts...)
	return NewRunner(src, wh, cfg, opts...)
}

func count(t *testing.T, conn *db.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}

func tableReport(t *testing.T, report *Report, table string) TableReport {
	t.Helper()
	for _, tr := range report.Tables {
		if tr.Table == table {
			return tr
		}
	}
	t.Fatalf("Expected a report for %s", table)
	return TableReport{}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)
	m := metrics.New(false)

	report, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}, WithMetrics(m)).Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, StatusSuccess, report.Status)
	assert.False(t, report.Finished.Before(report.Started))

	var tables []string
	for _, tr := range report.Tables {
		tables = append(tables, tr.Table)
	}
	assert.Equal(t, []string{warehouse.DimRider, warehouse.DimUser, warehouse.DimProduct, warehouse.DimDate, warehouse.FactSales}, tables)

	assert.Equal(t, 2, count(t, wh, warehouse.DimRider))
	assert.Equal(t, 3, count(t, wh, warehouse.DimUser))
	assert.Equal(t, 2, count(t, wh, warehouse.DimProduct))
	assert.Equal(t, 2, count(t, wh, warehouse.DimDate))
	assert.Equal(t, 3, count(t, wh, warehouse.FactSales))

	facts := tableReport(t, report, warehouse.FactSales)
	assert.Equal(t, 6, facts.Input)
	assert.EqualValues(t, 3, facts.Loaded)
	assert.Equal(t, map[string]int{
		transform.DropNoCustomer:      1,
		transform.DropDanglingUser:    1,
		transform.DropDanglingProduct: 1,
	}, facts.Dropped)

	products := tableReport(t, report, warehouse.DimProduct)
	assert.Equal(t, 3, products.Input)
	assert.EqualValues(t, 2, products.Loaded)

	var total float64
	require.NoError(t, wh.GetContext(ctx, &total, "SELECT SUM(sales_amount) FROM fact_sales"))
	assert.InDelta(t, 2460.0, total, 1e-9)

	var courier string
	require.NoError(t, wh.GetContext(ctx, &courier, "SELECT courier_name FROM dim_rider WHERE rider_key = 100"))
	assert.Equal(t, "FEDEX", courier)

	var vehicles []string
	require.NoError(t, wh.SelectContext(ctx, &vehicles, "SELECT vehicleType FROM dim_rider ORDER BY rider_key"))
	assert.Equal(t, []string{"Motorcycle", "Bicycle"}, vehicles)

	var continent string
	require.NoError(t, wh.GetContext(ctx, &continent, "SELECT continent FROM dim_user WHERE user_key = 1"))
	assert.Equal(t, "Asia", continent)

	var dateKeys []int
	require.NoError(t, wh.SelectContext(ctx, &dateKeys, "SELECT date_key FROM dim_date ORDER BY date_key"))
	assert.Equal(t, []int{20210102, 20210103}, dateKeys)

	meta, err := db.GetAllMetadata(ctx, wh)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, meta[MetaRunID])
	assert.Equal(t, StatusSuccess, meta[MetaStatus])
	assert.Equal(t, "3", meta[MetaRowPrefix+warehouse.FactSales])
	assert.Equal(t, "2", meta[MetaRowPrefix+warehouse.DimDate])

	n, err := promtestutil.GatherAndCount(m.Registry(), "salesdw_etl_step_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestRunTwice(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	first, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}).Run(ctx)
	require.NoError(t, err)
	second, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}).Run(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 3, count(t, wh, warehouse.FactSales))
	assert.Equal(t, 3, count(t, wh, warehouse.DimUser))

	runID, err := db.GetMetadataValue(ctx, wh, MetaRunID)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, runID)
}

func TestRunSubset(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	_, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}).Run(ctx)
	require.NoError(t, err)

	// Facts alone are checked against the dimensions already loaded
	report, err := newRunner(src, wh, config.ETLConfig{Tables: []string{config.TableSales}}).Run(ctx)
	require.NoError(t, err)

	require.Len(t, report.Tables, 1)
	assert.Equal(t, warehouse.FactSales, report.Tables[0].Table)
	assert.EqualValues(t, 3, report.Tables[0].Loaded)
	assert.Equal(t, 3, count(t, wh, warehouse.FactSales))
	assert.Equal(t, 2, count(t, wh, warehouse.DimDate))

	// Dimension counts from the first run are kept
	rows, err := db.GetMetadataValue(ctx, wh, MetaRowPrefix+warehouse.DimUser)
	require.NoError(t, err)
	assert.Equal(t, "3", rows)
}

func TestRunWithoutDimensions(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	// No dimension tables exist, so no reference check is possible
	report, err := newRunner(src, wh, config.ETLConfig{Tables: []string{config.TableSales}}).Run(ctx)
	require.NoError(t, err)

	facts := tableReport(t, report, warehouse.FactSales)
	assert.EqualValues(t, 5, facts.Loaded)
	assert.Equal(t, map[string]int{transform.DropNoCustomer: 1}, facts.Dropped)
}

func TestRunDateRange(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	cfg := config.ETLConfig{InferCategory: true, DateStart: "2020-12-30", DateEnd: "2021-01-02"}
	report, err := newRunner(src, wh, cfg).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, count(t, wh, warehouse.DimDate))

	facts := tableReport(t, report, warehouse.FactSales)
	assert.EqualValues(t, 2, facts.Loaded)
	assert.Equal(t, 1, facts.Dropped[transform.DropDanglingDate])
}

func TestRunMissingSourceTable(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	_, err := src.ExecContext(ctx, "DROP TABLE orderitems")
	require.NoError(t, err)

	report, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, report.Status)

	assert.True(t, tableReport(t, report, warehouse.FactSales).Skipped)
	assert.True(t, tableReport(t, report, warehouse.DimDate).Skipped)
	assert.Equal(t, 2, count(t, wh, warehouse.DimRider))
	assert.Zero(t, count(t, wh, warehouse.FactSales))
}

func TestRunClearsDimensionWithNoValidRows(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	_, err := newRunner(src, wh, config.ETLConfig{InferCategory: true}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count(t, wh, warehouse.DimProduct))

	_, err = src.ExecContext(ctx, "UPDATE products SET productCode = ' '")
	require.NoError(t, err)

	report, err := newRunner(src, wh, config.ETLConfig{InferCategory: true, Tables: []string{config.TableProducts}}).Run(ctx)
	require.NoError(t, err)

	products := tableReport(t, report, warehouse.DimProduct)
	assert.False(t, products.Skipped)
	assert.Equal(t, 3, products.Dropped[transform.DropMissingCode])
	assert.Zero(t, count(t, wh, warehouse.DimProduct))
}

func TestRunWithIndexes(t *testing.T) {
	ctx := context.Background()
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	report, err := newRunner(src, wh, config.ETLConfig{InferCategory: true, CreateIndexes: true}).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Indexes, len(warehouse.Indexes))

	// Fact indexes survive a rerun; rebuilt dimensions need theirs again
	report, err = newRunner(src, wh, config.ETLConfig{InferCategory: true, CreateIndexes: true}).Run(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ix_dp_category", "ix_dr_courier", "ix_du_city"}, report.Indexes)
}

func TestRunCanceled(t *testing.T) {
	src := testutil.Source(t)
	wh := testutil.OpenMemory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(src, wh, config.ETLConfig{}).Run(ctx)
	require.Error(t, err)
}
