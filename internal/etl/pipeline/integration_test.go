//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration

// Integration tests for the ETL pipeline.
// Run with: go test -tags=integration ./internal/etl/pipeline/...
// Requires PostgreSQL to be available.
// Set PGEDGE_TEST_CONN environment variable to override connection string.

package pipeline_test

import (
	"context"
	"testing"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/pipeline"
	"github.com/pgEdge/pgedge-salesdw/internal/seed"
	"github.com/pgEdge/pgedge-salesdw/internal/testutil"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// TestPostgresPipeline seeds a Postgres source and loads a Postgres
// warehouse end-to-end.
func TestPostgresPipeline(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	src := testutil.CreateTestDB(t, baseConnStr, "source")
	wh := testutil.CreateTestDB(t, baseConnStr, "warehouse")
	ctx := context.Background()

	t.Run("Seed", func(t *testing.T) {
		cfg := config.SeedConfig{
			Users: 50, Riders: 10, Couriers: 4, Products: 30, Orders: 200,
			Seed: 7, DirtyRatio: 0.1,
		}
		summary, err := seed.NewGenerator(src, cfg).Generate(ctx)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if summary[seed.Orders] != 200 {
			t.Errorf("Expected 200 orders, got %d", summary[seed.Orders])
		}
	})

	var report *pipeline.Report
	t.Run("Run", func(t *testing.T) {
		var err error
		cfg := config.ETLConfig{ChunkSize: 100, InferCategory: true, CreateIndexes: true}
		report, err = pipeline.NewRunner(src, wh, cfg).Run(ctx)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Status != pipeline.StatusSuccess {
			t.Errorf("Expected status %s, got %s", pipeline.StatusSuccess, report.Status)
		}
	})

	t.Run("Loaded", func(t *testing.T) {
		for _, tr := range report.Tables {
			var n int64
			if err := wh.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+tr.Table); err != nil {
				t.Fatalf("Failed to count %s: %v", tr.Table, err)
			}
			if n != tr.Loaded {
				t.Errorf("Expected %d rows in %s, got %d", tr.Loaded, tr.Table, n)
			}
		}

		var orphans int
		err := wh.GetContext(ctx, &orphans, `
            SELECT COUNT(*) FROM fact_sales f
            LEFT JOIN dim_date d ON f.date_key = d.date_key
            WHERE d.date_key IS NULL`)
		if err != nil {
			t.Fatalf("Failed to check date keys: %v", err)
		}
		if orphans != 0 {
			t.Errorf("Expected every fact to have a date, got %d orphans", orphans)
		}
	})

	t.Run("Indexes", func(t *testing.T) {
		indexes, err := warehouse.ListIndexes(ctx, wh)
		if err != nil {
			t.Fatalf("ListIndexes failed: %v", err)
		}
		if len(indexes) < len(warehouse.Indexes) {
			t.Errorf("Expected at least %d indexes, got %d", len(warehouse.Indexes), len(indexes))
		}
	})

	t.Run("Metadata", func(t *testing.T) {
		runID, err := db.GetMetadataValue(ctx, wh, pipeline.MetaRunID)
		if err != nil {
			t.Fatalf("Failed to read metadata: %v", err)
		}
		if runID != report.RunID {
			t.Errorf("Expected run id %s, got %s", report.RunID, runID)
		}
	})
}
