package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/etl/pipeline"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
)

var (
	etlTables          []string
	etlChunkSize       int
	etlContinentCSV    string
	etlNoInferCategory bool
	etlDateStart       string
	etlDateEnd         string
	etlCreateIndexes   bool
	etlPushgateway     string
	etlJSON            bool
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Extract, transform and load the warehouse",
}

var etlRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the star schema from the source database",
	Long: `Extract users, riders, products and order lines from the source
database, clean and conform them, and load the warehouse. Dimensions are
replaced in full and fact_sales is truncated and reloaded in chunks.

Rows that cannot be loaded (missing customer, unknown product, unparseable
delivery date) are dropped and counted per reason.

Example:
  pgedge-salesdw etl run --source-dsn "root:pw@tcp(localhost:3306)/shop" \
      --warehouse-dsn "root:pw@tcp(localhost:3306)/salesdw"
  pgedge-salesdw etl run --tables users,sales --create-indexes`,
	RunE: runETL,
}

func init() {
	etlRunCmd.Flags().StringSliceVar(&etlTables, "tables", nil,
		"tables to load (riders, users, products, dates, sales)")
	etlRunCmd.Flags().IntVar(&etlChunkSize, "chunk-size", 0,
		"fact rows appended per chunk")
	etlRunCmd.Flags().StringVar(&etlContinentCSV, "continent-csv", "",
		"country,continent override file")
	etlRunCmd.Flags().BoolVar(&etlNoInferCategory, "no-infer-category", false,
		"keep source product categories instead of inferring from names")
	etlRunCmd.Flags().StringVar(&etlDateStart, "date-start", "",
		"first dim_date day (YYYY-MM-DD)")
	etlRunCmd.Flags().StringVar(&etlDateEnd, "date-end", "",
		"last dim_date day (YYYY-MM-DD)")
	etlRunCmd.Flags().BoolVar(&etlCreateIndexes, "create-indexes", false,
		"create warehouse indexes after loading")
	etlRunCmd.Flags().StringVar(&etlPushgateway, "pushgateway", "",
		"Prometheus Pushgateway URL for run metrics")
	etlRunCmd.Flags().BoolVar(&etlJSON, "json", false,
		"print the run report as JSON")

	etlCmd.AddCommand(etlRunCmd)
}

func runETL(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if len(etlTables) > 0 {
		cfg.ETL.Tables = etlTables
	}
	if etlChunkSize > 0 {
		cfg.ETL.ChunkSize = etlChunkSize
	}
	if etlContinentCSV != "" {
		cfg.ETL.ContinentCSV = etlContinentCSV
	}
	if etlNoInferCategory {
		cfg.ETL.InferCategory = false
	}
	if etlDateStart != "" {
		cfg.ETL.DateStart = etlDateStart
	}
	if etlDateEnd != "" {
		cfg.ETL.DateEnd = etlDateEnd
	}
	if etlCreateIndexes {
		cfg.ETL.CreateIndexes = true
	}
	if etlPushgateway != "" {
		cfg.Metrics.PushgatewayURL = etlPushgateway
	}

	// Validate configuration
	if err := cfg.ValidateETL(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	src, err := connectSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	wh, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	m := metrics.New(false)
	runner := pipeline.NewRunner(src, wh, cfg.ETL, pipeline.WithMetrics(m))
	report, runErr := runner.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, pushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logging.Warn().Err(err).Msg("Failed to push ETL metrics")
		}
		pushCancel()
	}

	if report != nil {
		if etlJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(cmd.OutOrStdout(), report)
		}
	}
	if runErr != nil {
		return fmt.Errorf("ETL run %s: %w", report.Status, runErr)
	}
	return nil
}

func printReport(out io.Writer, report *pipeline.Report) {
	fmt.Fprintf(out, "Run %s: %s in %s\n\n", report.RunID, report.Status,
		report.Finished.Sub(report.Started).Round(time.Millisecond))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tINPUT\tLOADED\tDROPPED\tNOTE")
	for _, t := range report.Tables {
		note := t.Error
		if t.Skipped {
			note = "skipped"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", t.Table, t.Input, t.Loaded, formatDrops(t.Dropped), note)
	}
	tw.Flush()

	if len(report.Indexes) > 0 {
		fmt.Fprintf(out, "\nCreated indexes: %s\n", strings.Join(report.Indexes, ", "))
	}
}

func formatDrops(dropped map[string]int) string {
	if len(dropped) == 0 {
		return "-"
	}
	reasons := make([]string, 0, len(dropped))
	for reason := range dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, dropped[reason])
	}
	return strings.Join(parts, ",")
}
