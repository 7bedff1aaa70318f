package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/pipeline"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

var (
	migrateStatus bool
	statusReset   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply warehouse schema migrations",
	Long: `Apply the versioned warehouse migrations that create fact_sales and
etl_metadata. Dimension tables are created by the ETL itself.`,
	RunE: runMigrate,
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Manage warehouse indexes",
}

var indexesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the recommended warehouse indexes",
	RunE:  runIndexesCreate,
}

var indexesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "List the indexes present on the warehouse tables",
	RunE:  runIndexesCheck,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded ETL run",
	Long: `Print the metadata recorded by the last ETL run. With --reset the
metadata is cleared instead; the warehouse tables are left untouched.`,
	RunE: runStatus,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false,
		"print migration status instead of migrating")
	statusCmd.Flags().BoolVar(&statusReset, "reset", false,
		"clear the recorded run metadata")

	indexesCmd.AddCommand(indexesCreateCmd)
	indexesCmd.AddCommand(indexesCheckCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if migrateStatus {
		return warehouse.MigrationStatus(ctx, conn)
	}
	if err := warehouse.Migrate(ctx, conn); err != nil {
		return err
	}
	v, err := warehouse.SchemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	cmd.Printf("Warehouse schema at version %d\n", v)
	return nil
}

func runIndexesCreate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	report, err := warehouse.CreateIndexes(ctx, conn)
	if err != nil {
		return err
	}
	logging.Info().
		Strs("created", report.Created).
		Strs("skipped", report.Skipped).
		Msg("Index creation complete")
	cmd.Printf("Created %d indexes, skipped %d\n", len(report.Created), len(report.Skipped))
	return nil
}

func runIndexesCheck(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	present, err := warehouse.ListIndexes(ctx, conn)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(present))
	for _, ix := range present {
		have[strings.ToLower(ix.Name)] = true
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTABLE\tCOLUMNS\tSTATUS")
	missing := 0
	for _, ix := range warehouse.Indexes {
		status := "present"
		if !have[strings.ToLower(ix.Name)] {
			status = "missing"
			missing++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ix.Name, ix.Table, strings.Join(ix.Columns, ", "), status)
	}
	tw.Flush()

	if missing > 0 {
		cmd.Printf("\n%d indexes missing; run 'pgedge-salesdw indexes create'\n", missing)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	exists, err := db.MetadataExists(ctx, conn)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("warehouse has no ETL metadata; run 'pgedge-salesdw etl run' first")
	}
	if statusReset {
		if err := db.DropMetadata(ctx, conn); err != nil {
			return fmt.Errorf("failed to clear metadata: %w", err)
		}
		logging.Info().Msg("ETL metadata cleared")
		return nil
	}
	meta, err := db.GetAllMetadata(ctx, conn)
	if err != nil {
		return err
	}
	if meta[pipeline.MetaRunID] == "" {
		return fmt.Errorf("no ETL run has been recorded")
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, meta[k])
	}
	return tw.Flush()
}
