//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-salesdw.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/pkg/version"
)

var (
	// Global flags
	cfgFile         string
	logLevel        string
	logFormat       string
	sourceDriver    string
	sourceDSN       string
	warehouseDriver string
	warehouseDSN    string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-salesdw",
		Short: "Sales data warehouse ETL and OLAP toolkit",
		Long: `pgedge-salesdw builds a star-schema sales warehouse from an OLTP
e-commerce database and answers analytical questions over it.

The etl command extracts users, riders, products and order lines from the
source database, cleans them, and loads dim_date, dim_user, dim_rider,
dim_product and fact_sales into the warehouse. The query, operations and
serve commands run roll-up, drill-down, slice, dice and pivot operations
against the warehouse.

MySQL, PostgreSQL, SQLite and SQL Server are supported on both sides.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-salesdw.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&sourceDriver, "source-driver", "",
		"source database driver (mysql, postgres, sqlite, sqlserver)")
	rootCmd.PersistentFlags().StringVar(&sourceDSN, "source-dsn", "",
		"source database connection string")
	rootCmd.PersistentFlags().StringVar(&warehouseDriver, "warehouse-driver", "",
		"warehouse database driver (mysql, postgres, sqlite, sqlserver)")
	rootCmd.PersistentFlags().StringVar(&warehouseDSN, "warehouse-dsn", "",
		"warehouse database connection string")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(operationsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if sourceDriver != "" {
		cfg.Source.Driver = sourceDriver
	}
	if sourceDSN != "" {
		cfg.Source.DSN = sourceDSN
	}
	if warehouseDriver != "" {
		cfg.Warehouse.Driver = warehouseDriver
	}
	if warehouseDSN != "" {
		cfg.Warehouse.DSN = warehouseDSN
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Format: cfg.LogFormat,
	})

	return nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func connectWarehouse(ctx context.Context) (*db.DB, error) {
	conn, err := db.Connect(ctx, cfg.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return conn, nil
}

func connectSource(ctx context.Context) (*db.DB, error) {
	conn, err := db.Connect(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to source: %w", err)
	}
	return conn, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
