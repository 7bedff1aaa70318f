//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-salesdw.
// Configuration is loaded from config files, a .env file and the process
// environment (connection settings only). CLI flags take precedence over
// everything else.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Table names accepted in ETLConfig.Tables.
const (
	TableRiders   = "riders"
	TableUsers    = "users"
	TableProducts = "products"
	TableDates    = "dates"
	TableSales    = "sales"
)

// AllTables lists every ETL table in processing order.
var AllTables = []string{TableRiders, TableUsers, TableProducts, TableDates, TableSales}

// Config holds all configuration for pgedge-salesdw.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `mapstructure:"log_format"`

	// Source is the OLTP database the ETL extracts from.
	Source DatabaseConfig `mapstructure:"source"`

	// Warehouse is the star-schema database.
	Warehouse DatabaseConfig `mapstructure:"warehouse"`

	ETL     ETLConfig     `mapstructure:"etl"`
	Query   QueryConfig   `mapstructure:"query"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DatabaseConfig describes one database connection. DSN wins over the
// individual fields when both are set.
type DatabaseConfig struct {
	// Driver is one of mysql, postgres, sqlite, sqlserver. Empty means mysql.
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// IsSet reports whether enough is known to build a connection string.
func (d DatabaseConfig) IsSet() bool {
	return d.DSN != "" || d.Name != ""
}

// ETLConfig holds configuration for the etl command.
type ETLConfig struct {
	// Tables restricts a run to a subset of AllTables. Empty means all.
	Tables []string `mapstructure:"tables"`

	// ChunkSize is the number of fact rows appended per chunk.
	ChunkSize int `mapstructure:"chunk_size"`

	// ContinentCSV is an optional country -> continent override file.
	ContinentCSV string `mapstructure:"continent_csv"`

	// InferCategory lets product-name keywords override source categories.
	InferCategory bool `mapstructure:"infer_category"`

	// DateStart and DateEnd (YYYY-MM-DD) pin the dim_date range. When
	// empty the range is derived from the fact table.
	DateStart string `mapstructure:"date_start"`
	DateEnd   string `mapstructure:"date_end"`

	// CreateIndexes builds warehouse indexes after loading.
	CreateIndexes bool `mapstructure:"create_indexes"`
}

// QueryConfig holds configuration for OLAP queries.
type QueryConfig struct {
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ServeConfig holds configuration for the HTTP dashboard.
type ServeConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SeedConfig holds configuration for source data generation.
type SeedConfig struct {
	Users    int `mapstructure:"users"`
	Riders   int `mapstructure:"riders"`
	Couriers int `mapstructure:"couriers"`
	Products int `mapstructure:"products"`
	Orders   int `mapstructure:"orders"`

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`

	// DirtyRatio is the fraction of values made deliberately messy.
	DirtyRatio float64 `mapstructure:"dirty_ratio"`

	// DropExisting drops the source schema before generating.
	DropExisting bool `mapstructure:"drop_existing"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	// PushgatewayURL enables pushing ETL metrics after a run.
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		ETL: ETLConfig{
			ChunkSize:     50000,
			InferCategory: true,
		},
		Query: QueryConfig{
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
			Timeout:      30 * time.Second,
		},
		Serve: ServeConfig{
			Listen:      ":8080",
			CORSOrigins: []string{"*"},
		},
		Seed: SeedConfig{
			Users:      500,
			Riders:     60,
			Couriers:   5,
			Products:   200,
			Orders:     2000,
			DirtyRatio: 0.1,
		},
		Metrics: MetricsConfig{
			Job: "pgedge-salesdw",
		},
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-salesdw.yaml
// 3. ~/.config/pgedge-salesdw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-salesdw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-salesdw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

// LoadDotEnv loads environment variables from a .env file if it exists.
// Variables already present in the environment are not overwritten.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv fills blank connection fields from the environment:
// DB_DRIVER, DB_HOST, DB_USER, DB_PASSWORD, SOURCE_DB_NAME,
// WAREHOUSE_DB_NAME, SOURCE_DSN and WAREHOUSE_DSN.
func (c *Config) ApplyEnv(getenv func(string) string) {
	apply := func(d *DatabaseConfig, nameVar, dsnVar string) {
		if d.DSN == "" {
			d.DSN = getenv(dsnVar)
		}
		if d.Name == "" {
			d.Name = getenv(nameVar)
		}
		if d.Host == "" {
			d.Host = getenv("DB_HOST")
		}
		if d.User == "" {
			d.User = getenv("DB_USER")
		}
		if d.Password == "" {
			d.Password = getenv("DB_PASSWORD")
		}
		if d.Driver == "" {
			d.Driver = getenv("DB_DRIVER")
		}
	}
	apply(&c.Source, "SOURCE_DB_NAME", "SOURCE_DSN")
	apply(&c.Warehouse, "WAREHOUSE_DB_NAME", "WAREHOUSE_DSN")
}

// Validate checks that the warehouse connection is configured.
func (c *Config) Validate() error {
	if !c.Warehouse.IsSet() {
		return fmt.Errorf("warehouse database is required (warehouse.dsn or WAREHOUSE_DB_NAME)")
	}
	return nil
}

// ValidateETL checks configuration required for the etl command.
func (c *Config) ValidateETL() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.Source.IsSet() {
		return fmt.Errorf("source database is required (source.dsn or SOURCE_DB_NAME)")
	}
	if c.ETL.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1")
	}
	for _, t := range c.ETL.Tables {
		if !slices.Contains(AllTables, t) {
			return fmt.Errorf("unknown etl table '%s' (valid: %v)", t, AllTables)
		}
	}
	start, end, err := c.ETL.DateRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("date_end must not be before date_start")
	}
	if start.IsZero() != end.IsZero() {
		return fmt.Errorf("date_start and date_end must be set together")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if !c.Source.IsSet() {
		return fmt.Errorf("source database is required (source.dsn or SOURCE_DB_NAME)")
	}
	if c.Seed.Users < 1 || c.Seed.Riders < 1 || c.Seed.Products < 1 {
		return fmt.Errorf("users, riders and products must each be at least 1")
	}
	if c.Seed.Couriers < 1 {
		return fmt.Errorf("couriers must be at least 1")
	}
	if c.Seed.Orders < 0 {
		return fmt.Errorf("orders must be non-negative")
	}
	if c.Seed.DirtyRatio < 0 || c.Seed.DirtyRatio > 1 {
		return fmt.Errorf("dirty_ratio must be between 0 and 1")
	}
	return nil
}

// ValidateServe checks configuration required for the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Serve.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Query.CacheEnabled && c.Query.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive when the cache is enabled")
	}
	return nil
}

// SelectedTables returns the configured ETL tables, or all of them.
func (e ETLConfig) SelectedTables() []string {
	if len(e.Tables) == 0 {
		return AllTables
	}
	return e.Tables
}

// DateRange parses DateStart and DateEnd. Unset values are zero times.
func (e ETLConfig) DateRange() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if e.DateStart != "" {
		if start, err = time.Parse(time.DateOnly, e.DateStart); err != nil {
			return start, end, fmt.Errorf("invalid date_start: %w", err)
		}
	}
	if e.DateEnd != "" {
		if end, err = time.Parse(time.DateOnly, e.DateEnd); err != nil {
			return start, end, fmt.Errorf("invalid date_end: %w", err)
		}
	}
	return start, end, nil
}
