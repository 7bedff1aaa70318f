package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/metrics"
	"github.com/pgEdge/pgedge-salesdw/internal/olap"
	"github.com/pgEdge/pgedge-salesdw/internal/server"
)

var (
	serveListen  string
	serveNoCache bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the OLAP API and dashboard",
	Long: `Serve the OLAP operations over HTTP. The dashboard is at /, the JSON
API under /api and Prometheus metrics at /metrics. Results are cached for
the configured TTL unless --no-cache is given.

Example:
  pgedge-salesdw serve --listen :8080 --warehouse-dsn "root:pw@tcp(localhost:3306)/salesdw"`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"listen address (default: :8080)")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false,
		"disable the query result cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if serveListen != "" {
		cfg.Serve.Listen = serveListen
	}
	if serveNoCache {
		cfg.Query.CacheEnabled = false
	}

	// Validate configuration
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	m := metrics.New(true)
	var exec olap.Executor = olap.NewDBExecutor(conn, cfg.Query.Timeout, m)
	if cfg.Query.CacheEnabled {
		cached := olap.NewCachedExecutor(exec, cfg.Query.CacheTTL, m)
		cached.Cache().StartJanitor(ctx, cfg.Query.CacheTTL)
		exec = cached
	}

	logging.Info().
		Str("listen", cfg.Serve.Listen).
		Bool("cache", cfg.Query.CacheEnabled).
		Dur("cache_ttl", cfg.Query.CacheTTL).
		Msg("Starting OLAP server")

	srv := server.New(cfg.Serve, olap.NewService(exec, conn.Dialect), conn, m)
	return srv.Run(ctx)
}
