package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
	"github.com/pgEdge/pgedge-salesdw/internal/seed"
)

var (
	seedUsers        int
	seedRiders       int
	seedCouriers     int
	seedProducts     int
	seedOrders       int
	seedSeed         uint64
	seedDirtyRatio   float64
	seedDropExisting bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and fill the source OLTP schema with fake data",
	Long: `Create the couriers, riders, users, products, orders and orderitems
tables in the source database and fill them with generated data. A fraction
of the values is deliberately messy (gender and vehicle spellings, courier
typos, duplicate product codes, mixed date formats, null keys) so the ETL
cleaning rules have something to do.

Example:
  pgedge-salesdw seed --source-driver sqlite --source-dsn shop.db --orders 5000
  pgedge-salesdw seed --seed 42 --dirty-ratio 0.25 --drop-existing`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 0, "number of users")
	seedCmd.Flags().IntVar(&seedRiders, "riders", 0, "number of riders")
	seedCmd.Flags().IntVar(&seedCouriers, "couriers", 0, "number of couriers")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0, "number of products")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 0, "number of orders")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0,
		"random seed for reproducible data (0 = random)")
	seedCmd.Flags().Float64Var(&seedDirtyRatio, "dirty-ratio", -1,
		"fraction of values made messy (0-1)")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", false,
		"drop the source tables before generating")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedUsers > 0 {
		cfg.Seed.Users = seedUsers
	}
	if seedRiders > 0 {
		cfg.Seed.Riders = seedRiders
	}
	if seedCouriers > 0 {
		cfg.Seed.Couriers = seedCouriers
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedOrders > 0 {
		cfg.Seed.Orders = seedOrders
	}
	if seedSeed > 0 {
		cfg.Seed.Seed = seedSeed
	}
	if seedDirtyRatio >= 0 {
		cfg.Seed.DirtyRatio = seedDirtyRatio
	}
	if seedDropExisting {
		cfg.Seed.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connectSource(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	summary, err := seed.NewGenerator(conn, cfg.Seed).Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate source data: %w", err)
	}

	ev := logging.Info()
	for _, t := range seed.Tables {
		ev = ev.Int(t.Name, summary[t.Name])
	}
	ev.Msg("Source data generation complete")
	return nil
}
