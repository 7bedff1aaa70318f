//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/datagen"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	historyStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	historyEnd   = time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
)

// Reference data
var courierNames = []string{"FEDEX", "DHL", "UPS", "LBC", "J&T Express", "Ninja Van", "Grab Express", "Lalamove"}

var vehicles = []string{"Motorcycle", "Bicycle", "Car", "Tricycle"}

var messyVehicles = []string{"motorbike", "BIKE", "trike", " car ", "Scooter", "MOTORBIKE", ""}

var messyGenders = []string{"M", "F", "m", " f ", "MALE", "female", "", "unknown", "x"}

// Product names are built so that keyword inference lands on the intended
// category.
var productNouns = map[string][]string{
	"Electronics": {"Laptop", "Phone", "Headphones", "Camera", "Smartwatch", "Tablet", "Speaker", "Charger"},
	"Toys":        {"Toy Car", "Puzzle", "Doll", "Lego Set", "Action Figure", "Board Game"},
	"Bags":        {"Backpack", "Handbag", "Tote", "Wallet", "Duffel Bag", "Luggage"},
	"Makeup":      {"Lipstick", "Mascara", "Eyeliner", "Foundation", "Blush", "Makeup Kit"},
	"Clothing":    {"T-Shirt", "Jeans", "Jacket", "Hoodie", "Dress", "Sneakers"},
}

var messyCategories = map[string][]string{
	"Electronics": {"GADGETS", "gadget", "electronic", " Electronics "},
	"Toys":        {"toy", "TOYS", " Toy"},
	"Bags":        {"bag", "BAGS", "Bag "},
	"Makeup":      {"Make Up", "make-up", "cosmetics"},
	"Clothing":    {"clothes", "APPAREL", "clothing"},
}

var productAdjectives = []string{"Premium", "Classic", "Smart", "Mini", "Pro", "Eco", "Deluxe", "Sport"}

var messyDateLayouts = []string{"01/02/2006", "01-02-2006", "2006-01-02 15:04:05"}

var junkDates = []string{"", "N/A", "tomorrow", "32/13/2021"}

// Summary counts generated rows per table.
type Summary map[string]int

// Generator fills the source schema with fake data.
type Generator struct {
	conn      *db.DB
	cfg       config.SeedConfig
	faker     *datagen.Faker
	batchSize int

	productPrices []sql.NullFloat64
}

// NewGenerator creates a generator. The same seed always produces the same
// data.
func NewGenerator(conn *db.DB, cfg config.SeedConfig) *Generator {
	return &Generator{
		conn:      conn,
		cfg:       cfg,
		faker:     datagen.NewFakerWithSeed(cfg.Seed),
		batchSize: db.DefaultBatchConfig().BatchSize,
	}
}

// CreateSchema creates the source tables that do not exist yet. With
// DropExisting set, every source table is dropped first.
func (g *Generator) CreateSchema(ctx context.Context) error {
	if g.cfg.DropExisting {
		for _, t := range slices.Backward(Tables) {
			if _, err := g.conn.ExecContext(ctx, g.conn.Dialect.DropTableSQL(t.Name)); err != nil {
				return fmt.Errorf("failed to drop %s: %w", t.Name, err)
			}
		}
	}

	for _, t := range Tables {
		exists, err := db.TableExists(ctx, g.conn, t.Name)
		if err != nil {
			return err
		}
		if exists {
			logging.Debug().Str("table", t.Name).Msg("Source table exists")
			continue
		}
		if _, err := g.conn.ExecContext(ctx, t.CreateSQL(g.conn.Dialect, "")); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.Name, err)
		}
		logging.Info().Str("table", t.Name).Msg("Created source table")
	}
	return nil
}

// Generate creates the schema and writes every source table.
func (g *Generator) Generate(ctx context.Context) (Summary, error) {
	if err := g.CreateSchema(ctx); err != nil {
		return nil, err
	}

	logging.Info().
		Int("users", g.cfg.Users).
		Int("riders", g.cfg.Riders).
		Int("products", g.cfg.Products).
		Int("orders", g.cfg.Orders).
		Float64("dirty_ratio", g.cfg.DirtyRatio).
		Msg("Generating source data")

	summary := make(Summary)
	steps := []struct {
		table string
		gen   func() [][]any
	}{
		{Couriers, g.couriers},
		{Riders, g.riders},
		{Users, g.users},
		{Products, g.products},
	}
	for _, s := range steps {
		n, err := g.insert(ctx, s.table, s.gen())
		if err != nil {
			return summary, err
		}
		summary[s.table] = n
	}

	orders, items := g.orders()
	for _, s := range []struct {
		table string
		rows  [][]any
	}{{Orders, orders}, {OrderItems, items}} {
		n, err := g.insert(ctx, s.table, s.rows)
		if err != nil {
			return summary, err
		}
		summary[s.table] = n
	}

	return summary, nil
}

func (g *Generator) insert(ctx context.Context, table string, rows [][]any) (int, error) {
	var columns []string
	for _, t := range Tables {
		if t.Name == table {
			columns = t.ColumnNames()
		}
	}

	progress := db.NewProgressReporter(table, int64(len(rows)), db.DefaultBatchConfig().ProgressInterval)
	for start := 0; start < len(rows); start += g.batchSize {
		end := min(start+g.batchSize, len(rows))
		n, err := db.InsertRows(ctx, g.conn, g.conn.Dialect, table, columns, rows[start:end], g.batchSize)
		progress.Update(n)
		if err != nil {
			return int(progress.Rows()), fmt.Errorf("failed to generate %s: %w", table, err)
		}
	}
	progress.Done()
	return int(progress.Rows()), nil
}

func (g *Generator) dirty() bool {
	return g.faker.Chance(g.cfg.DirtyRatio)
}

func (g *Generator) timestamp() string {
	return g.faker.DateRange(historyStart, historyEnd).Format(timestampLayout)
}

func (g *Generator) gender() string {
	if g.dirty() {
		return datagen.Choose(g.faker, messyGenders)
	}
	if g.faker.Gender() == "male" {
		return "Male"
	}
	return "Female"
}

func (g *Generator) couriers() [][]any {
	rows := make([][]any, 0, g.cfg.Couriers)
	for i := 1; i <= g.cfg.Couriers; i++ {
		name := courierNames[(i-1)%len(courierNames)]
		if i > len(courierNames) {
			name = g.faker.Company() + " Logistics"
		}
		if name == "FEDEX" && g.cfg.DirtyRatio > 0 {
			// The source system carries this typo
			name = "FEDEZ"
		}
		rows = append(rows, []any{i, name})
	}
	return rows
}

func (g *Generator) riders() [][]any {
	rows := make([][]any, 0, g.cfg.Riders)
	for i := 1; i <= g.cfg.Riders; i++ {
		vehicle := datagen.Choose(g.faker, vehicles)
		if g.dirty() {
			vehicle = datagen.Choose(g.faker, messyVehicles)
		}
		var age sql.NullInt64
		if !g.dirty() {
			age = sql.NullInt64{Int64: int64(g.faker.Int(18, 60)), Valid: true}
		}
		var courier sql.NullInt64
		if !g.dirty() {
			courier = sql.NullInt64{Int64: int64(g.faker.Int(1, g.cfg.Couriers)), Valid: true}
		}
		rows = append(rows, []any{
			i, g.faker.FirstName(), g.faker.LastName(), vehicle, age, g.gender(), courier,
		})
	}
	return rows
}

func (g *Generator) users() [][]any {
	rows := make([][]any, 0, g.cfg.Users)
	for i := 1; i <= g.cfg.Users; i++ {
		city, country := g.faker.City(), g.faker.Country()
		var countryVal any = country
		if g.dirty() {
			city = g.faker.MixCase(city)
			countryVal = datagen.Choose(g.faker, []any{g.faker.MixCase(country), nil, ""})
		}
		var lastName any = g.faker.LastName()
		if g.dirty() {
			lastName = nil
		}
		var created any = g.timestamp()
		if g.dirty() {
			created = nil
		}
		rows = append(rows, []any{
			i, g.faker.Username(), g.faker.FirstName(), lastName, g.gender(), city, countryVal, created,
		})
	}
	return rows
}

// products generates the catalog. Some codes are duplicated with an older
// update time and a different id, as in the source system.
func (g *Generator) products() [][]any {
	categories := []string{"Electronics", "Toys", "Bags", "Makeup", "Clothing"}

	rows := make([][]any, 0, g.cfg.Products)
	g.productPrices = make([]sql.NullFloat64, g.cfg.Products+1)
	nextID := g.cfg.Products + 1

	for i := 1; i <= g.cfg.Products; i++ {
		category := datagen.Choose(g.faker, categories)
		name := datagen.Choose(g.faker, productAdjectives) + " " + datagen.Choose(g.faker, productNouns[category])
		categoryVal := category
		if g.dirty() {
			categoryVal = datagen.Choose(g.faker, messyCategories[category])
		}

		price := sql.NullFloat64{Float64: g.faker.Price(5, 1500), Valid: true}
		if g.dirty() {
			price = sql.NullFloat64{}
		}
		g.productPrices[i] = price

		created := g.faker.DateRange(historyStart, historyEnd.AddDate(-1, 0, 0))
		updated := created.Add(time.Duration(g.faker.Int(1, 300*24)) * time.Hour)
		code := datagen.Code("P", i)

		rows = append(rows, []any{
			i, name, categoryVal, g.faker.ProductDescription(), code, price,
			created.Format(timestampLayout), updated.Format(timestampLayout),
		})

		if g.dirty() {
			older := created.Add(-time.Duration(g.faker.Int(1, 90*24)) * time.Hour)
			rows = append(rows, []any{
				nextID, g.faker.MixCase(name), datagen.Choose(g.faker, messyCategories[category]), nil, code,
				price, older.Format(timestampLayout), older.Format(timestampLayout),
			})
			nextID++
		}
	}
	return rows
}

// orders generates orders and their line items.
func (g *Generator) orders() (orders, items [][]any) {
	orders = make([][]any, 0, g.cfg.Orders)
	itemID := 1
	for i := 1; i <= g.cfg.Orders; i++ {
		placed := g.faker.DateRange(historyStart, historyEnd)
		delivered := placed.AddDate(0, 0, g.faker.Int(1, 7))

		var user any = g.faker.Int(1, g.cfg.Users)
		if g.dirty() && g.faker.Bool() {
			user = nil
		}
		var rider any = g.faker.Int(1, g.cfg.Riders)
		if g.dirty() && g.faker.Bool() {
			rider = nil
		}

		delivery := delivered.Format(time.DateOnly)
		if g.dirty() {
			if g.faker.Chance(0.25) {
				delivery = datagen.Choose(g.faker, junkDates)
			} else {
				delivery = delivered.Format(datagen.Choose(g.faker, messyDateLayouts))
			}
		}

		orders = append(orders, []any{
			i, fmt.Sprintf("ORD-%07d", i), user, rider, delivery, placed.Format(timestampLayout),
		})

		for range g.faker.Int(1, 4) {
			product := g.faker.Int(1, g.cfg.Products)
			var quantity any = g.faker.Int(1, 5)
			if g.dirty() {
				quantity = nil
			}
			items = append(items, []any{itemID, i, product, quantity, g.productPrices[product]})
			itemID++
		}
	}
	return orders, items
}
