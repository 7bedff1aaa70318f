package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/config"
	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/etl/transform"
	"github.com/pgEdge/pgedge-salesdw/internal/seed"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// Totals of the warehouse fixture.
const (
	FixtureOrders     = 4
	FixtureTotalSales = 1050.0
)

// FixtureUsers are the dim_user rows of the warehouse fixture.
var FixtureUsers = []warehouse.UserRow{
	{UserKey: 1, Username: "ana", FullName: "Ana Cruz", Gender: "Male", City: "Manila", Country: "Philippines", Continent: "Asia"},
	{UserKey: 2, Username: "ken", FullName: "Ken Sato", Gender: "Female", City: "Tokyo", Country: "Japan", Continent: "Asia"},
	{UserKey: 3, Username: "eva", FullName: "Eva Schmidt", Gender: "Female", City: "Berlin", Country: "Germany", Continent: "Europe"},
}

// FixtureRiders are the dim_rider rows of the warehouse fixture.
var FixtureRiders = []warehouse.RiderRow{
	{RiderKey: 100, RiderName: "John Doe", VehicleType: "Motorcycle", Gender: "Male", Age: sql.NullInt64{Int64: 28, Valid: true}, CourierName: "FEDEX"},
	{RiderKey: 101, RiderName: "Jane Smith", VehicleType: "Bicycle", Gender: "Female", Age: sql.NullInt64{Int64: 32, Valid: true}, CourierName: "DHL"},
	{RiderKey: 102, RiderName: "Bob Lee", VehicleType: "Car", Gender: "Male", Age: sql.NullInt64{Int64: 45, Valid: true}, CourierName: "UPS"},
}

// FixtureProducts are the dim_product rows of the warehouse fixture.
var FixtureProducts = []warehouse.ProductRow{
	{ProductKey: 10, ProductName: "Laptop", Category: "Electronics", ProductCode: "P001", Price: sql.NullFloat64{Float64: 1200, Valid: true}},
	{ProductKey: 11, ProductName: "Toy Car", Category: "Toys", ProductCode: "P002", Price: sql.NullFloat64{Float64: 15, Valid: true}},
	{ProductKey: 12, ProductName: "Handbag", Category: "Bags", ProductCode: "P003", Price: sql.NullFloat64{Float64: 60, Valid: true}},
}

// FixtureDates are the dim_date rows of the warehouse fixture: a Saturday,
// a Sunday and a Monday.
var FixtureDates = transform.DateDimension([]time.Time{
	time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
	time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
	time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC),
})

// FixtureFacts are the fact_sales rows of the warehouse fixture. ORD-2 has
// two lines.
var FixtureFacts = []warehouse.FactRow{
	{OrderNumber: "ORD-1", CustomerKey: 1, ProductKey: 10, RiderKey: 100, DateKey: 20210102, Quantity: 2, UnitPrice: 50, SalesAmount: 100},
	{OrderNumber: "ORD-2", CustomerKey: 1, ProductKey: 11, RiderKey: 101, DateKey: 20210103, Quantity: 3, UnitPrice: 20, SalesAmount: 200},
	{OrderNumber: "ORD-2", CustomerKey: 1, ProductKey: 12, RiderKey: 101, DateKey: 20210103, Quantity: 1, UnitPrice: 50, SalesAmount: 50},
	{OrderNumber: "ORD-3", CustomerKey: 2, ProductKey: 10, RiderKey: 102, DateKey: 20210510, Quantity: 5, UnitPrice: 60, SalesAmount: 300},
	{OrderNumber: "ORD-4", CustomerKey: 3, ProductKey: 11, RiderKey: 100, DateKey: 20210102, Quantity: 2, UnitPrice: 200, SalesAmount: 400},
}

// OpenMemory opens an in-memory SQLite database closed at test end.
func OpenMemory(t *testing.T) *db.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Warehouse returns an in-memory star schema loaded with the fixture rows.
func Warehouse(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()
	conn := OpenMemory(t)

	if err := warehouse.Migrate(ctx, conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	load := func(table db.Table, rows [][]any) {
		if table.Name != warehouse.FactSales {
			if _, err := conn.ExecContext(ctx, table.CreateSQL(conn.Dialect, "")); err != nil {
				t.Fatalf("Failed to create %s: %v", table.Name, err)
			}
		}
		if _, err := db.InsertRows(ctx, conn, conn.Dialect, table.Name, table.ColumnNames(), rows, 100); err != nil {
			t.Fatalf("Failed to load %s: %v", table.Name, err)
		}
	}
	load(warehouse.UserTable, warehouse.RowValues(FixtureUsers))
	load(warehouse.RiderTable, warehouse.RowValues(FixtureRiders))
	load(warehouse.ProductTable, warehouse.RowValues(FixtureProducts))
	load(warehouse.DateTable, warehouse.RowValues(FixtureDates))
	load(warehouse.FactTable, warehouse.RowValues(FixtureFacts))

	return conn
}

// Source returns an in-memory OLTP source with a small, messy data set:
//
//   - courier 1 is misspelled FEDEZ
//   - product code P001 appears twice; id 12 is the older copy
//   - order 3 has no user and order 4 points at user 99, which does not exist
//   - order 2 is dated 01/03/2021 and carries a line for product 12
//
// After a full ETL run the warehouse holds 2 riders, 3 users, 2 products,
// 2 dates and 3 fact rows totalling 2460.
func Source(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()
	conn := OpenMemory(t)

	if err := seed.NewGenerator(conn, config.SeedConfig{}).CreateSchema(ctx); err != nil {
		t.Fatalf("Failed to create source schema: %v", err)
	}

	data := map[string][][]any{
		seed.Couriers: {
			{1, "FEDEZ"},
			{2, "DHL"},
		},
		seed.Riders: {
			{100, "John", "Doe", "motorbike", 28, "M", 1},
			{101, "Jane", "Smith", " BIKE ", 32, "f", 2},
		},
		seed.Users: {
			{1, "ana", "Ana", "Cruz", "F", "manila", "philippines", "2021-01-01 09:00:00"},
			{2, "ken", "Ken", "Sato", "male", " tokyo", "JAPAN", nil},
			{3, "lee", nil, nil, "", "", nil, "2020-06-01 10:00:00"},
		},
		seed.Products: {
			{10, "Laptop", "GADGETS", "15 inch", "P001", 1200.0, "2023-01-01 00:00:00", "2024-01-01 00:00:00"},
			{11, "Toy Car", "toy", "Red", "P002", 15.0, "2023-01-01 00:00:00", "2023-02-01 00:00:00"},
			{12, "laptop", "electronics", nil, "P001", 999.0, "2022-01-01 00:00:00", "2022-01-01 00:00:00"},
		},
		seed.Orders: {
			{1, "ORD-1", 1, 100, "2021-01-02", "2021-01-01 10:00:00"},
			{2, "ORD-2", 2, 101, "01/03/2021", "2021-01-02 10:00:00"},
			{3, "ORD-3", nil, 100, "2021-01-02", "2021-01-01 11:00:00"},
			{4, "ORD-4", 99, 101, "2021-01-05", "2021-01-04 10:00:00"},
		},
		seed.OrderItems: {
			{1, 1, 10, 2, 1200.0},
			{2, 1, 11, 1, 15.0},
			{3, 2, 11, 3, 15.0},
			{4, 3, 10, 1, 1200.0},
			{5, 4, 10, 1, 1200.0},
			{6, 2, 12, 1, 999.0},
		},
	}
	for _, table := range seed.Tables {
		if _, err := db.InsertRows(ctx, conn, conn.Dialect, table.Name, table.ColumnNames(), data[table.Name], 100); err != nil {
			t.Fatalf("Failed to load source %s: %v", table.Name, err)
		}
	}
	return conn
}
