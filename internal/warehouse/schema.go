//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star schema: table layouts, row types,
// migrations and indexes.
package warehouse

import (
	"database/sql"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
)

// Star-schema table names.
const (
	DimDate    = "dim_date"
	DimUser    = "dim_user"
	DimRider   = "dim_rider"
	DimProduct = "dim_product"
	FactSales  = "fact_sales"
)

// DateTable is the calendar dimension.
var DateTable = db.Table{
	Name: DimDate,
	Columns: []db.Column{
		{Name: "date_key", Type: db.Integer, NotNull: true},
		{Name: "full_date", Type: db.Date, NotNull: true},
		{Name: "day_name", Type: db.Varchar, Size: 10},
		{Name: "month_name", Type: db.Varchar, Size: 10},
		{Name: "day", Type: db.Integer},
		{Name: "month", Type: db.Integer},
		{Name: "quarter", Type: db.Integer},
		{Name: "year", Type: db.Integer},
		{Name: "is_weekend", Type: db.Flag},
	},
	PrimaryKey: []string{"date_key"},
}

// UserTable is the customer dimension.
var UserTable = db.Table{
	Name: DimUser,
	Columns: []db.Column{
		{Name: "user_key", Type: db.BigInt, NotNull: true},
		{Name: "username", Type: db.Varchar, Size: 100},
		{Name: "full_name", Type: db.Varchar, Size: 200},
		{Name: "gender", Type: db.Varchar, Size: 10},
		{Name: "city", Type: db.Varchar, Size: 100},
		{Name: "country", Type: db.Varchar, Size: 100},
		{Name: "continent", Type: db.Varchar, Size: 50},
		{Name: "signup_date", Type: db.Date},
	},
	PrimaryKey: []string{"user_key"},
}

// RiderTable is the delivery rider dimension.
var RiderTable = db.Table{
	Name: DimRider,
	Columns: []db.Column{
		{Name: "rider_key", Type: db.BigInt, NotNull: true},
		{Name: "rider_name", Type: db.Varchar, Size: 200},
		{Name: "vehicleType", Type: db.Varchar, Size: 50},
		{Name: "gender", Type: db.Varchar, Size: 10},
		{Name: "age", Type: db.Integer},
		{Name: "courier_name", Type: db.Varchar, Size: 100},
	},
	PrimaryKey: []string{"rider_key"},
}

// ProductTable is the product dimension.
var ProductTable = db.Table{
	Name: DimProduct,
	Columns: []db.Column{
		{Name: "product_key", Type: db.BigInt, NotNull: true},
		{Name: "product_name", Type: db.Varchar, Size: 255},
		{Name: "category", Type: db.Varchar, Size: 50},
		{Name: "product_code", Type: db.Varchar, Size: 50},
		{Name: "price", Type: db.Double},
	},
	PrimaryKey: []string{"product_key"},
}

// FactTable mirrors the fact_sales layout owned by the migrations.
var FactTable = db.Table{
	Name: FactSales,
	Columns: []db.Column{
		{Name: "order_number", Type: db.Varchar, Size: 50, NotNull: true},
		{Name: "customer_key", Type: db.BigInt, NotNull: true},
		{Name: "product_key", Type: db.BigInt, NotNull: true},
		{Name: "rider_key", Type: db.BigInt, NotNull: true},
		{Name: "date_key", Type: db.Integer, NotNull: true},
		{Name: "quantity", Type: db.Integer, NotNull: true},
		{Name: "unit_price", Type: db.Double, NotNull: true},
		{Name: "sales_amount", Type: db.Double, NotNull: true},
	},
}

// Dimensions lists the dimension tables in load order.
var Dimensions = []db.Table{RiderTable, UserTable, ProductTable, DateTable}

// Row is a value that can be written as one table row.
type Row interface {
	Values() []any
}

// DateRow is one dim_date row.
type DateRow struct {
	DateKey   int    `db:"date_key" json:"date_key"`
	FullDate  string `db:"full_date" json:"full_date"`
	DayName   string `db:"day_name" json:"day_name"`
	MonthName string `db:"month_name" json:"month_name"`
	Day       int    `db:"day" json:"day"`
	Month     int    `db:"month" json:"month"`
	Quarter   int    `db:"quarter" json:"quarter"`
	Year      int    `db:"year" json:"year"`
	IsWeekend string `db:"is_weekend" json:"is_weekend"`
}

// Values returns the row in DateTable column order.
func (r DateRow) Values() []any {
	return []any{r.DateKey, r.FullDate, r.DayName, r.MonthName, r.Day, r.Month, r.Quarter, r.Year, r.IsWeekend}
}

// UserRow is one dim_user row.
type UserRow struct {
	UserKey    int64          `db:"user_key"`
	Username   string         `db:"username"`
	FullName   string         `db:"full_name"`
	Gender     string         `db:"gender"`
	City       string         `db:"city"`
	Country    string         `db:"country"`
	Continent  string         `db:"continent"`
	SignupDate sql.NullString `db:"signup_date"`
}

// Values returns the row in UserTable column order.
func (r UserRow) Values() []any {
	return []any{r.UserKey, r.Username, r.FullName, r.Gender, r.City, r.Country, r.Continent, r.SignupDate}
}

// RiderRow is one dim_rider row.
type RiderRow struct {
	RiderKey    int64         `db:"rider_key"`
	RiderName   string        `db:"rider_name"`
	VehicleType string        `db:"vehicleType"`
	Gender      string        `db:"gender"`
	Age         sql.NullInt64 `db:"age"`
	CourierName string        `db:"courier_name"`
}

// Values returns the row in RiderTable column order.
func (r RiderRow) Values() []any {
	return []any{r.RiderKey, r.RiderName, r.VehicleType, r.Gender, r.Age, r.CourierName}
}

// ProductRow is one dim_product row.
type ProductRow struct {
	ProductKey  int64           `db:"product_key"`
	ProductName string          `db:"product_name"`
	Category    string          `db:"category"`
	ProductCode string          `db:"product_code"`
	Price       sql.NullFloat64 `db:"price"`
}

// Values returns the row in ProductTable column order.
func (r ProductRow) Values() []any {
	return []any{r.ProductKey, r.ProductName, r.Category, r.ProductCode, r.Price}
}

// FactRow is one fact_sales row, one per order line.
type FactRow struct {
	OrderNumber string  `db:"order_number"`
	CustomerKey int64   `db:"customer_key"`
	ProductKey  int64   `db:"product_key"`
	RiderKey    int64   `db:"rider_key"`
	DateKey     int     `db:"date_key"`
	Quantity    int64   `db:"quantity"`
	UnitPrice   float64 `db:"unit_price"`
	SalesAmount float64 `db:"sales_amount"`
}

// Values returns the row in FactTable column order.
func (r FactRow) Values() []any {
	return []any{r.OrderNumber, r.CustomerKey, r.ProductKey, r.RiderKey, r.DateKey, r.Quantity, r.UnitPrice, r.SalesAmount}
}

// RowValues flattens typed rows for batched inserts. A nil slice stays nil.
func RowValues[R Row](rows []R) [][]any {
	if rows == nil {
		return nil
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}
