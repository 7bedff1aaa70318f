// Package source extracts raw records from the OLTP source database.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// UserRecord is one row of the users table.
type UserRecord struct {
	ID        sql.NullInt64  `db:"id"`
	Username  sql.NullString `db:"username"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
	Gender    sql.NullString `db:"gender"`
	City      sql.NullString `db:"city"`
	Country   sql.NullString `db:"country"`
	CreatedAt sql.NullString `db:"created_at"`
}

// RiderRecord is one rider joined with its courier.
type RiderRecord struct {
	ID          sql.NullInt64  `db:"id"`
	RiderName   sql.NullString `db:"rider_name"`
	VehicleType sql.NullString `db:"vehicle_type"`
	Age         sql.NullInt64  `db:"age"`
	Gender      sql.NullString `db:"gender"`
	CourierName sql.NullString `db:"courier_name"`
}

// ProductRecord is one row of the products table.
type ProductRecord struct {
	ID          sql.NullInt64  `db:"id"`
	Name        sql.NullString `db:"name"`
	Category    sql.NullString `db:"category"`
	Description sql.NullString `db:"description"`
	ProductCode sql.NullString `db:"product_code"`
	Price       sql.NullString `db:"price"`
	CreatedAt   sql.NullString `db:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
}

// SaleRecord is one order line joined with its order and product.
type SaleRecord struct {
	Quantity     sql.NullString `db:"quantity"`
	Price        sql.NullString `db:"price"`
	OrderNumber  sql.NullString `db:"order_number"`
	UserID       sql.NullInt64  `db:"user_id"`
	ProductID    sql.NullInt64  `db:"product_id"`
	RiderID      sql.NullInt64  `db:"rider_id"`
	DeliveryDate sql.NullString `db:"delivery_date"`
}

const usersQuery = `
SELECT
    id,
    username,
    firstName AS first_name,
    lastName AS last_name,
    gender,
    city,
    country,
    createdAt AS created_at
FROM users`

const ridersQuery = `
SELECT
    r.id,
    CONCAT(r.firstName, ' ', r.lastName) AS rider_name,
    r.vehicleType AS vehicle_type,
    r.age,
    r.gender,
    c.name AS courier_name
FROM riders r
LEFT JOIN couriers c ON r.courierId = c.id`

const productsQuery = `
SELECT
    id,
    name,
    category,
    description,
    productCode AS product_code,
    price,
    createdAt AS created_at,
    updatedAt AS updated_at
FROM products`

const salesQuery = `
SELECT
    oi.quantity,
    p.price,
    o.orderNumber AS order_number,
    o.userId AS user_id,
    oi.ProductId AS product_id,
    o.deliveryRiderId AS rider_id,
    o.deliveryDate AS delivery_date
FROM orderitems oi
LEFT JOIN orders o ON oi.OrderId = o.id
LEFT JOIN products p ON oi.ProductId = p.id`

// Extractor reads raw records from the source database.
type Extractor struct {
	conn *db.DB
}

// NewExtractor creates an extractor over a source connection.
func NewExtractor(conn *db.DB) *Extractor {
	return &Extractor{conn: conn}
}

// Users extracts the users table.
func (e *Extractor) Users(ctx context.Context) ([]UserRecord, error) {
	return extract[UserRecord](ctx, e.conn, "users", usersQuery)
}

// Riders extracts riders with their courier names.
func (e *Extractor) Riders(ctx context.Context) ([]RiderRecord, error) {
	return extract[RiderRecord](ctx, e.conn, "riders", ridersQuery)
}

// Products extracts the products table.
func (e *Extractor) Products(ctx context.Context) ([]ProductRecord, error) {
	return extract[ProductRecord](ctx, e.conn, "products", productsQuery)
}

// Sales extracts order lines with their order and product attributes.
func (e *Extractor) Sales(ctx context.Context) ([]SaleRecord, error) {
	return extract[SaleRecord](ctx, e.conn, "sales", salesQuery)
}

func extract[T any](ctx context.Context, conn *db.DB, table, query string) ([]T, error) {
	start := time.Now()

	var rows []T
	if err := conn.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", table, err)
	}

	logging.Info().
		Str("table", table).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Extracted source table")

	return rows, nil
}
