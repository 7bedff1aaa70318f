// Package seed creates the OLTP source schema and fills it with fake,
// deliberately messy sales data for the ETL to clean up.
package seed

import "github.com/pgEdge/pgedge-salesdw/internal/db"

// Source table names.
const (
	Couriers   = "couriers"
	Riders     = "riders"
	Users      = "users"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "orderitems"
)

var couriersTable = db.Table{
	Name: Couriers,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "name", Type: db.Varchar, Size: 100},
	},
	PrimaryKey: []string{"id"},
}

var ridersTable = db.Table{
	Name: Riders,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "firstName", Type: db.Varchar, Size: 100},
		{Name: "lastName", Type: db.Varchar, Size: 100},
		{Name: "vehicleType", Type: db.Varchar, Size: 50},
		{Name: "age", Type: db.Integer},
		{Name: "gender", Type: db.Varchar, Size: 20},
		{Name: "courierId", Type: db.BigInt},
	},
	PrimaryKey: []string{"id"},
}

var usersTable = db.Table{
	Name: Users,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "username", Type: db.Varchar, Size: 100},
		{Name: "firstName", Type: db.Varchar, Size: 100},
		{Name: "lastName", Type: db.Varchar, Size: 100},
		{Name: "gender", Type: db.Varchar, Size: 20},
		{Name: "city", Type: db.Varchar, Size: 100},
		{Name: "country", Type: db.Varchar, Size: 100},
		{Name: "createdAt", Type: db.Timestamp},
	},
	PrimaryKey: []string{"id"},
}

var productsTable = db.Table{
	Name: Products,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "name", Type: db.Varchar, Size: 255},
		{Name: "category", Type: db.Varchar, Size: 50},
		{Name: "description", Type: db.Varchar, Size: 1000},
		{Name: "productCode", Type: db.Varchar, Size: 50},
		{Name: "price", Type: db.Double},
		{Name: "createdAt", Type: db.Timestamp},
		{Name: "updatedAt", Type: db.Timestamp},
	},
	PrimaryKey: []string{"id"},
}

// deliveryDate is free text in the source system.
var ordersTable = db.Table{
	Name: Orders,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "orderNumber", Type: db.Varchar, Size: 50},
		{Name: "userId", Type: db.BigInt},
		{Name: "deliveryRiderId", Type: db.BigInt},
		{Name: "deliveryDate", Type: db.Varchar, Size: 30},
		{Name: "createdAt", Type: db.Timestamp},
	},
	PrimaryKey: []string{"id"},
}

var orderItemsTable = db.Table{
	Name: OrderItems,
	Columns: []db.Column{
		{Name: "id", Type: db.BigInt, NotNull: true},
		{Name: "OrderId", Type: db.BigInt},
		{Name: "ProductId", Type: db.BigInt},
		{Name: "quantity", Type: db.Integer},
		{Name: "price", Type: db.Double},
	},
	PrimaryKey: []string{"id"},
}

// Tables lists the source tables in creation order.
var Tables = []db.Table{couriersTable, ridersTable, usersTable, productsTable, ordersTable, orderItemsTable}
