package transform

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/etl/source"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func id(n int64) sql.NullInt64    { return sql.NullInt64{Int64: n, Valid: true} }

func TestRiders(t *testing.T) {
	records := []source.RiderRecord{
		{ID: id(2), RiderName: str("Jane Smith"), VehicleType: str(" BIKE "), Gender: str("f"), Age: id(32), CourierName: str("dhl")},
		{ID: id(1), RiderName: str("  John Doe "), VehicleType: str("motorbike"), Gender: str("M"), CourierName: str("FEDEZ")},
		{ID: sql.NullInt64{}, RiderName: str("Ghost")},
		{ID: id(2), RiderName: str("Jane Smith"), VehicleType: str("trike"), Gender: str("female"), Age: id(33), CourierName: str("Fedez")},
		{ID: id(3)},
	}

	rows, stats := Riders(records)
	require.Len(t, rows, 3)

	assert.Equal(t, warehouse.RiderRow{RiderKey: 1, RiderName: "John Doe", VehicleType: "Motorcycle", Gender: Male, CourierName: "FEDEX"}, rows[0])
	// Last occurrence of a duplicated id wins
	assert.Equal(t, warehouse.RiderRow{RiderKey: 2, RiderName: "Jane Smith", VehicleType: "Tricycle", Gender: Female, Age: id(33), CourierName: "FEDEX"}, rows[1])
	assert.Equal(t, warehouse.RiderRow{RiderKey: 3, RiderName: Unknown, VehicleType: Unknown, Gender: Other, CourierName: Unknown}, rows[2])

	assert.Equal(t, 5, stats.Input)
	assert.Equal(t, 3, stats.Output)
	assert.Equal(t, map[string]int{DropNullKey: 1, DropDuplicate: 1}, stats.Dropped)

	none, _ := Riders(nil)
	assert.Nil(t, none)
}

func TestUsers(t *testing.T) {
	records := []source.UserRecord{
		{ID: id(1), Username: str("ana"), FirstName: str("Ana"), LastName: str("Cruz"), Gender: str("F"), City: str("manila"), Country: str("philippines"), CreatedAt: str("2021-01-05")},
		{ID: id(2), Username: str(""), Gender: str("x"), City: str(""), Country: sql.NullString{}, CreatedAt: str("garbage")},
		{ID: id(1), Username: str("ana_old"), FirstName: str("Ana"), City: str("Cebu"), Country: str("Philippines"), CreatedAt: str("01/01/2020")},
		{ID: sql.NullInt64{}, Username: str("nobody")},
		{ID: id(3), Username: str("ben"), FirstName: str(" Ben "), City: str("new york"), Country: str("UNITED STATES"), CreatedAt: str("2022-06-01 10:00:00")},
	}

	rows, stats := Users(records, NewContinentResolver())
	require.Len(t, rows, 3)

	// The later signup date is kept over a later occurrence
	assert.Equal(t, warehouse.UserRow{
		UserKey: 1, Username: "ana", FullName: "Ana Cruz", Gender: Female,
		City: "Manila", Country: "Philippines", Continent: "Asia", SignupDate: str("2021-01-05"),
	}, rows[0])
	assert.Equal(t, warehouse.UserRow{
		UserKey: 2, Username: Unknown, FullName: Unknown, Gender: Other,
		City: Unknown, Country: Unknown, Continent: Other,
	}, rows[1])
	assert.Equal(t, "Ben", rows[2].FullName)
	assert.Equal(t, "New York", rows[2].City)
	assert.Equal(t, "North America", rows[2].Continent)
	assert.Equal(t, str("2022-06-01"), rows[2].SignupDate)

	assert.Equal(t, map[string]int{DropNullKey: 1, DropDuplicate: 1}, stats.Dropped)
}

func TestUsersDedupeTies(t *testing.T) {
	records := []source.UserRecord{
		{ID: id(7), Username: str("first"), CreatedAt: str("2021-01-01")},
		{ID: id(7), Username: str("undated")},
		{ID: id(7), Username: str("last"), CreatedAt: str("2021-01-01")},
	}
	rows, _ := Users(records, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "last", rows[0].Username)
}

func TestUsersSequentialKeys(t *testing.T) {
	records := []source.UserRecord{
		{Username: str("a")},
		{Username: str("b")},
	}
	rows, stats := Users(records, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].UserKey)
	assert.Equal(t, int64(2), rows[1].UserKey)
	assert.Zero(t, stats.DroppedTotal())
}

func TestProducts(t *testing.T) {
	records := []source.ProductRecord{
		{ID: id(1), Name: str("  Phone  "), Category: str("GADGETS"), ProductCode: str("P001"), Price: str("500"), UpdatedAt: str("2024-02-01")},
		{ID: id(2), Name: str("Laptop"), Category: str("Electronics"), ProductCode: str("P002"), Price: str("1200.0"), UpdatedAt: str("2024-03-01")},
		{ID: id(3), Name: str("Toy Car"), Category: str("Toy"), ProductCode: str("P003"), Price: str("15"), UpdatedAt: str("2024-04-01")},
		{ID: id(4), Name: str("Makeup Kit"), Category: str("make up"), ProductCode: str("P004"), Price: str("25"), UpdatedAt: str("2024-04-02")},
		{ID: id(5), Name: str("Bagpack"), Category: str("BAG"), Description: str("Travel bag"), ProductCode: str("P005"), Price: str("60"), UpdatedAt: str("2024-04-03")},
		{ID: id(6), Name: str("BAG"), Category: str("bag"), ProductCode: str("P005"), Price: str("abc"), UpdatedAt: str("2024-04-04 09:00:00")},
		{ID: id(7), Name: str("No code"), ProductCode: str("  ")},
		{ID: sql.NullInt64{}, ProductCode: str("P009")},
	}

	rows, stats := Products(records, true)
	require.Len(t, rows, 5)

	codes := map[string]bool{}
	for _, r := range rows {
		assert.False(t, codes[r.ProductCode], "duplicate code %s", r.ProductCode)
		codes[r.ProductCode] = true
		assert.Contains(t, Categories, r.Category)
	}

	assert.Equal(t, "Phone", rows[0].ProductName)
	assert.Equal(t, Electronics, rows[0].Category)
	assert.Equal(t, Toys, rows[2].Category)
	assert.Equal(t, Makeup, rows[3].Category)

	// P005 keeps the later update and fills its bad price from the older row
	assert.Equal(t, warehouse.ProductRow{
		ProductKey: 6, ProductName: "BAG", Category: Bags, ProductCode: "P005",
		Price: sql.NullFloat64{Float64: 60, Valid: true},
	}, rows[4])

	assert.Equal(t, map[string]int{DropNullKey: 1, DropMissingCode: 1, DropDuplicate: 1}, stats.Dropped)
}

func TestProductsTieBreakOnCompleteness(t *testing.T) {
	records := []source.ProductRecord{
		{ID: id(1), Name: str("Shirt"), Category: str("clothes"), Description: str("Cotton"), ProductCode: str("C1"), Price: str("10"), UpdatedAt: str("2024-01-01")},
		{ID: id(2), Name: str("Shirt v2"), ProductCode: str("C1"), UpdatedAt: str("2024-01-01")},
		{ID: id(3), Name: str("Undated"), Category: str("toys"), Description: str("x"), ProductCode: str("C1"), Price: str("99"), CreatedAt: str("2020-01-01")},
	}
	rows, _ := Products(records, false)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ProductKey)
	assert.Equal(t, Clothing, rows[0].Category)
	assert.Equal(t, 10.0, rows[0].Price.Float64)
}

func TestDimensionsAllRowsDropped(t *testing.T) {
	riders, stats := Riders([]source.RiderRecord{{RiderName: str("Nobody")}})
	assert.NotNil(t, riders)
	assert.Empty(t, riders)
	assert.Equal(t, 1, stats.Dropped[DropNullKey])

	products, _ := Products([]source.ProductRecord{{ID: id(1), ProductCode: str(" ")}}, true)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	none, _ := Riders(nil)
	assert.Nil(t, none)
}

func TestFacts(t *testing.T) {
	records := []source.SaleRecord{
		{Quantity: str("2"), Price: str("50"), OrderNumber: str("ORD-1"), UserID: id(1), ProductID: id(10), RiderID: id(100), DeliveryDate: str("2021-01-02")},
		{Quantity: str("3"), Price: str("20.005"), OrderNumber: str("ORD-2"), UserID: id(1), ProductID: id(11), RiderID: id(101), DeliveryDate: str("01/03/2021")},
		{Quantity: str("abc"), Price: str("10"), OrderNumber: str("ORD-2"), UserID: id(1), ProductID: id(12), RiderID: id(101), DeliveryDate: str("01-03-2021")},
		{Quantity: str("4"), Price: sql.NullString{}, OrderNumber: str("ORD-3"), UserID: id(2), ProductID: id(10), RiderID: id(102), DeliveryDate: str("not a date")},
		{Quantity: str("1"), Price: str("5"), OrderNumber: str("ORD-4"), UserID: sql.NullInt64{}, ProductID: id(10), RiderID: id(100), DeliveryDate: str("2021-01-02")},
		{Quantity: str("1"), Price: str("5"), OrderNumber: str("ORD-5"), UserID: id(3), ProductID: sql.NullInt64{}, RiderID: id(100), DeliveryDate: str("2021-01-02")},
		{Quantity: str("1"), Price: str("5"), OrderNumber: str("ORD-6"), UserID: id(3), ProductID: id(10), RiderID: sql.NullInt64{}, DeliveryDate: str("2021-01-02")},
	}

	rows, stats := Facts(records)
	require.Len(t, rows, 4)

	for _, r := range rows {
		assert.Equal(t, SalesAmount(r.Quantity, r.UnitPrice), r.SalesAmount)
		assert.InDelta(t, float64(r.Quantity)*r.UnitPrice, r.SalesAmount, 0.005+1e-9)
		d, ok := DateFromKey(r.DateKey)
		require.True(t, ok)
		assert.Equal(t, d.Year()*10000+int(d.Month())*100+d.Day(), r.DateKey)
		assert.NotZero(t, r.CustomerKey)
		assert.NotZero(t, r.ProductKey)
		assert.NotZero(t, r.RiderKey)
	}

	assert.Equal(t, 100.0, rows[0].SalesAmount)
	assert.Equal(t, 20210102, rows[0].DateKey)
	assert.Equal(t, 60.02, rows[1].SalesAmount)
	assert.Equal(t, 20210103, rows[1].DateKey)

	// Quantity mean over the batch: (2+3+4+1+1+1)/6 = 2
	assert.Equal(t, int64(2), rows[2].Quantity)
	assert.Equal(t, 20.0, rows[2].SalesAmount)

	// Price mean over the batch and the most common date
	assert.InDelta(t, (50+20.005+10+5+5+5)/6.0, rows[3].UnitPrice, 1e-9)
	assert.Equal(t, 20210102, rows[3].DateKey)

	assert.Equal(t, 7, stats.Input)
	assert.Equal(t, 4, stats.Output)
	assert.Equal(t, map[string]int{DropNoCustomer: 1, DropNoProduct: 1, DropNoRider: 1}, stats.Dropped)
}

func TestFactsWithoutAnyDates(t *testing.T) {
	records := []source.SaleRecord{
		{Quantity: str("1"), Price: sql.NullString{}, OrderNumber: str("A"), UserID: id(1), ProductID: id(1), RiderID: id(1), DeliveryDate: str("??")},
	}
	rows, stats := Facts(records)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.Dropped[DropMissingDate])

	none, _ := Facts(nil)
	assert.Nil(t, none)
}

func TestFactsAllNullMeasures(t *testing.T) {
	records := []source.SaleRecord{
		{OrderNumber: str("A"), UserID: id(1), ProductID: id(1), RiderID: id(1), DeliveryDate: str("2021-05-10")},
	}
	rows, _ := Facts(records)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Quantity)
	assert.Zero(t, rows[0].UnitPrice)
	assert.Zero(t, rows[0].SalesAmount)
}

func TestFactsNonFiniteMeasures(t *testing.T) {
	for _, bad := range []string{"NaN", "Inf", "-inf", "+Inf"} {
		records := []source.SaleRecord{
			{Quantity: str("2"), Price: str("10"), OrderNumber: str("A"), UserID: id(1), ProductID: id(1), RiderID: id(1), DeliveryDate: str("2021-05-10")},
			{Quantity: str(bad), Price: str(bad), OrderNumber: str("B"), UserID: id(1), ProductID: id(1), RiderID: id(1), DeliveryDate: str("2021-05-10")},
		}
		var rows []warehouse.FactRow
		require.NotPanics(t, func() { rows, _ = Facts(records) }, bad)
		require.Len(t, rows, 2, bad)

		// Imputed from the finite row only
		assert.Equal(t, int64(2), rows[1].Quantity, bad)
		assert.Equal(t, 10.0, rows[1].UnitPrice, bad)
		assert.Equal(t, 20.0, rows[1].SalesAmount, bad)
	}
}

func TestSalesAmountRounding(t *testing.T) {
	assert.Equal(t, 2.68, SalesAmount(1, 2.675))
	assert.Equal(t, 0.3, SalesAmount(3, 0.1))
	assert.Equal(t, -1.01, SalesAmount(1, -1.005))
}

func TestFilterReferences(t *testing.T) {
	rows := []warehouse.FactRow{
		{OrderNumber: "A", CustomerKey: 1, ProductKey: 10, RiderKey: 100, DateKey: 20210102},
		{OrderNumber: "B", CustomerKey: 9, ProductKey: 10, RiderKey: 100, DateKey: 20210102},
		{OrderNumber: "C", CustomerKey: 1, ProductKey: 99, RiderKey: 100, DateKey: 20210102},
		{OrderNumber: "D", CustomerKey: 1, ProductKey: 10, RiderKey: 999, DateKey: 20210102},
		{OrderNumber: "E", CustomerKey: 1, ProductKey: 10, RiderKey: 100, DateKey: 20991231},
	}
	refs := References{
		Users:    KeySet{1: {}},
		Products: KeysOf([]warehouse.ProductRow{{ProductKey: 10}}, func(p warehouse.ProductRow) int64 { return p.ProductKey }),
		Riders:   KeySet{100: {}},
		Dates:    KeySet{20210102: {}},
	}

	out, stats := FilterReferences(rows, refs)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].OrderNumber)
	assert.Equal(t, map[string]int{
		DropDanglingUser: 1, DropDanglingProduct: 1, DropDanglingRider: 1, DropDanglingDate: 1,
	}, stats.Dropped)

	// Nil sets skip the check
	out, _ = FilterReferences(rows, References{})
	assert.Len(t, out, 5)

	minKey, maxKey := DateSpan(rows)
	assert.Equal(t, 20210102, minKey)
	assert.Equal(t, 20991231, maxKey)
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Table: "fact_sales", Input: 10, Output: 8, Dropped: map[string]int{DropNoRider: 2}}
	b := Stats{Table: "fact_sales", Input: 8, Output: 7, Dropped: map[string]int{DropDanglingUser: 1}}
	m := a.Merge(b)
	assert.Equal(t, 10, m.Input)
	assert.Equal(t, 7, m.Output)
	assert.Equal(t, 3, m.DroppedTotal())
	m.Log()
}

func TestModeKeyTies(t *testing.T) {
	lines := []saleLine{{dateKey: 20210510}, {dateKey: 20210102}, {dateKey: 0}, {dateKey: 20210510}, {dateKey: 20210102}}
	assert.Equal(t, 20210102, modeKey(lines))
	assert.Equal(t, 0, modeKey([]saleLine{{dateKey: 0}}))
}
