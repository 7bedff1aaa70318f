package transform

import (
	"database/sql"
	"math"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-salesdw/internal/etl/source"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// Drop reasons for rows whose keys are missing from a dimension.
const (
	DropDanglingUser    = "dangling_user"
	DropDanglingProduct = "dangling_product"
	DropDanglingRider   = "dangling_rider"
	DropDanglingDate    = "dangling_date"
)

// SalesAmount returns quantity * unitPrice rounded half away from zero to
// two decimal places.
func SalesAmount(quantity int64, unitPrice float64) float64 {
	return decimal.NewFromInt(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(2).
		InexactFloat64()
}

// saleLine is a sale record after renaming and coercion.
type saleLine struct {
	orderNumber string
	customer    sql.NullInt64
	product     sql.NullInt64
	rider       sql.NullInt64
	quantity    sql.NullFloat64
	unitPrice   sql.NullFloat64
	dateKey     int
}

// Facts builds fact_sales rows from raw order lines. Missing quantities and
// prices take the batch mean, missing dates take the most common date key,
// and rows without a customer, product, rider or date are dropped. An empty
// input yields nil.
func Facts(records []source.SaleRecord) ([]warehouse.FactRow, Stats) {
	stats := newStats(warehouse.FactSales, len(records))
	if len(records) == 0 {
		return nil, stats
	}

	lines := make([]saleLine, len(records))
	for i, r := range records {
		line := saleLine{
			orderNumber: orUnknown(text(r.OrderNumber)),
			customer:    r.UserID,
			product:     r.ProductID,
			rider:       r.RiderID,
			dateKey:     ParseDateKey(text(r.DeliveryDate)),
		}
		if q, ok := parseNumber(r.Quantity); ok {
			line.quantity = sql.NullFloat64{Float64: q, Valid: true}
		}
		if p, ok := parseNumber(r.Price); ok {
			line.unitPrice = sql.NullFloat64{Float64: p, Valid: true}
		}
		lines[i] = line
	}

	qtyMean := mean(lines, func(l saleLine) sql.NullFloat64 { return l.quantity })
	priceMean := mean(lines, func(l saleLine) sql.NullFloat64 { return l.unitPrice })
	dateMode := modeKey(lines)

	rows := make([]warehouse.FactRow, 0, len(lines))
	for _, l := range lines {
		if !l.quantity.Valid {
			l.quantity = sql.NullFloat64{Float64: qtyMean, Valid: true}
		}
		if !l.unitPrice.Valid {
			l.unitPrice = sql.NullFloat64{Float64: priceMean, Valid: true}
		}
		if l.dateKey == 0 {
			l.dateKey = dateMode
		}

		switch {
		case !l.customer.Valid:
			stats.drop(DropNoCustomer)
			continue
		case !l.product.Valid:
			stats.drop(DropNoProduct)
			continue
		case !l.rider.Valid:
			stats.drop(DropNoRider)
			continue
		case l.dateKey == 0:
			stats.drop(DropMissingDate)
			continue
		}

		qty := int64(math.Trunc(l.quantity.Float64))
		rows = append(rows, warehouse.FactRow{
			OrderNumber: l.orderNumber,
			CustomerKey: l.customer.Int64,
			ProductKey:  l.product.Int64,
			RiderKey:    l.rider.Int64,
			DateKey:     l.dateKey,
			Quantity:    qty,
			UnitPrice:   l.unitPrice.Float64,
			SalesAmount: SalesAmount(qty, l.unitPrice.Float64),
		})
	}

	stats.Output = len(rows)
	return rows, stats
}

// mean averages the non-null values of a column, or 0 when every value is
// null.
func mean(lines []saleLine, col func(saleLine) sql.NullFloat64) float64 {
	var sum float64
	n := 0
	for _, l := range lines {
		if v := col(l); v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// modeKey returns the most common non-zero date key, the smallest on ties,
// or 0 when no line has a date.
func modeKey(lines []saleLine) int {
	counts := make(map[int]int)
	for _, l := range lines {
		if l.dateKey != 0 {
			counts[l.dateKey]++
		}
	}

	best, bestCount := 0, 0
	for key, n := range counts {
		if n > bestCount || (n == bestCount && key < best) {
			best, bestCount = key, n
		}
	}
	return best
}

// References holds the dimension keys a fact row may point at. A nil set
// disables the check for that dimension.
type References struct {
	Users    KeySet
	Products KeySet
	Riders   KeySet
	Dates    KeySet
}

// FilterReferences drops fact rows whose keys are missing from a dimension.
func FilterReferences(rows []warehouse.FactRow, refs References) ([]warehouse.FactRow, Stats) {
	stats := newStats(warehouse.FactSales, len(rows))
	if rows == nil {
		return nil, stats
	}

	out := make([]warehouse.FactRow, 0, len(rows))
	for _, r := range rows {
		switch {
		case !refs.Users.Has(r.CustomerKey):
			stats.drop(DropDanglingUser)
		case !refs.Products.Has(r.ProductKey):
			stats.drop(DropDanglingProduct)
		case !refs.Riders.Has(r.RiderKey):
			stats.drop(DropDanglingRider)
		case !refs.Dates.Has(int64(r.DateKey)):
			stats.drop(DropDanglingDate)
		default:
			out = append(out, r)
		}
	}

	stats.Output = len(out)
	return out, stats
}

// DateSpan returns the smallest and largest date keys among rows.
func DateSpan(rows []warehouse.FactRow) (minKey, maxKey int) {
	for i, r := range rows {
		if i == 0 || r.DateKey < minKey {
			minKey = r.DateKey
		}
		if i == 0 || r.DateKey > maxKey {
			maxKey = r.DateKey
		}
	}
	return minKey, maxKey
}
