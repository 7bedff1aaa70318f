package olap

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Cache lifetimes per operation kind.
const (
	shortTTL = 5 * time.Minute
	longTTL  = 10 * time.Minute
)

// Shared measure expressions. Orders are counted by distinct order number
// because one order spans several fact rows.
const (
	ordersExpr = "COUNT(DISTINCT fs.order_number)"
	aovExpr    = "SUM(fs.sales_amount)/NULLIF(COUNT(DISTINCT fs.order_number),0)"

	measures = ordersExpr + ` AS total_orders,
    SUM(fs.sales_amount) AS total_sales,
    SUM(fs.quantity) AS total_quantity,
    ` + aovExpr + ` AS avg_order_value`
)

// Roll-up

func rollupByYearQuery() Query {
	return Query{Name: "rollup_year", TTL: shortTTL, SQL: `
SELECT
    dd.year,
    ` + measures + `
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.year
ORDER BY dd.year`}
}

func rollupByQuarterQuery() Query {
	return Query{Name: "rollup_quarter", TTL: shortTTL, SQL: `
SELECT
    dd.year,
    dd.quarter,
    ` + measures + `
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.year, dd.quarter
ORDER BY dd.year, dd.quarter`}
}

func rollupByCategoryQuery() Query {
	return Query{Name: "rollup_category", TTL: shortTTL, SQL: `
SELECT
    dp.category,
    ` + measures + `,
    COUNT(DISTINCT dp.product_key) AS product_count
FROM fact_sales fs
JOIN dim_product dp ON fs.product_key = dp.product_key
GROUP BY dp.category
ORDER BY total_sales DESC`}
}

func rollupByCourierQuery() Query {
	return Query{Name: "rollup_courier", TTL: shortTTL, SQL: `
SELECT
    dr.courier_name,
    ` + measures + `,
    COUNT(DISTINCT fs.rider_key) AS rider_count
FROM fact_sales fs
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
GROUP BY dr.courier_name
ORDER BY total_sales DESC`}
}

func rollupByContinentQuery() Query {
	return Query{Name: "rollup_continent", TTL: shortTTL, SQL: `
SELECT
    du.continent,
    ` + measures + `,
    COUNT(DISTINCT du.country) AS country_count
FROM fact_sales fs
JOIN dim_user du ON fs.customer_key = du.user_key
GROUP BY du.continent
ORDER BY total_sales DESC`}
}

// Drill-down

func drillYearToMonthQuery(year int) Query {
	return Query{Name: "drilldown_year_month", TTL: shortTTL, Args: []any{year}, SQL: `
SELECT
    dd.year,
    dd.month,
    dd.month_name,
    ` + measures + `
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
WHERE dd.year = ?
GROUP BY dd.year, dd.month, dd.month_name
ORDER BY dd.month`}
}

func drillMonthToDayQuery(year, month int) Query {
	return Query{Name: "drilldown_month_day", TTL: shortTTL, Args: []any{year, month}, SQL: `
SELECT
    dd.full_date,
    dd.day_name,
    dd.is_weekend,
    ` + measures + `
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
WHERE dd.year = ? AND dd.month = ?
GROUP BY dd.full_date, dd.day_name, dd.is_weekend
ORDER BY dd.full_date`}
}

func drillCategoryToProductQuery(category string) Query {
	return Query{Name: "drilldown_category_product", TTL: shortTTL, Args: []any{category}, SQL: `
SELECT
    dp.category,
    dp.product_name,
    dp.price,
    ` + measures + `
FROM fact_sales fs
JOIN dim_product dp ON fs.product_key = dp.product_key
WHERE dp.category = ?
GROUP BY dp.category, dp.product_name, dp.price
ORDER BY total_sales DESC`}
}

func drillCourierToVehicleQuery(courier string) Query {
	return Query{Name: "drilldown_courier_vehicle", TTL: shortTTL, Args: []any{courier}, SQL: `
SELECT
    dr.courier_name,
    dr.vehicleType AS vehicle_type,
    ` + measures + `,
    COUNT(DISTINCT fs.rider_key) AS rider_count
FROM fact_sales fs
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
WHERE dr.courier_name = ?
GROUP BY dr.courier_name, dr.vehicleType
ORDER BY total_sales DESC`}
}

func drillContinentToCountryQuery(continent string) Query {
	return Query{Name: "drilldown_continent_country", TTL: shortTTL, Args: []any{continent}, SQL: `
SELECT
    du.continent,
    du.country,
    ` + measures + `,
    COUNT(DISTINCT du.city) AS city_count
FROM fact_sales fs
JOIN dim_user du ON fs.customer_key = du.user_key
WHERE du.continent = ?
GROUP BY du.continent, du.country
ORDER BY total_sales DESC`}
}

// Slice

const sliceJoins = `
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
JOIN dim_product dp ON fs.product_key = dp.product_key
JOIN dim_user du ON fs.customer_key = du.user_key`

func sliceByYearQuery(year int) Query {
	return Query{Name: "slice_year", TTL: shortTTL, Args: []any{year}, SQL: `
SELECT
    dd.year,
    dd.month_name,
    dp.category,
    du.city,
    ` + measures + sliceJoins + `
WHERE dd.year = ?
GROUP BY dd.year, dd.month_name, dp.category, du.city
ORDER BY total_sales DESC`}
}

func sliceByCategoryQuery(category string) Query {
	return Query{Name: "slice_category", TTL: shortTTL, Args: []any{category}, SQL: `
SELECT
    dd.year,
    dd.month_name,
    dp.category,
    dp.product_name,
    du.city,
    ` + measures + sliceJoins + `
WHERE dp.category = ?
GROUP BY dd.year, dd.month_name, dp.category, dp.product_name, du.city
ORDER BY total_sales DESC`}
}

func sliceByCityQuery(city string) Query {
	return Query{Name: "slice_city", TTL: shortTTL, Args: []any{city}, SQL: `
SELECT
    dd.year,
    dd.month_name,
    dp.category,
    dp.product_name,
    du.city,
    ` + measures + sliceJoins + `
WHERE du.city = ?
GROUP BY dd.year, dd.month_name, dp.category, dp.product_name, du.city
ORDER BY total_sales DESC`}
}

func sliceByCourierQuery(courier string) Query {
	return Query{Name: "slice_courier", TTL: shortTTL, Args: []any{courier}, SQL: `
SELECT
    dr.courier_name,
    dd.year,
    dd.month_name,
    dp.category,
    du.city,
    dr.vehicleType AS vehicle_type,
    ` + measures + sliceJoins + `
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
WHERE dr.courier_name = ?
GROUP BY dr.courier_name, dd.year, dd.month_name, dp.category, du.city, dr.vehicleType
ORDER BY dd.year, dd.month_name, total_sales DESC`}
}

func sliceByMonthQuery(year, month int) Query {
	return Query{Name: "slice_month", TTL: shortTTL, Args: []any{year, month}, SQL: `
SELECT
    dd.year,
    dd.month,
    dd.month_name,
    dp.category,
    du.city,
    ` + measures + sliceJoins + `
WHERE dd.year = ? AND dd.month = ?
GROUP BY dd.year, dd.month, dd.month_name, dp.category, du.city
ORDER BY total_sales DESC`}
}

// Dice

// DiceFilter fixes several values across several dimensions. Empty lists
// do not filter.
type DiceFilter struct {
	Years      []int    `json:"years,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Cities     []string `json:"cities,omitempty"`
	Couriers   []string `json:"couriers,omitempty"`
}

func diceQuery(f DiceFilter) (Query, error) {
	var clauses []string
	var args []any
	add := func(column string, n int, values any) {
		if n == 0 {
			return
		}
		clauses = append(clauses, column+" IN (?)")
		args = append(args, values)
	}
	add("dd.year", len(f.Years), f.Years)
	add("dp.category", len(f.Categories), f.Categories)
	add("du.city", len(f.Cities), f.Cities)
	add("dr.courier_name", len(f.Couriers), f.Couriers)

	where := "1=1"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}

	q := Query{Name: "dice", TTL: longTTL, SQL: `
SELECT
    dd.year,
    dd.month_name,
    dp.category,
    dp.product_name,
    du.city,
    dr.courier_name,
    dr.vehicleType AS vehicle_type,
    ` + measures + sliceJoins + `
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
WHERE ` + where + `
GROUP BY dd.year, dd.month_name, dp.category, dp.product_name, du.city, dr.courier_name, dr.vehicleType
ORDER BY total_sales DESC`}

	if len(args) == 0 {
		return q, nil
	}
	expanded, expandedArgs, err := sqlx.In(q.SQL, args...)
	if err != nil {
		return q, fmt.Errorf("failed to expand dice filter: %w", err)
	}
	q.SQL, q.Args = expanded, expandedArgs
	return q, nil
}

// Pivot sources

func pivotCategoryByMonthQuery() Query {
	return Query{Name: "pivot_category_month", TTL: longTTL, SQL: `
SELECT
    dp.category,
    dd.month,
    dd.month_name,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
JOIN dim_product dp ON fs.product_key = dp.product_key
GROUP BY dp.category, dd.month, dd.month_name
ORDER BY dd.month, dp.category`}
}

func pivotCityByCategoryQuery() Query {
	return Query{Name: "pivot_city_category", TTL: longTTL, SQL: `
SELECT
    du.city,
    dp.category,
    SUM(fs.sales_amount) AS total_sales,
    ` + ordersExpr + ` AS total_orders
FROM fact_sales fs
JOIN dim_user du ON fs.customer_key = du.user_key
JOIN dim_product dp ON fs.product_key = dp.product_key
GROUP BY du.city, dp.category
ORDER BY dp.category, du.city`}
}

func pivotYearByQuarterQuery() Query {
	return Query{Name: "pivot_year_quarter", TTL: longTTL, SQL: `
SELECT
    dd.year,
    dd.quarter,
    SUM(fs.sales_amount) AS total_sales,
    ` + ordersExpr + ` AS total_orders
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.year, dd.quarter
ORDER BY dd.quarter, dd.year`}
}

// Trends

func salesPerMonthQuery() Query {
	return Query{Name: "trend_month", SQL: `
SELECT
    dd.year,
    dd.month,
    dd.month_name,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.year, dd.month, dd.month_name
ORDER BY dd.year, dd.month`}
}

func salesPerYearQuery() Query {
	return Query{Name: "trend_year", SQL: `
SELECT
    dd.year,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.year
ORDER BY dd.year`}
}

func salesByWeekdayQuery() Query {
	return Query{Name: "trend_weekday", SQL: `
SELECT
    dd.day_name,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.day_name`}
}

func salesWeekendQuery() Query {
	return Query{Name: "trend_weekend", SQL: `
SELECT
    dd.is_weekend,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.is_weekend
ORDER BY dd.is_weekend`}
}

func dailySalesQuery() Query {
	return Query{Name: "trend_daily", SQL: `
SELECT
    dd.full_date,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_date dd ON fs.date_key = dd.date_key
GROUP BY dd.full_date
ORDER BY dd.full_date`}
}

// Rider analytics

func courierVehicleQuery() Query {
	return Query{Name: "rider_courier_vehicle", SQL: `
SELECT
    dr.courier_name,
    dr.vehicleType AS vehicle_type,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
GROUP BY dr.courier_name, dr.vehicleType
ORDER BY dr.courier_name, dr.vehicleType`}
}

func riderGenderQuery() Query {
	return Query{Name: "rider_gender", SQL: `
SELECT
    dr.courier_name,
    SUM(CASE WHEN dr.gender = 'Male' THEN fs.sales_amount ELSE 0 END) AS male_sales,
    SUM(CASE WHEN dr.gender = 'Female' THEN fs.sales_amount ELSE 0 END) AS female_sales,
    SUM(fs.sales_amount) AS total_sales
FROM fact_sales fs
JOIN dim_rider dr ON fs.rider_key = dr.rider_key
GROUP BY dr.courier_name
ORDER BY dr.courier_name`}
}

// Helper lists

func distinctQuery(name, column, alias, table string) Query {
	return Query{
		Name: name,
		TTL:  longTTL,
		SQL:  fmt.Sprintf("SELECT DISTINCT %s AS %s FROM %s ORDER BY %s", column, alias, table, column),
	}
}

// Summary KPIs

func totalSalesQuery() Query {
	return Query{Name: "kpi_total_sales", SQL: "SELECT SUM(sales_amount) AS total_sales FROM fact_sales"}
}

func totalOrdersQuery() Query {
	return Query{Name: "kpi_total_orders", SQL: "SELECT COUNT(DISTINCT order_number) AS total_orders FROM fact_sales"}
}

func totalCustomersQuery() Query {
	return Query{Name: "kpi_total_customers", SQL: "SELECT COUNT(DISTINCT customer_key) AS total_customers FROM fact_sales"}
}

func averageOrderValueQuery() Query {
	return Query{Name: "kpi_avg_order_value", SQL: "SELECT SUM(sales_amount)/NULLIF(COUNT(DISTINCT order_number),0) AS avg_order_value FROM fact_sales"}
}
