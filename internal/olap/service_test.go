package olap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/olap"
	"github.com/pgEdge/pgedge-salesdw/internal/testutil"
)

func newService(t *testing.T) *olap.Service {
	t.Helper()
	conn := testutil.Warehouse(t)
	return olap.NewService(olap.NewDBExecutor(conn, 0, nil), conn.Dialect)
}

// totals maps a label column to a numeric column.
func totals(res *olap.Result, key, value string) map[string]float64 {
	out := make(map[string]float64)
	for i, k := range res.Strings(key) {
		out[k] += res.Float(i, value)
	}
	return out
}

func TestRollups(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	t.Run("year", func(t *testing.T) {
		res, err := svc.RollupByYear(ctx)
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, "2021", res.Strings("year")[0])
		assert.Equal(t, float64(testutil.FixtureOrders), res.Float(0, "total_orders"))
		assert.InDelta(t, testutil.FixtureTotalSales, res.Float(0, "total_sales"), 0.001)
		assert.InDelta(t, 262.5, res.Float(0, "avg_order_value"), 0.001)
		assert.Equal(t, "rollup_year", res.Name)
		assert.NotEmpty(t, res.SQL)
	})

	t.Run("quarter", func(t *testing.T) {
		res, err := svc.RollupByQuarter(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"1": 750, "2": 300}, totals(res, "quarter", "total_sales"))
		assert.Equal(t, map[string]float64{"1": 3, "2": 1}, totals(res, "quarter", "total_orders"))
	})

	t.Run("category", func(t *testing.T) {
		res, err := svc.RollupByCategory(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"Toys": 600, "Electronics": 400, "Bags": 50},
			totals(res, "category", "total_sales"))
		assert.Equal(t, []string{"Toys", "Electronics", "Bags"}, res.Strings("category"))
		assert.NotEqual(t, -1, res.Column("product_count"))
	})

	t.Run("courier", func(t *testing.T) {
		res, err := svc.RollupByCourier(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"FEDEX": 500, "UPS": 300, "DHL": 250},
			totals(res, "courier_name", "total_sales"))
		assert.Equal(t, map[string]float64{"FEDEX": 1, "UPS": 1, "DHL": 1},
			totals(res, "courier_name", "rider_count"))
	})

	t.Run("continent", func(t *testing.T) {
		res, err := svc.RollupByContinent(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"Asia": 650, "Europe": 400},
			totals(res, "continent", "total_sales"))
		assert.Equal(t, map[string]float64{"Asia": 2, "Europe": 1},
			totals(res, "continent", "country_count"))
	})
}

func TestDrilldowns(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.DrillYearToMonth(ctx, 2021)
	require.NoError(t, err)
	assert.Equal(t, []string{"January", "May"}, res.Strings("month_name"))
	assert.InDelta(t, 750, res.Float(0, "total_sales"), 0.001)

	res, err = svc.DrillYearToMonth(ctx, 1999)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	res, err = svc.DrillMonthToDay(ctx, 2021, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01-02", "2021-01-03"}, res.Strings("full_date"))
	assert.Equal(t, []string{"Saturday", "Sunday"}, res.Strings("day_name"))
	assert.InDelta(t, 500, res.Float(0, "total_sales"), 0.001)
	assert.InDelta(t, 250, res.Float(1, "total_sales"), 0.001)
	// Two lines of one order count once.
	assert.Equal(t, float64(1), res.Float(1, "total_orders"))
	assert.InDelta(t, 250, res.Float(1, "avg_order_value"), 0.001)

	res, err = svc.DrillCategoryToProduct(ctx, "Toys")
	require.NoError(t, err)
	assert.Equal(t, []string{"Toy Car"}, res.Strings("product_name"))
	assert.Equal(t, float64(2), res.Float(0, "total_orders"))

	res, err = svc.DrillCourierToVehicle(ctx, "FEDEX")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Motorcycle": 500}, totals(res, "vehicle_type", "total_sales"))

	res, err = svc.DrillContinentToCountry(ctx, "Asia")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Philippines": 350, "Japan": 300}, totals(res, "country", "total_sales"))
}

func TestSlices(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.SliceByYear(ctx, 2021)
	require.NoError(t, err)
	assert.InDelta(t, testutil.FixtureTotalSales, res.Sum("total_sales"), 0.001)

	res, err = svc.SliceByCategory(ctx, "Electronics")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Manila": 100, "Tokyo": 300}, totals(res, "city", "total_sales"))

	res, err = svc.SliceByCity(ctx, "Manila")
	require.NoError(t, err)
	assert.InDelta(t, 350, res.Sum("total_sales"), 0.001)

	res, err = svc.SliceByMonth(ctx, 2021, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Manila": 3, "Berlin": 1}, totals(res, "city", "total_orders"))

	res, err = svc.SliceByCourier(ctx, "DHL")
	require.NoError(t, err)
	assert.InDelta(t, 250, res.Sum("total_sales"), 0.001)
	assert.Equal(t, []string{"DHL", "DHL"}, res.Strings("courier_name"))

	res, err = svc.SliceByMonth(ctx, 2021, 5)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Tokyo", res.Strings("city")[0])
}

func TestDice(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	all, err := svc.Dice(ctx, olap.DiceFilter{})
	require.NoError(t, err)
	assert.InDelta(t, testutil.FixtureTotalSales, all.Sum("total_sales"), 0.001)
	assert.Empty(t, all.Args)

	res, err := svc.Dice(ctx, olap.DiceFilter{
		Years:      []int{2021},
		Categories: []string{"Toys", "Bags"},
		Couriers:   []string{"DHL"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 250, res.Sum("total_sales"), 0.001)
	assert.Len(t, res.Args, 4)

	res, err = svc.Dice(ctx, olap.DiceFilter{Cities: []string{"Nowhere"}})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestPivots(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.PivotCategoryByMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "January", "May"}, res.Columns)
	assert.Equal(t, [][]any{
		{"Bags", 50.0, 0.0},
		{"Electronics", 100.0, 300.0},
		{"Toys", 600.0, 0.0},
	}, res.Rows)

	res, err = svc.PivotCityByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "Bags", "Electronics", "Toys"}, res.Columns)
	assert.Equal(t, []string{"Berlin", "Manila", "Tokyo"}, res.Strings("city"))

	res, err = svc.PivotYearByQuarter(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "Q1", "Q2"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.InDelta(t, 750, res.Float(0, "Q1"), 0.001)
	assert.InDelta(t, 300, res.Float(0, "Q2"), 0.001)
}

func TestTrends(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.SalesPerMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"January", "May"}, res.Strings("month_name"))

	res, err = svc.SalesPerYear(ctx)
	require.NoError(t, err)
	assert.InDelta(t, testutil.FixtureTotalSales, res.Sum("total_sales"), 0.001)

	res, err = svc.SalesByWeekday(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Saturday", "Sunday"}, res.Strings("day_name"))

	res, err = svc.SalesWeekendVsWeekday(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"N": 300, "Y": 750}, totals(res, "is_weekend", "total_sales"))

	res, err = svc.DailySales(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01-02", "2021-01-03", "2021-05-10"}, res.Strings("full_date"))
}

func TestRiderAnalytics(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.CourierVehicleRollup(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"DHL", "Bicycle"},
		{"DHL", olap.AllVehicleTypes},
		{"FEDEX", "Motorcycle"},
		{"FEDEX", olap.AllVehicleTypes},
		{"UPS", "Car"},
		{"UPS", olap.AllVehicleTypes},
		{olap.AllCouriers, olap.AllVehicleTypes},
	}, pairs(res, "courier_name", "vehicle_type"))
	assert.InDelta(t, testutil.FixtureTotalSales, res.Float(len(res.Rows)-1, "total_sales"), 0.001)

	res, err = svc.RiderGenderPivot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"DHL": 0, "FEDEX": 500, "UPS": 300}, totals(res, "courier_name", "male_sales"))
	assert.Equal(t, map[string]float64{"DHL": 250, "FEDEX": 0, "UPS": 0}, totals(res, "courier_name", "female_sales"))
}

func pairs(res *olap.Result, a, b string) [][]string {
	as, bs := res.Strings(a), res.Strings(b)
	out := make([][]string, len(as))
	for i := range as {
		out[i] = []string{as[i], bs[i]}
	}
	return out
}

func TestHelperLists(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for name, tc := range map[string]struct {
		run    func(context.Context) (*olap.Result, error)
		column string
		want   []string
	}{
		"years":         {svc.Years, "year", []string{"2021"}},
		"categories":    {svc.Categories, "category", []string{"Bags", "Electronics", "Toys"}},
		"cities":        {svc.Cities, "city", []string{"Berlin", "Manila", "Tokyo"}},
		"couriers":      {svc.Couriers, "courier_name", []string{"DHL", "FEDEX", "UPS"}},
		"vehicle types": {svc.VehicleTypes, "vehicle_type", []string{"Bicycle", "Car", "Motorcycle"}},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := tc.run(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Strings(tc.column))
		})
	}
}

func TestSummary(t *testing.T) {
	svc := newService(t)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, testutil.FixtureTotalSales, sum.TotalSales, 0.001)
	assert.Equal(t, int64(testutil.FixtureOrders), sum.TotalOrders)
	assert.Equal(t, int64(3), sum.TotalCustomers)
	assert.InDelta(t, 262.5, sum.AvgOrderValue, 0.001)
}

func TestSummaryEmptyWarehouse(t *testing.T) {
	conn := testutil.OpenMemory(t)
	svc := olap.NewService(olap.NewDBExecutor(conn, 0, nil), conn.Dialect)

	_, err := svc.Summary(context.Background())
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	op, err := olap.Lookup("slice_year")
	require.NoError(t, err)
	q, err := op.Query(olap.Params{"year": "2021"})
	require.NoError(t, err)

	plan, err := svc.Explain(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "slice_year_explain", plan.Name)
	assert.NotEmpty(t, plan.Rows)
	assert.Contains(t, plan.SQL, "EXPLAIN QUERY PLAN")
}

func TestExplainUnsupported(t *testing.T) {
	svc := olap.NewService(nil, db.SQLServer)

	_, err := svc.Explain(context.Background(), olap.Query{Name: "x", SQL: "SELECT 1"})
	assert.ErrorIs(t, err, olap.ErrExplainUnsupported)
}
