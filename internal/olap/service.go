//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package olap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
)

// ErrExplainUnsupported is returned by Explain on dialects without a plain
// EXPLAIN statement.
var ErrExplainUnsupported = errors.New("explain is not supported for this dialect")

// Service runs the OLAP operations through an Executor.
type Service struct {
	exec    Executor
	dialect db.Dialect
}

// NewService creates a service. The dialect selects the EXPLAIN syntax.
func NewService(exec Executor, dialect db.Dialect) *Service {
	return &Service{exec: exec, dialect: dialect}
}

// Run executes a query.
func (s *Service) Run(ctx context.Context, q Query) (*Result, error) {
	return s.exec.Execute(ctx, q)
}

// Explain returns the query plan for q.
func (s *Service) Explain(ctx context.Context, q Query) (*Result, error) {
	prefix := s.dialect.ExplainPrefix()
	if prefix == "" {
		return nil, fmt.Errorf("%w: %s", ErrExplainUnsupported, s.dialect)
	}
	return s.exec.Execute(ctx, Query{
		Name: q.Name + "_explain",
		SQL:  prefix + strings.TrimSpace(q.SQL),
		Args: q.Args,
		TTL:  q.TTL,
	})
}

// Roll-up

// RollupByYear aggregates sales per year.
func (s *Service) RollupByYear(ctx context.Context) (*Result, error) {
	return s.Run(ctx, rollupByYearQuery())
}

// RollupByQuarter aggregates sales per year and quarter.
func (s *Service) RollupByQuarter(ctx context.Context) (*Result, error) {
	return s.Run(ctx, rollupByQuarterQuery())
}

// RollupByCategory aggregates sales per product category.
func (s *Service) RollupByCategory(ctx context.Context) (*Result, error) {
	return s.Run(ctx, rollupByCategoryQuery())
}

// RollupByCourier aggregates sales per courier.
func (s *Service) RollupByCourier(ctx context.Context) (*Result, error) {
	return s.Run(ctx, rollupByCourierQuery())
}

// RollupByContinent aggregates sales per customer continent.
func (s *Service) RollupByContinent(ctx context.Context) (*Result, error) {
	return s.Run(ctx, rollupByContinentQuery())
}

// Drill-down

// DrillYearToMonth breaks one year down into months.
func (s *Service) DrillYearToMonth(ctx context.Context, year int) (*Result, error) {
	return s.Run(ctx, drillYearToMonthQuery(year))
}

// DrillMonthToDay breaks one month down into days.
func (s *Service) DrillMonthToDay(ctx context.Context, year, month int) (*Result, error) {
	return s.Run(ctx, drillMonthToDayQuery(year, month))
}

// DrillCategoryToProduct breaks one category down into products.
func (s *Service) DrillCategoryToProduct(ctx context.Context, category string) (*Result, error) {
	return s.Run(ctx, drillCategoryToProductQuery(category))
}

// DrillCourierToVehicle breaks one courier down into vehicle types.
func (s *Service) DrillCourierToVehicle(ctx context.Context, courier string) (*Result, error) {
	return s.Run(ctx, drillCourierToVehicleQuery(courier))
}

// DrillContinentToCountry breaks one continent down into countries.
func (s *Service) DrillContinentToCountry(ctx context.Context, continent string) (*Result, error) {
	return s.Run(ctx, drillContinentToCountryQuery(continent))
}

// Slice

// SliceByYear fixes the year.
func (s *Service) SliceByYear(ctx context.Context, year int) (*Result, error) {
	return s.Run(ctx, sliceByYearQuery(year))
}

// SliceByCategory fixes the product category.
func (s *Service) SliceByCategory(ctx context.Context, category string) (*Result, error) {
	return s.Run(ctx, sliceByCategoryQuery(category))
}

// SliceByCity fixes the customer city.
func (s *Service) SliceByCity(ctx context.Context, city string) (*Result, error) {
	return s.Run(ctx, sliceByCityQuery(city))
}

// SliceByCourier fixes the courier.
func (s *Service) SliceByCourier(ctx context.Context, courier string) (*Result, error) {
	return s.Run(ctx, sliceByCourierQuery(courier))
}

// SliceByMonth fixes the year and month.
func (s *Service) SliceByMonth(ctx context.Context, year, month int) (*Result, error) {
	return s.Run(ctx, sliceByMonthQuery(year, month))
}

// Dice filters on several values across years, categories, cities and
// couriers at once.
func (s *Service) Dice(ctx context.Context, f DiceFilter) (*Result, error) {
	q, err := diceQuery(f)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, q)
}

// Pivot

// PivotCategoryByMonth returns categories as rows and months as columns.
func (s *Service) PivotCategoryByMonth(ctx context.Context) (*Result, error) {
	return s.pivot(ctx, pivotCategoryByMonthQuery(), "category", "month_name", "total_sales")
}

// PivotCityByCategory returns cities as rows and categories as columns.
func (s *Service) PivotCityByCategory(ctx context.Context) (*Result, error) {
	return s.pivot(ctx, pivotCityByCategoryQuery(), "city", "category", "total_sales")
}

// PivotYearByQuarter returns years as rows and quarters as columns.
func (s *Service) PivotYearByQuarter(ctx context.Context) (*Result, error) {
	res, err := s.pivot(ctx, pivotYearByQuarterQuery(), "year", "quarter", "total_sales")
	if err != nil {
		return nil, err
	}
	return quarterLabels(res), nil
}

func (s *Service) pivot(ctx context.Context, q Query, row, col, value string) (*Result, error) {
	res, err := s.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	return pivotBy(row, col, value)(res)
}

// Trends

// SalesPerMonth returns total sales per year and month.
func (s *Service) SalesPerMonth(ctx context.Context) (*Result, error) {
	return s.Run(ctx, salesPerMonthQuery())
}

// SalesPerYear returns total sales per year.
func (s *Service) SalesPerYear(ctx context.Context) (*Result, error) {
	return s.Run(ctx, salesPerYearQuery())
}

// SalesByWeekday returns total sales per day of the week, Monday first.
func (s *Service) SalesByWeekday(ctx context.Context) (*Result, error) {
	res, err := s.Run(ctx, salesByWeekdayQuery())
	if err != nil {
		return nil, err
	}
	return orderWeekdays(res, "day_name"), nil
}

// SalesWeekendVsWeekday returns total sales split by the weekend flag.
func (s *Service) SalesWeekendVsWeekday(ctx context.Context) (*Result, error) {
	return s.Run(ctx, salesWeekendQuery())
}

// DailySales returns total sales per calendar day.
func (s *Service) DailySales(ctx context.Context) (*Result, error) {
	return s.Run(ctx, dailySalesQuery())
}

// Rider analytics

// CourierVehicleRollup returns sales per courier and vehicle type with a
// subtotal row per courier and a grand total.
func (s *Service) CourierVehicleRollup(ctx context.Context) (*Result, error) {
	res, err := s.Run(ctx, courierVehicleQuery())
	if err != nil {
		return nil, err
	}
	return withSubtotals(res, AllCouriers, AllVehicleTypes), nil
}

// RiderGenderPivot compares male and female rider sales per courier.
func (s *Service) RiderGenderPivot(ctx context.Context) (*Result, error) {
	return s.Run(ctx, riderGenderQuery())
}

// Helper lists

// Years lists the years in dim_date.
func (s *Service) Years(ctx context.Context) (*Result, error) {
	return s.Run(ctx, distinctQuery("list_years", "year", "year", "dim_date"))
}

// Categories lists the product categories.
func (s *Service) Categories(ctx context.Context) (*Result, error) {
	return s.Run(ctx, distinctQuery("list_categories", "category", "category", "dim_product"))
}

// Cities lists the customer cities.
func (s *Service) Cities(ctx context.Context) (*Result, error) {
	return s.Run(ctx, distinctQuery("list_cities", "city", "city", "dim_user"))
}

// Couriers lists the courier names.
func (s *Service) Couriers(ctx context.Context) (*Result, error) {
	return s.Run(ctx, distinctQuery("list_couriers", "courier_name", "courier_name", "dim_rider"))
}

// VehicleTypes lists the rider vehicle types.
func (s *Service) VehicleTypes(ctx context.Context) (*Result, error) {
	return s.Run(ctx, distinctQuery("list_vehicle_types", "vehicleType", "vehicle_type", "dim_rider"))
}

// Summary holds the headline KPIs.
type Summary struct {
	TotalSales     float64 `json:"total_sales"`
	TotalOrders    int64   `json:"total_orders"`
	TotalCustomers int64   `json:"total_customers"`
	AvgOrderValue  float64 `json:"avg_order_value"`
}

// Summary fetches the headline KPIs concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	scalar := func(q Query, set func(float64)) func() error {
		return func() error {
			res, err := s.Run(ctx, q)
			if err != nil {
				return err
			}
			if len(res.Rows) > 0 && len(res.Columns) > 0 {
				set(res.Float(0, res.Columns[0]))
			}
			return nil
		}
	}
	g.Go(scalar(totalSalesQuery(), func(v float64) { sum.TotalSales = v }))
	g.Go(scalar(totalOrdersQuery(), func(v float64) { sum.TotalOrders = int64(v) }))
	g.Go(scalar(totalCustomersQuery(), func(v float64) { sum.TotalCustomers = int64(v) }))
	g.Go(scalar(averageOrderValueQuery(), func(v float64) { sum.AvgOrderValue = v }))

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
