package olap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Catalog errors.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingParam     = errors.New("missing parameter")
	ErrInvalidParam     = errors.New("invalid parameter")
)

// Kind groups operations in listings and on the dashboard.
type Kind string

// Operation kinds.
const (
	KindRollup    Kind = "rollup"
	KindDrilldown Kind = "drilldown"
	KindSlice     Kind = "slice"
	KindDice      Kind = "dice"
	KindPivot     Kind = "pivot"
	KindTrend     Kind = "trend"
	KindRider     Kind = "rider"
	KindList      Kind = "list"
)

// ParamType describes how a parameter value is parsed.
type ParamType string

// Parameter types. List values are comma separated.
const (
	ParamString  ParamType = "string"
	ParamInt     ParamType = "int"
	ParamList    ParamType = "list"
	ParamIntList ParamType = "int_list"
)

// Param describes one operation parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
}

// Params holds raw parameter values by name.
type Params map[string]string

// String returns the trimmed value of a parameter.
func (p Params) String(name string) string {
	return strings.TrimSpace(p[name])
}

// Int parses an integer parameter.
func (p Params) Int(name string) (int, error) {
	v := p.String(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParam, name, v)
	}
	return n, nil
}

// List splits a comma-separated parameter, dropping blank items.
func (p Params) List(name string) []string {
	var out []string
	for _, item := range strings.Split(p[name], ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IntList splits and parses a comma-separated integer parameter.
func (p Params) IntList(name string) ([]int, error) {
	var out []int
	for _, item := range p.List(name) {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s contains %q", ErrInvalidParam, name, item)
		}
		out = append(out, n)
	}
	return out, nil
}

// Operation is a named, parameterized OLAP query.
type Operation struct {
	Name        string  `json:"name"`
	Kind        Kind    `json:"kind"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	build func(Params) (Query, error)
	post  func(*Result) (*Result, error)
}

// Query validates params and builds the operation's query.
func (o *Operation) Query(params Params) (Query, error) {
	for _, p := range o.Params {
		v := params.String(p.Name)
		if v == "" {
			if p.Required {
				return Query{}, fmt.Errorf("%w: %s requires %s", ErrMissingParam, o.Name, p.Name)
			}
			continue
		}
		switch p.Type {
		case ParamInt:
			if _, err := params.Int(p.Name); err != nil {
				return Query{}, err
			}
		case ParamIntList:
			if _, err := params.IntList(p.Name); err != nil {
				return Query{}, err
			}
		}
	}
	return o.build(params)
}

// Run executes the operation and applies any client-side reshaping.
func (o *Operation) Run(ctx context.Context, svc *Service, params Params) (*Result, error) {
	q, err := o.Query(params)
	if err != nil {
		return nil, err
	}
	res, err := svc.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	if o.post != nil {
		return o.post(res)
	}
	return res, nil
}

var (
	catalog = make(map[string]*Operation)
	order   []string
	mu      sync.RWMutex
)

// Register adds an operation to the catalog. Registering a name twice
// replaces the earlier operation.
func Register(op *Operation) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := catalog[op.Name]; !ok {
		order = append(order, op.Name)
	}
	catalog[op.Name] = op
}

// Lookup retrieves an operation by name.
func Lookup(name string) (*Operation, error) {
	mu.RLock()
	defer mu.RUnlock()

	op, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op, nil
}

// Names returns the registered operation names in registration order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return append([]string(nil), order...)
}

// Operations returns all registered operations in registration order.
func Operations() []*Operation {
	mu.RLock()
	defer mu.RUnlock()

	ops := make([]*Operation, 0, len(order))
	for _, name := range order {
		ops = append(ops, catalog[name])
	}
	return ops
}

func fixed(q func() Query) func(Params) (Query, error) {
	return func(Params) (Query, error) { return q(), nil }
}

func withInt(name string, q func(int) Query) func(Params) (Query, error) {
	return func(p Params) (Query, error) {
		n, err := p.Int(name)
		if err != nil {
			return Query{}, err
		}
		return q(n), nil
	}
}

func withString(name string, q func(string) Query) func(Params) (Query, error) {
	return func(p Params) (Query, error) { return q(p.String(name)), nil }
}

func withYearMonth(q func(year, month int) Query) func(Params) (Query, error) {
	return func(p Params) (Query, error) {
		year, err := p.Int("year")
		if err != nil {
			return Query{}, err
		}
		month, err := p.Int("month")
		if err != nil {
			return Query{}, err
		}
		if month < 1 || month > 12 {
			return Query{}, fmt.Errorf("%w: month=%d is out of range", ErrInvalidParam, month)
		}
		return q(year, month), nil
	}
}

func buildDice(p Params) (Query, error) {
	years, err := p.IntList("years")
	if err != nil {
		return Query{}, err
	}
	return diceQuery(DiceFilter{
		Years:      years,
		Categories: p.List("categories"),
		Cities:     p.List("cities"),
		Couriers:   p.List("couriers"),
	})
}

func pivotBy(row, col, value string) func(*Result) (*Result, error) {
	return func(res *Result) (*Result, error) {
		out, err := Pivot(res, row, col, value)
		if err != nil {
			return nil, err
		}
		return sortRows(out), nil
	}
}

var (
	yearParam      = Param{Name: "year", Type: ParamInt, Required: true, Description: "Calendar year"}
	monthParam     = Param{Name: "month", Type: ParamInt, Required: true, Description: "Month number 1-12"}
	categoryParam  = Param{Name: "category", Type: ParamString, Required: true, Description: "Product category"}
	courierParam   = Param{Name: "courier", Type: ParamString, Required: true, Description: "Courier name"}
	continentParam = Param{Name: "continent", Type: ParamString, Required: true, Description: "Customer continent"}
	cityParam      = Param{Name: "city", Type: ParamString, Required: true, Description: "Customer city"}
)

func init() {
	for _, op := range []*Operation{
		{Name: "rollup_year", Kind: KindRollup, Description: "Sales by year", build: fixed(rollupByYearQuery)},
		{Name: "rollup_quarter", Kind: KindRollup, Description: "Sales by year and quarter", build: fixed(rollupByQuarterQuery)},
		{Name: "rollup_category", Kind: KindRollup, Description: "Sales by product category", build: fixed(rollupByCategoryQuery)},
		{Name: "rollup_courier", Kind: KindRollup, Description: "Sales by courier", build: fixed(rollupByCourierQuery)},
		{Name: "rollup_continent", Kind: KindRollup, Description: "Sales by customer continent", build: fixed(rollupByContinentQuery)},

		{Name: "drilldown_year_month", Kind: KindDrilldown, Description: "Months of one year",
			Params: []Param{yearParam}, build: withInt("year", drillYearToMonthQuery)},
		{Name: "drilldown_month_day", Kind: KindDrilldown, Description: "Days of one month",
			Params: []Param{yearParam, monthParam}, build: withYearMonth(drillMonthToDayQuery)},
		{Name: "drilldown_category_product", Kind: KindDrilldown, Description: "Products of one category",
			Params: []Param{categoryParam}, build: withString("category", drillCategoryToProductQuery)},
		{Name: "drilldown_courier_vehicle", Kind: KindDrilldown, Description: "Vehicle types of one courier",
			Params: []Param{courierParam}, build: withString("courier", drillCourierToVehicleQuery)},
		{Name: "drilldown_continent_country", Kind: KindDrilldown, Description: "Countries of one continent",
			Params: []Param{continentParam}, build: withString("continent", drillContinentToCountryQuery)},

		{Name: "slice_year", Kind: KindSlice, Description: "Sales in one year",
			Params: []Param{yearParam}, build: withInt("year", sliceByYearQuery)},
		{Name: "slice_category", Kind: KindSlice, Description: "Sales in one category",
			Params: []Param{categoryParam}, build: withString("category", sliceByCategoryQuery)},
		{Name: "slice_city", Kind: KindSlice, Description: "Sales in one city",
			Params: []Param{cityParam}, build: withString("city", sliceByCityQuery)},
		{Name: "slice_courier", Kind: KindSlice, Description: "Sales delivered by one courier",
			Params: []Param{courierParam}, build: withString("courier", sliceByCourierQuery)},
		{Name: "slice_month", Kind: KindSlice, Description: "Sales in one month",
			Params: []Param{yearParam, monthParam}, build: withYearMonth(sliceByMonthQuery)},

		{Name: "dice", Kind: KindDice, Description: "Sales filtered on several dimensions",
			Params: []Param{
				{Name: "years", Type: ParamIntList, Description: "Comma-separated years"},
				{Name: "categories", Type: ParamList, Description: "Comma-separated categories"},
				{Name: "cities", Type: ParamList, Description: "Comma-separated cities"},
				{Name: "couriers", Type: ParamList, Description: "Comma-separated couriers"},
			},
			build: buildDice},

		{Name: "pivot_category_month", Kind: KindPivot, Description: "Categories by month",
			build: fixed(pivotCategoryByMonthQuery), post: pivotBy("category", "month_name", "total_sales")},
		{Name: "pivot_city_category", Kind: KindPivot, Description: "Cities by category",
			build: fixed(pivotCityByCategoryQuery), post: pivotBy("city", "category", "total_sales")},
		{Name: "pivot_year_quarter", Kind: KindPivot, Description: "Years by quarter",
			build: fixed(pivotYearByQuarterQuery),
			post: func(res *Result) (*Result, error) {
				out, err := pivotBy("year", "quarter", "total_sales")(res)
				if err != nil {
					return nil, err
				}
				return quarterLabels(out), nil
			}},

		{Name: "trend_month", Kind: KindTrend, Description: "Sales per month", build: fixed(salesPerMonthQuery)},
		{Name: "trend_year", Kind: KindTrend, Description: "Sales per year", build: fixed(salesPerYearQuery)},
		{Name: "trend_weekday", Kind: KindTrend, Description: "Sales by day of week",
			build: fixed(salesByWeekdayQuery),
			post:  func(res *Result) (*Result, error) { return orderWeekdays(res, "day_name"), nil }},
		{Name: "trend_weekend", Kind: KindTrend, Description: "Weekend vs weekday sales", build: fixed(salesWeekendQuery)},
		{Name: "trend_daily", Kind: KindTrend, Description: "Daily sales", build: fixed(dailySalesQuery)},

		{Name: "rider_courier_vehicle", Kind: KindRider, Description: "Sales by courier and vehicle type with subtotals",
			build: fixed(courierVehicleQuery),
			post: func(res *Result) (*Result, error) {
				return withSubtotals(res, AllCouriers, AllVehicleTypes), nil
			}},
		{Name: "rider_gender", Kind: KindRider, Description: "Male vs female rider sales per courier", build: fixed(riderGenderQuery)},

		{Name: "list_years", Kind: KindList, Description: "Years with dates",
			build: fixed(func() Query { return distinctQuery("list_years", "year", "year", "dim_date") })},
		{Name: "list_categories", Kind: KindList, Description: "Product categories",
			build: fixed(func() Query { return distinctQuery("list_categories", "category", "category", "dim_product") })},
		{Name: "list_cities", Kind: KindList, Description: "Customer cities",
			build: fixed(func() Query { return distinctQuery("list_cities", "city", "city", "dim_user") })},
		{Name: "list_couriers", Kind: KindList, Description: "Courier names",
			build: fixed(func() Query { return distinctQuery("list_couriers", "courier_name", "courier_name", "dim_rider") })},
		{Name: "list_vehicle_types", Kind: KindList, Description: "Rider vehicle types",
			build: fixed(func() Query { return distinctQuery("list_vehicle_types", "vehicleType", "vehicle_type", "dim_rider") })},
	} {
		Register(op)
	}
}
