package olap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salesdw/internal/olap"
	"github.com/pgEdge/pgedge-salesdw/internal/testutil"
)

func TestCatalogListing(t *testing.T) {
	names := olap.Names()
	assert.Equal(t, "rollup_year", names[0])
	assert.Contains(t, names, "dice")
	assert.Contains(t, names, "pivot_year_quarter")
	assert.Contains(t, names, "rider_courier_vehicle")
	assert.Contains(t, names, "list_vehicle_types")

	ops := olap.Operations()
	require.Len(t, ops, len(names))
	for i, op := range ops {
		assert.Equal(t, names[i], op.Name)
		assert.NotEmpty(t, op.Kind, op.Name)
		assert.NotEmpty(t, op.Description, op.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := olap.Lookup("rollup_galaxy")
	assert.ErrorIs(t, err, olap.ErrUnknownOperation)
}

func TestOperationParams(t *testing.T) {
	tests := []struct {
		op     string
		params olap.Params
		err    error
	}{
		{"drilldown_year_month", olap.Params{}, olap.ErrMissingParam},
		{"drilldown_year_month", olap.Params{"year": "  "}, olap.ErrMissingParam},
		{"drilldown_year_month", olap.Params{"year": "twenty"}, olap.ErrInvalidParam},
		{"drilldown_month_day", olap.Params{"year": "2021"}, olap.ErrMissingParam},
		{"drilldown_month_day", olap.Params{"year": "2021", "month": "13"}, olap.ErrInvalidParam},
		{"slice_city", olap.Params{}, olap.ErrMissingParam},
		{"dice", olap.Params{"years": "2021,abc"}, olap.ErrInvalidParam},
		{"dice", olap.Params{}, nil},
		{"rollup_year", olap.Params{"ignored": "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			op, err := olap.Lookup(tt.op)
			require.NoError(t, err)
			_, err = op.Query(tt.params)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestParamsLists(t *testing.T) {
	p := olap.Params{"cities": " Manila, ,Tokyo ", "years": "2020, 2021"}
	assert.Equal(t, []string{"Manila", "Tokyo"}, p.List("cities"))
	assert.Nil(t, p.List("couriers"))

	years, err := p.IntList("years")
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, years)
}

func TestOperationRun(t *testing.T) {
	conn := testutil.Warehouse(t)
	svc := olap.NewService(olap.NewDBExecutor(conn, 0, nil), conn.Dialect)
	ctx := context.Background()

	for _, op := range olap.Operations() {
		params := olap.Params{}
		for _, p := range op.Params {
			switch p.Name {
			case "year":
				params[p.Name] = "2021"
			case "month":
				params[p.Name] = "1"
			case "category":
				params[p.Name] = "Toys"
			case "courier":
				params[p.Name] = "FEDEX"
			case "continent":
				params[p.Name] = "Asia"
			case "city":
				params[p.Name] = "Manila"
			}
		}
		t.Run(op.Name, func(t *testing.T) {
			res, err := op.Run(ctx, svc, params)
			require.NoError(t, err)
			assert.NotEmpty(t, res.Columns)
			assert.NotEmpty(t, res.Rows)
		})
	}

	op, err := olap.Lookup("dice")
	require.NoError(t, err)
	res, err := op.Run(ctx, svc, olap.Params{"cities": "Tokyo,Berlin", "years": "2021"})
	require.NoError(t, err)
	assert.InDelta(t, 700, res.Sum("total_sales"), 0.001)

	op, err = olap.Lookup("pivot_year_quarter")
	require.NoError(t, err)
	res, err = op.Run(ctx, svc, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "Q1", "Q2"}, res.Columns)
}
