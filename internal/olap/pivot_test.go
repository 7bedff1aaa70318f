package olap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivot(t *testing.T) {
	res := &Result{
		Name:    "p",
		Columns: []string{"region", "month", "sales"},
		Rows: [][]any{
			{"East", "Jan", int64(10)},
			{"West", "Jan", 5.5},
			{"East", "Feb", int64(3)},
			{"East", "Jan", int64(2)},
		},
	}

	out, err := Pivot(res, "region", "month", "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "Jan", "Feb"}, out.Columns)
	assert.Equal(t, [][]any{
		{"East", 12.0, 3.0},
		{"West", 5.5, 0.0},
	}, out.Rows)
	assert.Len(t, res.Rows, 4, "input is not modified")
}

func TestPivotMissingColumn(t *testing.T) {
	res := &Result{Name: "p", Columns: []string{"a", "b"}}
	_, err := Pivot(res, "a", "b", "c")
	assert.ErrorContains(t, err, `no column "c"`)
}

func TestPivotEmpty(t *testing.T) {
	res := &Result{Name: "p", Columns: []string{"a", "b", "c"}, Rows: [][]any{}}
	out, err := Pivot(res, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Columns)
	assert.Empty(t, out.Rows)
}

func TestSortRows(t *testing.T) {
	res := &Result{Rows: [][]any{{int64(10)}, {int64(9)}, {int64(2021)}}}
	sortRows(res)
	assert.Equal(t, [][]any{{int64(9)}, {int64(10)}, {int64(2021)}}, res.Rows)

	res = &Result{Rows: [][]any{{"b"}, {nil}, {"a"}}}
	sortRows(res)
	assert.Equal(t, [][]any{{nil}, {"a"}, {"b"}}, res.Rows)
}

func TestOrderWeekdays(t *testing.T) {
	res := &Result{
		Columns: []string{"day_name", "total"},
		Rows: [][]any{
			{"Sunday", 1}, {"Holiday", 2}, {"Monday", 3}, {"Friday", 4},
		},
	}
	orderWeekdays(res, "day_name")
	assert.Equal(t, []string{"Monday", "Friday", "Sunday", "Holiday"}, res.Strings("day_name"))

	unchanged := orderWeekdays(&Result{Columns: []string{"x"}}, "day_name")
	assert.Empty(t, unchanged.Rows)
}

func TestWithSubtotals(t *testing.T) {
	res := &Result{
		Columns: []string{"courier", "vehicle", "sales"},
		Rows: [][]any{
			{"DHL", "Bike", 10.0},
			{"DHL", "Car", int64(5)},
			{"UPS", "Van", 7.0},
		},
	}
	withSubtotals(res, "All", "Any")
	assert.Equal(t, [][]any{
		{"DHL", "Bike", 10.0},
		{"DHL", "Car", int64(5)},
		{"DHL", "Any", 15.0},
		{"UPS", "Van", 7.0},
		{"UPS", "Any", 7.0},
		{"All", "Any", 22.0},
	}, res.Rows)

	empty := &Result{Columns: []string{"a", "b", "c"}, Rows: [][]any{}}
	assert.Empty(t, withSubtotals(empty, "All", "Any").Rows)
}

func TestQuarterLabels(t *testing.T) {
	res := quarterLabels(&Result{Columns: []string{"year", "1", "3"}})
	assert.Equal(t, []string{"year", "Q1", "Q3"}, res.Columns)
}
