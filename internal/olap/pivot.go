package olap

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Labels used for client-side subtotals.
const (
	AllCouriers     = "All Couriers"
	AllVehicleTypes = "All Vehicle Types"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Pivot reshapes a long result into a cross-tab. The first output column is
// the row label, followed by one column per distinct value of col in
// first-seen order. Cells sharing a row and column are summed and missing
// cells are 0.
func Pivot(res *Result, row, col, value string) (*Result, error) {
	ri, ci, vi := res.Column(row), res.Column(col), res.Column(value)
	for name, i := range map[string]int{row: ri, col: ci, value: vi} {
		if i < 0 {
			return nil, fmt.Errorf("failed to pivot %s: no column %q", res.Name, name)
		}
	}

	var rowKeys, colKeys []string
	rowIndex := make(map[string]int)
	colIndex := make(map[string]int)
	var rowValues []any
	cells := make(map[[2]int]float64)

	for _, r := range res.Rows {
		rk, ck := label(r[ri]), label(r[ci])
		i, ok := rowIndex[rk]
		if !ok {
			i = len(rowKeys)
			rowIndex[rk] = i
			rowKeys = append(rowKeys, rk)
			rowValues = append(rowValues, r[ri])
		}
		j, ok := colIndex[ck]
		if !ok {
			j = len(colKeys)
			colIndex[ck] = j
			colKeys = append(colKeys, ck)
		}
		v, _ := toFloat(r[vi])
		cells[[2]int{i, j}] += v
	}

	out := &Result{
		Name:    res.Name,
		Columns: append([]string{row}, colKeys...),
		Rows:    make([][]any, len(rowKeys)),
		Elapsed: res.Elapsed,
		SQL:     res.SQL,
		Args:    res.Args,
		Cached:  res.Cached,
	}
	for i := range rowKeys {
		line := make([]any, len(colKeys)+1)
		line[0] = rowValues[i]
		for j := range colKeys {
			line[j+1] = cells[[2]int{i, j}]
		}
		out.Rows[i] = line
	}
	return out, nil
}

// sortRows orders rows by their first column, numerically when both values
// are numbers.
func sortRows(res *Result) *Result {
	slices.SortStableFunc(res.Rows, func(a, b []any) int {
		fa, okA := toFloat(a[0])
		fb, okB := toFloat(b[0])
		if okA && okB {
			return cmp.Compare(fa, fb)
		}
		return cmp.Compare(label(a[0]), label(b[0]))
	})
	return res
}

// orderWeekdays sorts rows by the named day column from Monday to Sunday.
// Unknown names go last.
func orderWeekdays(res *Result, column string) *Result {
	c := res.Column(column)
	if c < 0 {
		return res
	}
	rank := func(row []any) int {
		if i := slices.Index(weekdays, label(row[c])); i >= 0 {
			return i
		}
		return len(weekdays)
	}
	slices.SortStableFunc(res.Rows, func(a, b []any) int {
		return cmp.Compare(rank(a), rank(b))
	})
	return res
}

// withSubtotals appends a subtotal row after each group of the first
// column and a grand total at the end. Rows must be ordered by the group
// column. The value is the last column.
func withSubtotals(res *Result, allGroups, allItems string) *Result {
	if len(res.Columns) < 3 || len(res.Rows) == 0 {
		return res
	}
	vc := len(res.Columns) - 1

	out := make([][]any, 0, len(res.Rows)*2)
	var grand, sub float64
	current := label(res.Rows[0][0])
	flush := func(group any) {
		line := make([]any, len(res.Columns))
		line[0] = group
		for i := 1; i < vc; i++ {
			line[i] = allItems
		}
		line[vc] = sub
		out = append(out, line)
		sub = 0
	}

	for i, r := range res.Rows {
		if g := label(r[0]); g != current {
			flush(res.Rows[i-1][0])
			current = g
		}
		v, _ := toFloat(r[vc])
		sub += v
		grand += v
		out = append(out, r)
	}
	flush(res.Rows[len(res.Rows)-1][0])

	total := make([]any, len(res.Columns))
	total[0] = allGroups
	for i := 1; i < vc; i++ {
		total[i] = allItems
	}
	total[vc] = grand
	out = append(out, total)

	res.Rows = out
	return res
}

// quarterLabels renames numeric pivot headers 1..4 to Q1..Q4.
func quarterLabels(res *Result) *Result {
	for i := 1; i < len(res.Columns); i++ {
		if _, err := strconv.Atoi(res.Columns[i]); err == nil {
			res.Columns[i] = "Q" + res.Columns[i]
		}
	}
	return res
}
