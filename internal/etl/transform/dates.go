package transform

import (
	"sort"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// dateLayouts are tried in order. Month and day take one or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1-2-2006",
}

// ParseDate parses a date in one of the accepted layouts. A timestamp whose
// date part (before a space or T) forms an accepted date is also accepted.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		return ParseDate(s[:i])
	}
	if len(s) > 10 {
		return ParseDate(s[:10])
	}
	return time.Time{}, false
}

// DateKey returns the YYYYMMDD surrogate key for a date.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// validKey reports whether key is an eight-digit YYYYMMDD value.
func validKey(key int) bool {
	return key >= 10000101 && key <= 99991231
}

// DateFromKey converts a surrogate key back to a date.
func DateFromKey(key int) (time.Time, bool) {
	if !validKey(key) {
		return time.Time{}, false
	}
	t := time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
	if DateKey(t) != key {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateKey parses a date string straight to its surrogate key, or 0 when
// the string is not a date.
func ParseDateKey(s string) int {
	t, ok := ParseDate(s)
	if !ok || !validKey(DateKey(t)) {
		return 0
	}
	return DateKey(t)
}

// DateRow derives the dim_date row for one calendar date.
func DateRow(t time.Time) warehouse.DateRow {
	weekend := "N"
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = "Y"
	}
	return warehouse.DateRow{
		DateKey:   DateKey(t),
		FullDate:  t.Format("2006-01-02"),
		DayName:   t.Weekday().String(),
		MonthName: t.Month().String(),
		Day:       t.Day(),
		Month:     int(t.Month()),
		Quarter:   (int(t.Month()) + 2) / 3,
		Year:      t.Year(),
		IsWeekend: weekend,
	}
}

// DateDimension builds dim_date rows for the given dates. Duplicates
// collapse and the output is sorted by key.
func DateDimension(dates []time.Time) []warehouse.DateRow {
	if len(dates) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(dates))
	rows := make([]warehouse.DateRow, 0, len(dates))
	for _, d := range dates {
		row := DateRow(d)
		if !validKey(row.DateKey) || seen[row.DateKey] {
			continue
		}
		seen[row.DateKey] = true
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].DateKey < rows[j].DateKey })
	return rows
}

// DateRange returns every calendar date from start to end inclusive.
func DateRange(start, end time.Time) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
