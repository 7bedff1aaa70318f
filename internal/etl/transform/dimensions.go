package transform

import (
	"cmp"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-salesdw/internal/etl/source"
	"github.com/pgEdge/pgedge-salesdw/internal/warehouse"
)

// Riders builds dim_rider. Rows without an id are dropped and the last
// occurrence of a duplicated id wins. Absent input gives nil; input whose
// rows are all dropped gives an empty slice.
func Riders(records []source.RiderRecord) ([]warehouse.RiderRow, Stats) {
	stats := newStats(warehouse.DimRider, len(records))
	if len(records) == 0 {
		return nil, stats
	}

	byKey := make(map[int64]int)
	rows := make([]warehouse.RiderRow, 0, len(records))
	for _, r := range records {
		if !r.ID.Valid {
			stats.drop(DropNullKey)
			continue
		}
		row := warehouse.RiderRow{
			RiderKey:    r.ID.Int64,
			RiderName:   orUnknown(text(r.RiderName)),
			VehicleType: VehicleType(text(r.VehicleType)),
			Gender:      Gender(text(r.Gender)),
			Age:         r.Age,
			CourierName: CourierName(text(r.CourierName)),
		}
		if i, ok := byKey[row.RiderKey]; ok {
			stats.drop(DropDuplicate)
			rows[i] = row
			continue
		}
		byKey[row.RiderKey] = len(rows)
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b warehouse.RiderRow) int { return cmp.Compare(a.RiderKey, b.RiderKey) })
	stats.Output = len(rows)
	return rows, stats
}

// Users builds dim_user. When no record carries an id, keys are assigned
// sequentially; otherwise rows without an id are dropped. Duplicates keep
// the latest signup date.
func Users(records []source.UserRecord, continents *ContinentResolver) ([]warehouse.UserRow, Stats) {
	stats := newStats(warehouse.DimUser, len(records))
	if len(records) == 0 {
		return nil, stats
	}
	if continents == nil {
		continents = NewContinentResolver()
	}

	sequential := !slices.ContainsFunc(records, func(r source.UserRecord) bool { return r.ID.Valid })

	byKey := make(map[int64]int)
	rows := make([]warehouse.UserRow, 0, len(records))
	for i, r := range records {
		key := r.ID.Int64
		if sequential {
			key = int64(i + 1)
		} else if !r.ID.Valid {
			stats.drop(DropNullKey)
			continue
		}

		fullName := strings.TrimSpace(text(r.FirstName) + " " + text(r.LastName))

		city := TitleCase(orUnknown(text(r.City)))
		country := TitleCase(orUnknown(text(r.Country)))

		row := warehouse.UserRow{
			UserKey:   key,
			Username:  orUnknown(text(r.Username)),
			FullName:  orUnknown(fullName),
			Gender:    Gender(text(r.Gender)),
			City:      city,
			Country:   country,
			Continent: continents.Resolve(country),
		}
		if t, ok := ParseDate(text(r.CreatedAt)); ok {
			row.SignupDate = sql.NullString{String: t.Format("2006-01-02"), Valid: true}
		}

		if j, ok := byKey[key]; ok {
			stats.drop(DropDuplicate)
			if !newerSignup(rows[j].SignupDate, row.SignupDate) {
				rows[j] = row
			}
			continue
		}
		byKey[key] = len(rows)
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b warehouse.UserRow) int { return cmp.Compare(a.UserKey, b.UserKey) })
	stats.Output = len(rows)
	return rows, stats
}

// newerSignup reports whether the kept date beats the candidate. Dated rows
// beat undated ones and ties go to the candidate.
func newerSignup(kept, candidate sql.NullString) bool {
	if !kept.Valid {
		return false
	}
	return !candidate.Valid || kept.String > candidate.String
}

// productCandidate is a product record with its parsed ordering fields.
type productCandidate struct {
	rec     source.ProductRecord
	order   int
	updated time.Time
	hasTime bool
	filled  int
}

// Products builds dim_product. Records sharing a product code collapse into
// one row: the most recently updated record wins, ties go to the most
// complete one, and its empty fields are filled from the other records.
func Products(records []source.ProductRecord, inferCategory bool) ([]warehouse.ProductRow, Stats) {
	stats := newStats(warehouse.DimProduct, len(records))
	if len(records) == 0 {
		return nil, stats
	}

	groups := make(map[string][]productCandidate)
	var codes []string
	for i, r := range records {
		if !r.ID.Valid {
			stats.drop(DropNullKey)
			continue
		}
		code := text(r.ProductCode)
		if code == "" {
			stats.drop(DropMissingCode)
			continue
		}
		if _, ok := groups[code]; !ok {
			codes = append(codes, code)
		}
		updated, hasTime := parseTimestamp(text(r.UpdatedAt))
		groups[code] = append(groups[code], productCandidate{
			rec:     r,
			order:   i,
			updated: updated,
			hasTime: hasTime,
			filled:  completeness(r),
		})
	}

	byKey := make(map[int64]int)
	rows := make([]warehouse.ProductRow, 0, len(records))
	var winners []productCandidate
	for _, code := range codes {
		group := groups[code]
		slices.SortStableFunc(group, compareCandidates)
		for range group[1:] {
			stats.drop(DropDuplicate)
		}

		best := group[0]
		merged := best.rec
		for _, other := range group[1:] {
			merged = coalesceProduct(merged, other.rec)
		}

		name := orUnknown(text(merged.Name))
		row := warehouse.ProductRow{
			ProductKey:  merged.ID.Int64,
			ProductName: name,
			Category:    ResolveCategory(text(merged.Category), name, inferCategory),
			ProductCode: code,
		}
		if price, ok := parseNumber(merged.Price); ok {
			row.Price = sql.NullFloat64{Float64: price, Valid: true}
		}

		if j, ok := byKey[row.ProductKey]; ok {
			stats.drop(DropDuplicate)
			if compareCandidates(best, winners[j]) <= 0 {
				rows[j] = row
				winners[j] = best
			}
			continue
		}
		byKey[row.ProductKey] = len(rows)
		rows = append(rows, row)
		winners = append(winners, best)
	}

	slices.SortFunc(rows, func(a, b warehouse.ProductRow) int { return cmp.Compare(a.ProductKey, b.ProductKey) })
	stats.Output = len(rows)
	return rows, stats
}

// compareCandidates orders newest first with undated rows last, then the
// most complete, then the latest occurrence.
func compareCandidates(a, b productCandidate) int {
	switch {
	case a.hasTime && !b.hasTime:
		return -1
	case !a.hasTime && b.hasTime:
		return 1
	case a.hasTime && !a.updated.Equal(b.updated):
		return -a.updated.Compare(b.updated)
	}
	if a.filled != b.filled {
		return cmp.Compare(b.filled, a.filled)
	}
	return cmp.Compare(b.order, a.order)
}

func completeness(r source.ProductRecord) int {
	n := 0
	for _, f := range []sql.NullString{r.Name, r.Category, r.Description, r.Price, r.CreatedAt, r.UpdatedAt} {
		if text(f) != "" {
			n++
		}
	}
	return n
}

func coalesceProduct(dst, src source.ProductRecord) source.ProductRecord {
	fill := func(d *sql.NullString, s sql.NullString) {
		if text(*d) == "" && text(s) != "" {
			*d = s
		}
	}
	fill(&dst.Name, src.Name)
	fill(&dst.Category, src.Category)
	fill(&dst.Description, src.Description)
	if _, ok := parseNumber(dst.Price); !ok {
		if _, ok := parseNumber(src.Price); ok {
			dst.Price = src.Price
		}
	}
	return dst
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
}

// parseTimestamp accepts common timestamp layouts and any date layout.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return ParseDate(s)
}
