package transform

import (
	"database/sql"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// Drop reasons.
const (
	DropNullKey     = "null_key"
	DropDuplicate   = "duplicate"
	DropMissingCode = "missing_code"
	DropMissingDate = "missing_date"
	DropNoCustomer  = "missing_customer_key"
	DropNoProduct   = "missing_product_key"
	DropNoRider     = "missing_rider_key"
)

// Stats counts rows through one transform.
type Stats struct {
	Table   string
	Input   int
	Output  int
	Dropped map[string]int
}

func newStats(table string, input int) Stats {
	return Stats{Table: table, Input: input, Dropped: make(map[string]int)}
}

func (s *Stats) drop(reason string) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason]++
}

// DroppedTotal returns the number of rows dropped for any reason.
func (s Stats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Merge adds the drops and output of a later stage over the same rows.
func (s Stats) Merge(next Stats) Stats {
	out := Stats{Table: s.Table, Input: s.Input, Output: next.Output, Dropped: make(map[string]int)}
	maps.Copy(out.Dropped, s.Dropped)
	for reason, n := range next.Dropped {
		out.Dropped[reason] += n
	}
	return out
}

// Log writes the stats at info level, or warn when rows were dropped.
func (s Stats) Log() {
	log := logging.Component("transform")
	ev := log.Info()
	if s.DroppedTotal() > 0 {
		ev = log.Warn()
	}
	d := ev.Str("table", s.Table).Int("input", s.Input).Int("output", s.Output)
	for _, reason := range slices.Sorted(maps.Keys(s.Dropped)) {
		d = d.Int("dropped_"+reason, s.Dropped[reason])
	}
	d.Msg("Transformed table")
}

// KeySet is a set of surrogate keys. A nil set matches every key.
type KeySet map[int64]struct{}

// Has reports whether key is in the set.
func (k KeySet) Has(key int64) bool {
	if k == nil {
		return true
	}
	_, ok := k[key]
	return ok
}

// KeysOf collects the keys of rows.
func KeysOf[R any](rows []R, key func(R) int64) KeySet {
	set := make(KeySet, len(rows))
	for _, r := range rows {
		set[key(r)] = struct{}{}
	}
	return set
}

func text(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// parseNumber coerces a raw value to a float; unparseable and non-finite
// values are null.
func parseNumber(s sql.NullString) (float64, bool) {
	v := text(s)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
