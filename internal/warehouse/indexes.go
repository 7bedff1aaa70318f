package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-salesdw/internal/db"
	"github.com/pgEdge/pgedge-salesdw/internal/logging"
)

// Index is a secondary index used by the OLAP queries.
type Index struct {
	Name        string
	Table       string
	Columns     []string
	Description string
}

// SQL renders the CREATE INDEX statement.
func (i Index) SQL() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", i.Name, i.Table, strings.Join(i.Columns, ", "))
}

// Indexes lists the recommended warehouse indexes.
var Indexes = []Index{
	{"ix_fs_date_key", FactSales, []string{"date_key"}, "date filtering"},
	{"ix_fs_product_key", FactSales, []string{"product_key"}, "product joins"},
	{"ix_fs_customer_key", FactSales, []string{"customer_key"}, "user joins"},
	{"ix_fs_rider_key", FactSales, []string{"rider_key"}, "rider joins"},
	{"ix_fs_order_number", FactSales, []string{"order_number"}, "distinct order counts"},
	{"ix_fs_composite_date_product", FactSales, []string{"date_key", "product_key"}, "date and product queries"},
	{"ix_dp_category", DimProduct, []string{"category"}, "category filtering"},
	{"ix_dr_courier", DimRider, []string{"courier_name"}, "courier filtering"},
	{"ix_du_city", DimUser, []string{"city"}, "city filtering"},
}

// IndexInfo is an index found in the database catalog.
type IndexInfo struct {
	Table string `db:"table_name" json:"table"`
	Name  string `db:"index_name" json:"name"`
}

// IndexReport summarizes a CreateIndexes run.
type IndexReport struct {
	Created []string
	Skipped []string
}

// CreateIndexes creates every missing index. Indexes on tables that do not
// exist yet are skipped.
func CreateIndexes(ctx context.Context, conn *db.DB) (IndexReport, error) {
	var report IndexReport

	existing, err := ListIndexes(ctx, conn)
	if err != nil {
		return report, err
	}
	have := make(map[string]bool, len(existing))
	for _, ix := range existing {
		have[strings.ToLower(ix.Name)] = true
	}

	tables := make(map[string]bool)
	for _, idx := range Indexes {
		if have[idx.Name] {
			report.Skipped = append(report.Skipped, idx.Name)
			continue
		}

		ok, seen := tables[idx.Table]
		if !seen {
			ok, err = db.TableExists(ctx, conn, idx.Table)
			if err != nil {
				return report, err
			}
			tables[idx.Table] = ok
		}
		if !ok {
			logging.Warn().Str("index", idx.Name).Str("table", idx.Table).Msg("Table missing, skipping index")
			report.Skipped = append(report.Skipped, idx.Name)
			continue
		}

		if _, err := conn.ExecContext(ctx, idx.SQL()); err != nil {
			return report, fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
		logging.Info().Str("index", idx.Name).Str("table", idx.Table).Msg("Created index")
		report.Created = append(report.Created, idx.Name)
	}

	return report, nil
}

// ListIndexes returns the indexes on the star-schema tables.
func ListIndexes(ctx context.Context, conn *db.DB) ([]IndexInfo, error) {
	var query string
	switch conn.Dialect {
	case db.SQLite:
		query = `SELECT tbl_name AS table_name, name AS index_name FROM sqlite_master
			WHERE type = 'index' AND name NOT LIKE 'sqlite_%'`
	case db.MySQL:
		query = `SELECT DISTINCT table_name AS table_name, index_name AS index_name
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND index_name <> 'PRIMARY'`
	case db.SQLServer:
		query = `SELECT t.name AS table_name, i.name AS index_name
			FROM sys.indexes i JOIN sys.tables t ON i.object_id = t.object_id
			WHERE i.name IS NOT NULL AND i.is_primary_key = 0`
	default:
		query = `SELECT tablename AS table_name, indexname AS index_name FROM pg_indexes
			WHERE schemaname = current_schema() AND indexname NOT LIKE '%_pkey'`
	}

	var all []IndexInfo
	if err := conn.SelectContext(ctx, &all, query); err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}

	star := map[string]bool{DimDate: true, DimUser: true, DimRider: true, DimProduct: true, FactSales: true}
	out := all[:0]
	for _, ix := range all {
		if star[strings.ToLower(ix.Table)] {
			out = append(out, ix)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
