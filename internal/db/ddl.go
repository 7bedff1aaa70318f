package db

import (
	"fmt"
	"strings"
)

// ColumnType is a portable column type rendered per dialect.
type ColumnType int

// Portable column types.
const (
	Integer ColumnType = iota
	BigInt
	Varchar
	Double
	Date
	Timestamp
	Flag
)

// Column describes a table column.
type Column struct {
	Name    string
	Type    ColumnType
	Size    int // Varchar length
	NotNull bool
}

// Table describes a table that is created from Go rather than migrations.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL renders a CREATE TABLE statement for the dialect, optionally
// under a different table name.
func (t Table) CreateSQL(d Dialect, name string) string {
	if name == "" {
		name = t.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", name)
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "    %s %s", c.Name, d.columnType(c))
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 || len(t.PrimaryKey) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(t.PrimaryKey) > 0 {
		fmt.Fprintf(&b, "    PRIMARY KEY (%s)\n", strings.Join(t.PrimaryKey, ", "))
	}
	b.WriteString(")")
	return b.String()
}

func (d Dialect) columnType(c Column) string {
	size := c.Size
	if size == 0 {
		size = 255
	}

	switch c.Type {
	case Integer:
		if d == MySQL || d == SQLServer {
			return "INT"
		}
		return "INTEGER"
	case BigInt:
		if d == SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case Varchar:
		switch d {
		case SQLite:
			return "TEXT"
		case SQLServer:
			return fmt.Sprintf("NVARCHAR(%d)", size)
		default:
			return fmt.Sprintf("VARCHAR(%d)", size)
		}
	case Double:
		switch d {
		case MySQL:
			return "DOUBLE"
		case SQLite:
			return "REAL"
		case SQLServer:
			return "FLOAT"
		default:
			return "DOUBLE PRECISION"
		}
	case Date:
		if d == SQLite {
			return "TEXT"
		}
		return "DATE"
	case Timestamp:
		switch d {
		case SQLite:
			return "TEXT"
		case MySQL:
			return "DATETIME"
		case SQLServer:
			return "DATETIME2"
		default:
			return "TIMESTAMP"
		}
	case Flag:
		if d == SQLite {
			return "TEXT"
		}
		return "CHAR(1)"
	}
	return "TEXT"
}
