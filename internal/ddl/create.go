package ddl

import (
	"fmt"
	"strings"

	"ytetl/internal/schema"
)

// ColumnDef describes one column of a table definition.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Unique     bool

	// References is the parent table; the parent column is always "id".
	References string
}

// TableDef is an ordered column list for one table.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromContract derives a TableDef from a schema contract.
func FromContract(d Dialect, c schema.Contract) TableDef {
	td := TableDef{FQN: c.Name, Columns: make([]ColumnDef, 0, len(c.Fields))}
	for _, f := range c.Fields {
		td.Columns = append(td.Columns, ColumnDef{
			Name:       f.Name,
			SQLType:    d.MapType(f.Type, f.PrimaryKey || f.Unique),
			Nullable:   !f.Required && !f.PrimaryKey,
			PrimaryKey: f.PrimaryKey,
			Unique:     f.Unique,
			References: f.References,
		})
	}
	return td
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE for d:
//
//	CREATE TABLE IF NOT EXISTS "t" (
//	  "id" BIGINT NOT NULL,
//	  ...,
//	  PRIMARY KEY ("id"),
//	  FOREIGN KEY ("youtuber_id") REFERENCES "youtubers" ("id")
//	);
//
// MSSQL has no IF NOT EXISTS for tables, so the statement is guarded with
// OBJECT_ID instead.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+2)
	var pks, fks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if c.Unique {
			sb.WriteString(" UNIQUE")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
		if c.References != "" {
			fks = append(fks, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				d.Quote(name), d.QuoteFQN(c.References), d.Quote("id")))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	cols = append(cols, fks...)

	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))
	if d == MSSQL {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s %s;",
			strings.ReplaceAll(fqn, "'", "''"), d.QuoteFQN(fqn), body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s;", d.QuoteFQN(fqn), body), nil
}

// DropTableSQL renders DROP TABLE IF EXISTS for name.
func DropTableSQL(d Dialect, name string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteFQN(name) + ";"
}

// InsertSQL renders a single-row INSERT with dialect placeholders.
func InsertSQL(d Dialect, table string, columns []string) string {
	ph := make([]string, len(columns))
	for i := range columns {
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteFQN(table), strings.Join(d.QuoteAll(columns), ", "), strings.Join(ph, ", "))
}
