// Package ddl renders the SQL the seeding and API layers need in each
// supported dialect: quoted identifiers, placeholders and CREATE/DROP TABLE
// statements built from schema contracts.
package ddl

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names a SQL flavour. Values match storage kinds.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
)

// ParseDialect maps a storage kind onto a Dialect.
func ParseDialect(kind string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	default:
		return "", fmt.Errorf("ddl: unknown dialect %q", kind)
	}
}

// Quote quotes a single identifier segment.
func (d Dialect) Quote(id string) string {
	if d == MSSQL {
		return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]`
	}
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes a possibly dotted name segment by segment, so
// "dbo.videos" becomes [dbo].[videos] in MSSQL.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes each identifier.
func (d Dialect) QuoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.Quote(id)
	}
	return out
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Rebind rewrites '?' placeholders for d. Question marks inside single-quoted
// literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d == SQLite || d == "" {
		return query
	}
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString(d.Placeholder(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MapType maps a logical contract type onto a column type. Keyed or unique
// string columns get a bounded type where the dialect cannot index unbounded
// text.
func (d Dialect) MapType(kind string, indexed bool) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch d {
	case Postgres:
		switch k {
		case "int", "integer", "bigint":
			return "BIGINT"
		case "bool", "boolean":
			return "BOOLEAN"
		case "date":
			return "DATE"
		case "timestamp", "timestamptz", "datetime":
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	case MSSQL:
		switch k {
		case "int", "integer", "bigint":
			return "BIGINT"
		case "bool", "boolean":
			return "BIT"
		case "date":
			return "DATE"
		case "timestamp", "timestamptz", "datetime":
			return "DATETIME2"
		case "text":
			if indexed {
				return "NVARCHAR(450)"
			}
			return "NVARCHAR(MAX)"
		default:
			if indexed {
				return "NVARCHAR(450)"
			}
			return "NVARCHAR(255)"
		}
	default:
		switch k {
		case "int", "integer", "bigint", "bool", "boolean":
			return "INTEGER"
		case "float", "double", "real":
			return "REAL"
		default:
			return "TEXT"
		}
	}
}
