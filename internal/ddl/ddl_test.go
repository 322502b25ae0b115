package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/schema"
)

func TestParseDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Dialect
		err  bool
	}{
		{"sqlite", SQLite, false},
		{" PostgreSQL ", Postgres, false},
		{"sqlserver", MSSQL, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestQuoteAndPlaceholders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a""b"`, Postgres.Quote(`a"b`))
	assert.Equal(t, `[a]]b]`, MSSQL.Quote(`a]b`))
	assert.Equal(t, `"main"."videos"`, SQLite.QuoteFQN("main.videos"))
	assert.Equal(t, `[dbo].[videos]`, MSSQL.QuoteFQN("dbo..videos"))

	q := "SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", Postgres.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = @p1 AND b = '?' AND c = @p2", MSSQL.Rebind(q))
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d       Dialect
		kind    string
		indexed bool
		want    string
	}{
		{SQLite, "int", false, "INTEGER"},
		{SQLite, "date", false, "TEXT"},
		{Postgres, "int", true, "BIGINT"},
		{Postgres, "date", false, "DATE"},
		{Postgres, "string", true, "TEXT"},
		{MSSQL, "bool", false, "BIT"},
		{MSSQL, "string", false, "NVARCHAR(255)"},
		{MSSQL, "string", true, "NVARCHAR(450)"},
		{MSSQL, "text", false, "NVARCHAR(MAX)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.d.MapType(tt.kind, tt.indexed), "%s %s", tt.d, tt.kind)
	}
}

func TestBuildCreateTableSQL_LinkTable(t *testing.T) {
	t.Parallel()

	var link schema.Contract
	for _, c := range schema.Catalogue() {
		if c.Source == schema.VideoCategories {
			link = c
		}
	}

	got, err := BuildCreateTableSQL(Postgres, FromContract(Postgres, link))
	require.NoError(t, err)
	want := `CREATE TABLE IF NOT EXISTS "videos_categories" (
  "video_id" BIGINT NOT NULL,
  "categoria_id" BIGINT NOT NULL,
  PRIMARY KEY ("video_id", "categoria_id"),
  FOREIGN KEY ("video_id") REFERENCES "videos" ("id"),
  FOREIGN KEY ("categoria_id") REFERENCES "categories" ("id")
);`
	assert.Equal(t, want, got)
}

func TestBuildCreateTableSQL_MSSQLGuard(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(MSSQL, TableDef{
		FQN:     "usuaris",
		Columns: []ColumnDef{{Name: "email", SQLType: "NVARCHAR(450)", Unique: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "IF OBJECT_ID(N'usuaris', N'U') IS NULL\nCREATE TABLE [usuaris] (\n  [email] NVARCHAR(450) NOT NULL UNIQUE\n);", got)
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  TableDef
		msg  string
	}{
		{"empty FQN", TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}}, "table FQN must not be empty"},
		{"no columns", TableDef{FQN: "t"}, "at least one column is required"},
		{"empty column name", TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}}, "column with empty name"},
		{"empty type", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}}, "missing SQLType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCreateTableSQL(SQLite, tt.def)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestDropAndInsertSQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `DROP TABLE IF EXISTS "videos";`, DropTableSQL(SQLite, "videos"))
	assert.Equal(t, `INSERT INTO "videos" ("id", "titol") VALUES ($1, $2)`, InsertSQL(Postgres, "videos", []string{"id", "titol"}))
	assert.Equal(t, `INSERT INTO [videos] ([id]) VALUES (@p1)`, InsertSQL(MSSQL, "videos", []string{"id"}))
}
