package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/schema"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_JSONOverDefaults(t *testing.T) {
	p := writeFile(t, "cfg.json", `{
	  "job": "nightly",
	  "data_dir": "/srv/csv",
	  "parser": { "kind": "csv", "options": { "comma": ";", "max_warnings": 5 } },
	  "runtime": { "read_timeout": "5s", "run_timeout": 60, "parallel": false },
	  "report": { "sink": "none", "fail_on_values": true }
	}`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Job)
	assert.Equal(t, "/srv/csv", cfg.DataDir)
	assert.Equal(t, "data/logs", cfg.OutputDir, "unset keys keep defaults")
	assert.Len(t, cfg.Tables, 6)
	assert.Equal(t, ';', cfg.Parser.Options.Rune("comma", ','))
	assert.Equal(t, 5, cfg.Parser.Options.Int("max_warnings", 0))
	assert.Equal(t, 5*time.Second, cfg.Runtime.ReadTimeout.D())
	assert.Equal(t, time.Minute, cfg.Runtime.RunTimeout.D())
	assert.False(t, cfg.Runtime.Parallel)
	assert.True(t, cfg.Report.FailOnValues)
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "cfg.yaml", `
job: yaml-job
tables:
  - name: youtubers
    file: y.csv
    required: true
schemas:
  users:
    fields: [id, username, email]
runtime:
  read_timeout: 2s
storage:
  kind: postgres
  dsn: postgres://localhost/catalogue
parser:
  kind: csv
  options:
    max_warnings: 3
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "yaml-job", cfg.Job)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "y.csv", cfg.Tables[0].File)
	assert.Equal(t, 2*time.Second, cfg.Runtime.ReadTimeout.D())
	assert.Equal(t, "postgres", cfg.Storage.Kind)
	assert.Equal(t, 3, cfg.Parser.Options.Int("max_warnings", 0))

	set := cfg.SchemaSet()
	assert.Equal(t, []string{"id", "username", "email"}, set[schema.Users].Fields)
	assert.Contains(t, set, schema.Videos)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"jobb": "typo"}`)
	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobb")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvDataDir:        "/data",
		EnvOutputDir:      "/out",
		EnvDBPath:         "/tmp/x.db",
		EnvMetricsBackend: "pushgateway",
		EnvPushgatewayURL: "http://pgw:9091",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	ApplyEnv(&cfg, lookup)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DSN)
	assert.Equal(t, "pushgateway", cfg.Metrics.Backend)
	assert.Equal(t, "http://pgw:9091", cfg.Metrics.PushgatewayURL)

	pg := Default()
	pg.Storage = Storage{Kind: "postgres", DSN: "postgres://db"}
	ApplyEnv(&pg, lookup)
	assert.Equal(t, "postgres://db", pg.Storage.DSN, "DB_PATH only applies to sqlite")
}

func TestLoadEnvFile(t *testing.T) {
	p := writeFile(t, ".env", "YTETL_TEST_ENV_KEY=from-file\n")
	t.Setenv("YTETL_TEST_ENV_KEY", "")
	require.NoError(t, os.Unsetenv("YTETL_TEST_ENV_KEY"))

	require.NoError(t, LoadEnvFile(p, true))
	assert.Equal(t, "from-file", os.Getenv("YTETL_TEST_ENV_KEY"))

	missing := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, LoadEnvFile(missing, false))
	assert.Error(t, LoadEnvFile(missing, true))
}

func TestOptions_TypedAccess(t *testing.T) {
	t.Parallel()

	o := Options{"s": "x", "b": true, "f": float64(3), "i": 4, "r": "|"}
	assert.Equal(t, "x", o.String("s", "d"))
	assert.Equal(t, "d", o.String("b", "d"))
	assert.True(t, o.Bool("b", false))
	assert.Equal(t, 3, o.Int("f", 0))
	assert.Equal(t, 4, o.Int("i", 0))
	assert.Equal(t, '|', o.Rune("r", ','))
	assert.Equal(t, ',', o.Rune("missing", ','))

	o["m"] = map[string]any{"nom": "name", "n": 1}
	assert.Equal(t, map[string]string{"nom": "name"}, o.StringMap("m"))
	assert.Nil(t, o.StringMap("missing"))

	w := o.With("verbose", true)
	assert.True(t, w.Bool("verbose", false))
	assert.NotContains(t, o, "verbose", "With copies")
}
