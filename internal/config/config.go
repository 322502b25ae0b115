// Package config defines the canonical configuration model for ytetl.
//
// A Config is decoded from a JSON or YAML file, layered over Default(), and
// finally overridden from environment variables (optionally seeded from a
// .env file). Field names mirror the file keys:
//
//	{
//	  "job":        "catalogue-validate",
//	  "data_dir":   "data/youtubers_programacio",
//	  "output_dir": "data/logs",
//	  "tables": [ { "name": "youtubers", "file": "youtubers.csv", "required": true } ],
//	  "parser":   { "kind": "csv", "options": { "comma": ",", "max_warnings": 20 } },
//	  "storage":  { "kind": "sqlite", "dsn": "file:catalogue.db" }
//	}
package config

import (
	"encoding/json"
	"time"

	"ytetl/internal/schema"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job labels metrics and log lines for a run.
	Job string `json:"job" yaml:"job"`

	// DataDir is the directory holding the CSV files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OutputDir is where validation reports are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Tables lists the CSV files to ingest, keyed by logical table name.
	Tables []Table `json:"tables" yaml:"tables"`

	// Schemas adds or replaces declared table headers. Unset tables keep the
	// built-in declaration.
	Schemas schema.Set `json:"schemas,omitempty" yaml:"schemas,omitempty"`

	Parser  Parser        `json:"parser" yaml:"parser"`
	Values  Values        `json:"values" yaml:"values"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Report  Report        `json:"report" yaml:"report"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
	Server  Server        `json:"server" yaml:"server"`
}

// Table binds a logical table name to a file under DataDir.
type Table struct {
	Name string `json:"name" yaml:"name"`
	File string `json:"file" yaml:"file"`

	// Required tables abort the run when their file is missing; optional
	// ones are skipped with a log line.
	Required bool `json:"required" yaml:"required"`
}

// Parser selects how raw bytes are turned into records.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), max_warnings (int)
	Options Options `json:"options" yaml:"options"`
}

// Values names the video fields inspected by the value-domain check.
type Values struct {
	DateField  string `json:"date_field" yaml:"date_field"`
	ViewsField string `json:"views_field" yaml:"views_field"`
	LikesField string `json:"likes_field" yaml:"likes_field"`
}

// RuntimeConfig controls timeouts and concurrency.
type RuntimeConfig struct {
	// ReadTimeout bounds reading a single file.
	ReadTimeout Duration `json:"read_timeout" yaml:"read_timeout"`

	// RunTimeout bounds a whole validation run.
	RunTimeout Duration `json:"run_timeout" yaml:"run_timeout"`

	// Parallel runs the checks concurrently.
	Parallel bool `json:"parallel" yaml:"parallel"`

	// HTTPRetries is the number of retries for tables fetched from an
	// http(s) data_dir.
	HTTPRetries int `json:"http_retries" yaml:"http_retries"`
}

// Report selects where the validation report goes.
type Report struct {
	// Sink is "file" (default), "minio" or "none".
	Sink  string `json:"sink" yaml:"sink"`
	MinIO MinIO  `json:"minio" yaml:"minio"`

	// FailOnValues makes value-domain findings fail the run.
	FailOnValues bool `json:"fail_on_values" yaml:"fail_on_values"`
}

// MinIO configures the object-store sink.
type MinIO struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
}

// Storage configures the database used by seed and serve.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres" or "mssql".
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the driver connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// BatchSize is the number of rows per insert batch.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// AutoCreate creates missing tables before seeding.
	AutoCreate bool `json:"auto_create" yaml:"auto_create"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// Server configures the REST API.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Options is a small helper to fetch typed values from free-form maps decoded
// from JSON or YAML. It performs minimal coercion and returns the default when
// a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json yields float64 and
// yaml.v3 yields int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a nested string-to-string map for key. Entries whose
// value is not a string are dropped. It returns nil when key is absent.
func (o Options) StringMap(key string) map[string]string {
	switch m := o[key].(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// With returns a copy of o with key set to v.
func (o Options) With(key string, v any) Options {
	out := make(Options, len(o)+1)
	for k, val := range o {
		out[k] = val
	}
	out[key] = v
	return out
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// Default returns the configuration matching the stock data layout:
// CSV files under data/youtubers_programacio and reports under data/logs.
func Default() Config {
	return Config{
		Job:       "catalogue-validate",
		DataDir:   "data/youtubers_programacio",
		OutputDir: "data/logs",
		Tables: []Table{
			{Name: schema.Youtubers, File: "youtubers.csv", Required: true},
			{Name: schema.Profiles, File: "youtuber_profiles.csv", Required: true},
			{Name: schema.Categories, File: "categories.csv", Required: true},
			{Name: schema.Videos, File: "videos.csv", Required: true},
			{Name: schema.VideoCategories, File: "video_categories.csv", Required: true},
			{Name: schema.Users, File: "usuaris.csv"},
		},
		Parser: Parser{
			Kind:    "csv",
			Options: Options{"comma": ",", "max_warnings": 20},
		},
		Values: Values{
			DateField:  "publication_date",
			ViewsField: "views",
			LikesField: "likes",
		},
		Runtime: RuntimeConfig{
			ReadTimeout: Duration(30 * time.Second),
			RunTimeout:  Duration(2 * time.Minute),
			Parallel:    true,
			HTTPRetries: 3,
		},
		Report:  Report{Sink: "file"},
		Storage: Storage{Kind: "sqlite", DSN: "file:catalogue.db", BatchSize: 500, AutoCreate: true},
		Metrics: Metrics{Backend: "none"},
		Server:  Server{Addr: ":3000"},
	}
}

// SchemaSet returns the declared schema set with the configured overrides
// applied.
func (c Config) SchemaSet() schema.Set {
	return schema.Default().Merge(c.Schemas)
}

// Table returns the table entry named name.
func (c Config) Table(name string) (Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
