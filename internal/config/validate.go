package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ytetl/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "tables[2].file"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity `json:"severity" yaml:"severity"`
	Path     string        `json:"path" yaml:"path"`
	Message  string        `json:"message" yaml:"message"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of cfg. It never mutates cfg.
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "data_dir",
			Message:  "data_dir must not be empty",
		})
	}
	if strings.TrimSpace(cfg.OutputDir) == "" && cfg.Report.Sink == "file" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_dir",
			Message:  "output_dir must not be empty when report.sink is \"file\"",
		})
	}

	issues = append(issues, validateTables(cfg.Tables)...)
	issues = append(issues, validateSchemas(cfg.Schemas)...)
	issues = append(issues, validateParser(cfg.Parser)...)
	issues = append(issues, validateValues(cfg.Values)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validateReport(cfg.Report)...)
	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)

	return issues
}

func validateTables(ts []Table) []Issue {
	var issues []Issue

	seen := make(map[string]int, len(ts))
	for i, t := range ts {
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("tables[%d].name", i),
				Message:  "table name must not be empty",
			})
			continue
		}
		if prev, dup := seen[t.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("tables[%d].name", i),
				Message:  fmt.Sprintf("table %q already declared at tables[%d]", t.Name, prev),
			})
		}
		seen[t.Name] = i
		if strings.TrimSpace(t.File) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("tables[%d].file", i),
				Message:  fmt.Sprintf("table %q has no file", t.Name),
			})
		}
	}

	for _, name := range schema.Required() {
		i, ok := seen[name]
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "tables",
				Message:  fmt.Sprintf("required table %q is not configured", name),
			})
			continue
		}
		if !ts[i].Required {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("tables[%d].required", i),
				Message:  fmt.Sprintf("table %q is needed by validation but marked optional", name),
			})
		}
	}

	return issues
}

func validateSchemas(s schema.Set) []Issue {
	var issues []Issue
	for _, name := range s.Names() {
		if len(s[name].Fields) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("schemas.%s.fields", name),
				Message:  "schema override declares no fields",
			})
		}
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}
	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; only \"csv\" is supported", p.Kind),
		})
		return issues
	}

	if comma := p.Options.String("comma", ","); utf8.RuneCountInString(comma) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}
	if n := p.Options.Int("max_warnings", 0); n < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.max_warnings",
			Message:  "max_warnings must not be negative",
		})
	}

	return issues
}

func validateValues(v Values) []Issue {
	var issues []Issue
	for _, f := range []struct{ path, name string }{
		{"values.date_field", v.DateField},
		{"values.views_field", v.ViewsField},
		{"values.likes_field", v.LikesField},
	} {
		if strings.TrimSpace(f.name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  "value check field name must not be empty",
			})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ReadTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.read_timeout",
			Message:  "read_timeout must not be negative",
		})
	}
	if r.RunTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.run_timeout",
			Message:  "run_timeout must not be negative",
		})
	}
	if r.HTTPRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.http_retries",
			Message:  "http_retries must not be negative",
		})
	}
	if r.ReadTimeout > 0 && r.RunTimeout > 0 && r.ReadTimeout > r.RunTimeout {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.read_timeout",
			Message:  fmt.Sprintf("read_timeout=%s exceeds run_timeout=%s", r.ReadTimeout, r.RunTimeout),
		})
	}

	return issues
}

func validateReport(r Report) []Issue {
	var issues []Issue

	switch r.Sink {
	case "file", "none":
	case "minio":
		m := r.MinIO
		if strings.TrimSpace(m.Endpoint) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "report.minio.endpoint",
				Message:  "minio sink requires an endpoint",
			})
		}
		if strings.TrimSpace(m.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "report.minio.bucket",
				Message:  "minio sink requires a bucket",
			})
		}
		if m.AccessKey == "" || m.SecretKey == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "report.minio",
				Message:  "minio credentials are empty; anonymous access will be attempted",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.sink",
			Message:  fmt.Sprintf("unknown report sink %q; use file, minio or none", r.Sink),
		})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "sqlite", "postgres", "mssql":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  "storage.kind is empty; seed and serve are unavailable",
		})
		return issues
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if s.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; a default will be used", s.BatchSize),
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; the client default agent address will be used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}

	return issues
}
