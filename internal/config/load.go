package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDataDir        = "YTETL_DATA_DIR"
	EnvOutputDir      = "YTETL_OUTPUT_DIR"
	EnvDBPath         = "DB_PATH"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// Load reads path over Default() and applies environment overrides. An empty
// path yields the defaults plus environment. The format is chosen by file
// extension: .yaml/.yml use YAML, anything else JSON.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Decode unmarshals data into cfg. ext selects the format (".yaml", ".yml",
// otherwise JSON). Unknown JSON keys are rejected.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error unless strict is set.
func LoadEnvFile(path string, strict bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !strict && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load env %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables looked up via lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		cfg.OutputDir = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" && cfg.Storage.Kind == "sqlite" {
		cfg.Storage.DSN = v
	}
	if v, ok := lookup(EnvMetricsBackend); ok && v != "" {
		cfg.Metrics.Backend = v
	}
	if v, ok := lookup(EnvPushgatewayURL); ok && v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v, ok := lookup(EnvDatadogAddr); ok && v != "" {
		cfg.Metrics.DatadogAddr = v
	}
}
