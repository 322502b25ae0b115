package cli

import (
	"context"
	"fmt"
	"log"

	"ytetl/internal/config"
	"ytetl/internal/ingest"
	"ytetl/internal/metrics"
	"ytetl/internal/metrics/datadog"
	"ytetl/internal/metrics/prompush"
	"ytetl/internal/report"
	"ytetl/internal/storage"
	"ytetl/internal/validation"
	"ytetl/pkg/records"

	_ "ytetl/internal/storage/all"
)

const defaultDatadogAddr = "127.0.0.1:8125"

// loadConfig loads the env file, the config file and the environment, then
// lints the result. Warnings are logged; errors fail.
func loadConfig(o *options, strictEnv bool) (config.Config, error) {
	if err := config.LoadEnvFile(o.envFile, strictEnv); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		log.Printf("config: %v", iss)
	}
	if config.HasErrors(issues) {
		return config.Config{}, fmt.Errorf("config: invalid (%d issues)", len(issues))
	}
	if o.verbose {
		cfg.Parser.Options = cfg.Parser.Options.With("verbose", true)
	}
	return cfg, nil
}

// setupMetrics installs the configured backend and returns a function that
// flushes and releases it.
func setupMetrics(cfg config.Config, verbose bool) func() {
	m := cfg.Metrics
	switch m.Backend {
	case "pushgateway":
		url := m.PushgatewayURL
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(cfg.Job, url)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", url, m.Backend, cfg.Job)
		metrics.SetBackend(b)
		return flushMetrics

	case "datadog":
		addr := m.DatadogAddr
		if addr == "" {
			addr = defaultDatadogAddr
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "ytetl",
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, m.Backend, cfg.Job)
		metrics.SetBackend(b)
		return func() {
			flushMetrics()
			if err := b.Close(); err != nil {
				log.Printf("metrics: close error: %v", err)
			}
			metrics.Reset()
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", m.Backend)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
	}
	return func() {}
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

// newEngine builds the validation engine for cfg.
func newEngine(cfg config.Config) *validation.Engine {
	e := validation.NewEngine()
	e.Schemas = cfg.SchemaSet()
	e.Rules = validation.ValueRules{
		DateField:  cfg.Values.DateField,
		ViewsField: cfg.Values.ViewsField,
		LikesField: cfg.Values.LikesField,
	}
	e.Parallel = cfg.Runtime.Parallel
	e.Job = cfg.Job
	return e
}

// withRunTimeout bounds ctx by the configured run timeout, if any.
func withRunTimeout(ctx context.Context, cfg config.Config) (context.Context, context.CancelFunc) {
	if d := cfg.Runtime.RunTimeout.D(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// validateData reads every configured table and runs the checks. Fatal input
// problems come back as errors; findings are in the report.
func validateData(ctx context.Context, cfg config.Config) (map[string]*records.Dataset, *validation.Report, error) {
	datasets, err := ingest.NewLoader(cfg).Load(ctx, cfg.Tables)
	if err != nil {
		return nil, nil, err
	}
	rep, err := newEngine(cfg).Run(ctx, datasets)
	if err != nil {
		return nil, nil, err
	}
	return datasets, rep, nil
}

// writeReport persists rep through the configured sink and returns where it
// landed ("" for the none sink).
func writeReport(ctx context.Context, cfg config.Config, rep *validation.Report) (string, error) {
	sink, err := report.NewSink(ctx, cfg)
	if err != nil {
		return "", err
	}
	return sink.Write(ctx, rep)
}

func openRepository(ctx context.Context, cfg config.Config) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	log.Printf("storage: opened kind=%s", cfg.Storage.Kind)
	return repo, nil
}
