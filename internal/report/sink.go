// Package report persists validation reports and renders them for humans.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ytetl/internal/config"
	"ytetl/internal/validation"
)

// Sink persists a report and returns where it went.
type Sink interface {
	Write(ctx context.Context, rep *validation.Report) (string, error)
}

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileName returns the artifact name for rep, with the timestamp made safe for
// file systems and object keys.
func FileName(rep *validation.Report) string {
	return "validation_report_" + stampReplacer.Replace(rep.Timestamp) + ".json"
}

// Marshal renders rep as indented JSON with a trailing newline.
func Marshal(rep *validation.Report) ([]byte, error) {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal: %w", err)
	}
	return append(b, '\n'), nil
}

// NopSink discards reports.
type NopSink struct{}

// Write implements Sink.
func (NopSink) Write(context.Context, *validation.Report) (string, error) { return "", nil }

// NewSink builds the sink selected by cfg.Report.Sink.
func NewSink(ctx context.Context, cfg config.Config) (Sink, error) {
	switch strings.ToLower(cfg.Report.Sink) {
	case "", "file":
		return NewFileSink(cfg.OutputDir), nil
	case "none":
		return NopSink{}, nil
	case "minio":
		return NewObjectSink(ctx, cfg.Report.MinIO)
	default:
		return nil, fmt.Errorf("report: unknown sink %q", cfg.Report.Sink)
	}
}
