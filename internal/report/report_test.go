package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/config"
	"ytetl/internal/ingest"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/internal/validation"
	"ytetl/pkg/records"
)

var stamp = time.Date(2024, 3, 9, 8, 7, 6, 543e6, time.UTC)

func cleanReport() *validation.Report {
	return validation.Assemble(stamp, validation.Results{
		Structure: map[string]validation.StructureResult{"videos": {ColumnsMatch: true, RowCount: 2}},
	})
}

func dirtyReport() *validation.Report {
	row := records.Record{"id": records.Number(7), "youtuber_id": records.Number(999)}
	return validation.Assemble(stamp, validation.Results{
		Structure: map[string]validation.StructureResult{
			"categories": {MissingColumns: []string{"description"}, ExtraColumns: []string{"color"}, RowCount: 3},
		},
		Referential: validation.ReferentialResult{InvalidVideos: []records.Record{row}},
		Duplicates: validation.DuplicateResult{DuplicateChannels: validation.Groups{
			"Code Channel": {row, row},
		}},
		Values: validation.ValueResult{VideosWithInvalidMetrics: []records.Record{row}},
	})
}

func TestFileName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "validation_report_2024-03-09T08-07-06-543Z.json", FileName(cleanReport()))
}

func TestFileSink_CreatesDirAndWritesIndentedJSON(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data", "logs")
	rep := dirtyReport()

	got, err := NewFileSink(dir).Write(context.Background(), rep)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName(rep)), got)

	b, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"timestamp\": \"2024-03-09T08:07:06.543Z\"")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Contains(t, doc, "results")
	assert.Equal(t, false, doc["summary"].(map[string]any)["referentialIntegrityValid"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file is left behind")
}

type fakeStore struct {
	exists  bool
	made    []string
	puts    map[string][]byte
	putErr  error
	headErr error
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.headErr
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, _ := io.ReadAll(r)
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[bucket+"/"+object] = b
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestObjectSink(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := &ObjectSink{client: store, bucket: "reports", prefix: "catalogue"}
	require.NoError(t, s.ensureBucket(context.Background()))
	assert.Equal(t, []string{"reports"}, store.made)

	rep := cleanReport()
	loc, err := s.Write(context.Background(), rep)
	require.NoError(t, err)
	assert.Equal(t, "reports/catalogue/"+FileName(rep), loc)
	assert.Contains(t, string(store.puts[loc]), `"structureValid": true`)

	store.putErr = errors.New("denied")
	_, err = s.Write(context.Background(), rep)
	assert.ErrorContains(t, err, "denied")
}

func TestNewSink(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s, err := NewSink(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, s)

	cfg.Report.Sink = "none"
	s, err = NewSink(context.Background(), cfg)
	require.NoError(t, err)
	loc, err := s.Write(context.Background(), cleanReport())
	require.NoError(t, err)
	assert.Empty(t, loc)

	cfg.Report.Sink = "ftp"
	_, err = NewSink(context.Background(), cfg)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(cleanReport(), true))
	assert.Equal(t, 1, ExitCode(dirtyReport(), false))
	assert.Equal(t, 1, ExitCode(nil, false))

	valuesOnly := validation.Assemble(stamp, validation.Results{
		Values: validation.ValueResult{VideosWithFutureDates: []records.Record{{"id": records.Number(1)}}},
	})
	assert.Equal(t, 0, ExitCode(valuesOnly, false))
	assert.Equal(t, 1, ExitCode(valuesOnly, true))
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{&ingest.SourceError{Table: "categories", Err: ingest.ErrSourceMissing}, true},
		{fmt.Errorf("ingest videos: %w", &pcsv.ParseError{Line: 1, Err: pcsv.ErrMalformed}), true},
		{&validation.PreconditionError{Missing: []string{"videos"}}, true},
		{errors.New("disk full"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsFatal(tt.err), tt.err.Error())
	}
}

func TestPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Print(dirtyReport(), "/tmp/r.json"))
	out := buf.String()

	assert.Contains(t, out, `"hasDuplicates": true`)
	assert.Contains(t, out, "Report: /tmp/r.json")
	assert.Contains(t, out, "missing: description")
	assert.Contains(t, out, "extra:   color")
	assert.Contains(t, out, "id=7 youtuber_id=999")
	assert.Contains(t, out, `"Code Channel" x2`)
	assert.Contains(t, out, "Warnings:")
	assert.NotContains(t, out, "Missing data:")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf).Print(cleanReport(), ""))
	assert.Contains(t, buf.String(), "All checks passed.")
}

func TestPrinter_Fatal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFatal(&ingest.SourceError{Table: "categories", Path: "/data/categories.csv", Err: ingest.ErrSourceMissing})
	out := buf.String()

	assert.Contains(t, out, "Could not validate")
	assert.Contains(t, out, "Path:  /data/categories.csv")
	assert.Contains(t, out, "No report was written.")
	assert.NotContains(t, out, "Validation Findings")
}
