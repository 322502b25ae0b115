package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/config"
	"ytetl/internal/datasource"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/internal/schema"
)

func writeTables(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func cleanFiles() map[string]string {
	return map[string]string{
		"youtubers.csv":         "id,channel_name,youtuber_name,description,channel_url\n1,Code Channel,Ana,Go,https://y/1\n",
		"youtuber_profiles.csv": "id,youtuber_id,twitter_url,instagram_url,website_url,contact_info\n1,1,,,,\n",
		"categories.csv":        "id,name,description\n1,Go,\n",
		"videos.csv":            "id,youtuber_id,title,description,video_url,publication_date,views,likes\n1,1,Intro,,https://v/1,2023-01-01,100,10\n",
		"video_categories.csv":  "video_id,category_id\n1,1\n",
	}
}

func newTestLoader(dir string) *Loader {
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Job = "test"
	return NewLoader(cfg)
}

func TestLoad_AllTables(t *testing.T) {
	t.Parallel()

	dir := writeTables(t, cleanFiles())
	l := newTestLoader(dir)

	got, err := l.Load(context.Background(), config.Default().Tables)
	require.NoError(t, err)

	assert.Len(t, got, 5, "optional users table is skipped when absent")
	assert.NotContains(t, got, schema.Users)

	yt := got[schema.Youtubers]
	require.NotNil(t, yt)
	assert.Equal(t, schema.Youtubers, yt.Name)
	assert.Equal(t, filepath.Join(dir, "youtubers.csv"), yt.Path)
	assert.Equal(t, 1, yt.Len())
	assert.Len(t, yt.Fingerprint, 16)
	assert.Positive(t, yt.Size)
}

func TestLoad_HeaderMapFromConfig(t *testing.T) {
	t.Parallel()

	files := cleanFiles()
	files["categories.csv"] = "id,titol,descripcio\n1,Go,\n"
	cfg := config.Default()
	cfg.DataDir = writeTables(t, files)
	cfg.Parser.Options = config.Options{"header_map": map[string]any{"titol": "name", "descripcio": "description"}}

	got, err := NewLoader(cfg).Load(context.Background(), config.Default().Tables)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "description"}, got[schema.Categories].Fields)
}

func TestLoad_FingerprintTracksContent(t *testing.T) {
	t.Parallel()

	a := writeTables(t, cleanFiles())
	files := cleanFiles()
	files["categories.csv"] += "2,Rust,\n"
	b := writeTables(t, files)

	ga, err := newTestLoader(a).Load(context.Background(), config.Default().Tables)
	require.NoError(t, err)
	gb, err := newTestLoader(b).Load(context.Background(), config.Default().Tables)
	require.NoError(t, err)

	assert.Equal(t, ga[schema.Videos].Fingerprint, gb[schema.Videos].Fingerprint)
	assert.NotEqual(t, ga[schema.Categories].Fingerprint, gb[schema.Categories].Fingerprint)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	t.Parallel()

	files := cleanFiles()
	delete(files, "categories.csv")
	dir := writeTables(t, files)

	got, err := newTestLoader(dir).Load(context.Background(), config.Default().Tables)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrSourceMissing)

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.Categories, se.Table)
	assert.Equal(t, filepath.Join(dir, "categories.csv"), se.Path)
}

func TestLoad_MalformedHeaderCarriesPath(t *testing.T) {
	t.Parallel()

	files := cleanFiles()
	files["videos.csv"] = "id,\"title\n"
	dir := writeTables(t, files)

	_, err := newTestLoader(dir).Load(context.Background(), config.Default().Tables)
	require.ErrorIs(t, err, pcsv.ErrMalformed)

	var pe *pcsv.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, filepath.Join(dir, "videos.csv"), pe.Path)
}

// slowSource blocks reads until the context expires.
type slowSource struct{ path string }

func (s slowSource) Location() string { return s.path }

func (s slowSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(&blockingReader{ctx: ctx}), nil
}

type blockingReader struct{ ctx context.Context }

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.ctx.Done()
	return 0, io.ErrNoProgress
}

func TestLoad_ReadTimeout(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t.TempDir())
	l.ReadTimeout = 20 * time.Millisecond
	l.open = func(path string) datasource.Source {
		if strings.HasSuffix(path, "videos.csv") {
			return slowSource{path: path}
		}
		return nil
	}

	_, err := l.Load(context.Background(), []config.Table{{Name: schema.Videos, File: "videos.csv", Required: true}})
	require.Error(t, err)

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.Videos, se.Table)
}

func TestLoad_RemoteDataDir(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	files := cleanFiles()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body, ok := files[strings.TrimPrefix(r.URL.Path, "/catalogue/")]
		mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	l := newTestLoader(srv.URL + "/catalogue")
	got, err := l.Load(context.Background(), config.Default().Tables)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, srv.URL+"/catalogue/videos.csv", got[schema.Videos].Path)
	assert.Equal(t, 1, got[schema.Videos].Len())

	mu.Lock()
	delete(files, "videos.csv")
	mu.Unlock()
	_, err = l.Load(context.Background(), config.Default().Tables)
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestVerifyPaths(t *testing.T) {
	t.Parallel()

	dir := writeTables(t, cleanFiles())
	out := filepath.Join(t.TempDir(), "logs", "nested")

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.OutputDir = out

	p, err := VerifyPaths(cfg)
	require.NoError(t, err)
	assert.Equal(t, dir, p.DataDir)
	assert.Len(t, p.Entries, 5)

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	cfg.DataDir = filepath.Join(dir, "missing")
	_, err = VerifyPaths(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
