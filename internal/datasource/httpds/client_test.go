package httpds

import (
	"context"
	"crypto/tls"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(retries int) *Client {
	c := NewClient(Config{
		MaxRetries:     retries,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(time.Duration) {}
	return c
}

// sequence answers with statuses in order, repeating the last one.
func sequence(hits *int32, statuses ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
		_, _ = io.WriteString(w, "id,name\n1,Go\n")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -1})
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Zero(t, c.maxRetries)
	assert.Equal(t, 200*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 5*time.Second, c.maxBackoff)

	tp, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, tp.TLSClientConfig.InsecureSkipVerify)

	custom := &http.Transport{TLSClientConfig: &tls.Config{}}
	c = NewClient(Config{Transport: custom, InsecureSkipVerify: true})
	assert.Same(t, custom, c.httpClient.Transport)
	assert.False(t, custom.TLSClientConfig.InsecureSkipVerify)
}

func TestGet_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		statuses []int
		retries  int
		wantHits int32
		wantErr  bool
		status   int
	}{
		{"ok first time", []int{200}, 3, 1, false, 200},
		{"recovers after 5xx", []int{500, 502, 200}, 3, 3, false, 200},
		{"429 is retried", []int{429, 200}, 1, 2, false, 200},
		{"gives up", []int{503}, 2, 3, true, 0},
		{"4xx is final", []int{400}, 5, 1, false, 400},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			srv := httptest.NewServer(sequence(&hits, tt.statuses...))
			defer srv.Close()

			resp, err := fastClient(tt.retries).Get(context.Background(), srv.URL)
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "giving up after 3 attempts")
				return
			}
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGet_SendsHeader(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := NewClient(Config{Header: http.Header{"Authorization": {"Bearer t"}}})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer t", <-got)
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		initial time.Duration
		attempt int
		want    time.Duration
	}{
		{100 * time.Millisecond, 0, 100 * time.Millisecond},
		{100 * time.Millisecond, 1, 200 * time.Millisecond},
		{100 * time.Millisecond, 2, 400 * time.Millisecond},
		{600 * time.Millisecond, 1, time.Second},
		{time.Second, 70, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoffDuration(tt.initial, tt.attempt, time.Second), "initial=%s attempt=%d", tt.initial, tt.attempt)
	}
}

func TestSleepWithContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepWithContext(ctx, func(time.Duration) {}, time.Minute), context.Canceled)
}

func TestSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalogue/categories.csv":
			_, _ = io.WriteString(w, "id,name,description\n1,Go,\n")
		case "/catalogue/broken.csv":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := fastClient(0)
	u, err := JoinURL(srv.URL+"/catalogue/", "categories.csv")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/catalogue/categories.csv", u)

	rc, err := NewSource(c, u).Open(context.Background())
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "id,name,description\n1,Go,\n", string(body))

	_, err = NewSource(c, srv.URL+"/catalogue/videos.csv").Open(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = NewSource(c, srv.URL+"/catalogue/broken.csv").Open(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "403")
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://example.com/data"))
	assert.True(t, IsURL("http://localhost:8080"))
	assert.False(t, IsURL("data/youtubers_programacio"))
	assert.False(t, IsURL("/srv/https/data"))
}
