package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL", jobName: "nightly", wantErr: true},
		{name: "empty job uses default", gatewayURL: "http://pgw:9091", wantJobName: "ytetl"},
		{name: "explicit job kept", jobName: "nightly", gatewayURL: "http://pgw:9091", wantJobName: "nightly"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantJobName, b.jobName)
		})
	}
}

func TestIncCounterAndObserve(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("nightly", "http://pgw:9091")
	require.NoError(t, err)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "ingest", "status": "success"})
	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"step": "ingest", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": "parsed"})
	b.IncCounter(metrics.FindingsTotal, 3, metrics.Labels{"check": "referential"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "ingest", "status": "success"})
	b.ObserveHistogram(metrics.RequestDuration, 0.01, metrics.Labels{"route": "/api/videos", "method": "GET", "code": "2xx"})

	assert.Equal(t, 3.0, testutil.ToFloat64(b.stepCounter.WithLabelValues("ingest", "success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(b.rowCounter.WithLabelValues("parsed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(b.findingCounter.WithLabelValues("referential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.batchCounter))
	assert.Equal(t, 1, testutil.CollectAndCount(b.stepDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(b.requestDuration))
}

// TestFlush verifies that Flush pushes the registry to the configured
// Pushgateway URL.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushed, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("nightly", server.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.FindingsTotal, 1, metrics.Labels{"check": "duplicates"})

	require.NoError(t, b.Flush())

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatal("Flush did not reach the Pushgateway")
	}
	assert.Equal(t, http.MethodPut, got.method)
	assert.True(t, strings.HasSuffix(got.path, "/job/nightly"), got.path)
	assert.NotEmpty(t, got.body)
}
