package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytetl/internal/metrics"
)

type fakeClient struct {
	counts  map[string]int64
	hists   map[string][]float64
	tags    [][]string
	flushes int
	closed  bool
}

func newFake() *fakeClient {
	return &fakeClient{counts: map[string]int64{}, hists: map[string][]float64{}}
}

func (f *fakeClient) Count(name string, v int64, tags []string, _ float64) error {
	f.counts[name] += v
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakeClient) Histogram(name string, v float64, tags []string, _ float64) error {
	f.hists[name] = append(f.hists[name], v)
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakeClient) Flush() error { f.flushes++; return nil }
func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestBackend_ForwardsToClient(t *testing.T) {
	t.Parallel()

	fc := newFake()
	b := &Backend{client: fc}

	b.IncCounter(metrics.FindingsTotal, 2.9, metrics.Labels{"job": "j", "check": "missing"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "ingest"})
	require.NoError(t, b.Flush())
	require.NoError(t, b.Close())

	assert.EqualValues(t, 2, fc.counts[metrics.FindingsTotal])
	assert.Equal(t, []float64{0.5}, fc.hists[metrics.StepDuration])
	assert.Equal(t, []string{"check:missing", "job:j"}, fc.tags[0])
	assert.Equal(t, 1, fc.flushes)
	assert.True(t, fc.closed)
}

func TestNewBackend_UDPAddress(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "ytetl.", GlobalTags: []string{"env:test"}})
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, labelsToTags(nil))
	assert.Equal(t, []string{"a:1", "b:2"}, labelsToTags(metrics.Labels{"b": "2", "a": "1"}))
}
