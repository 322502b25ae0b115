package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(Reset)
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("nightly", "check.structure", nil, 2*time.Second)
	RecordStep("nightly", "ingest", errors.New("boom"), 1500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Len(t, fb.histograms, 2)

	assert.Equal(t, StepTotal, fb.counters[0].name)
	assert.Equal(t, Labels{"job": "nightly", "step": "check.structure", "status": "success"}, fb.counters[0].labels)
	assert.Equal(t, StepDuration, fb.histograms[0].name)
	assert.InDelta(t, 2.0, fb.histograms[0].value, 0.001)

	assert.Equal(t, "failure", fb.counters[1].labels["status"])
	assert.InDelta(t, 1.5, fb.histograms[1].value, 0.001)
}

func TestRecordRowFindingsAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("j", "parsed", 3)
	RecordRow("j", "parsed", 0)
	RecordFindings("j", "duplicates", 2)
	RecordFindings("j", "missing", 0)
	RecordBatches("j", 4)

	require.Len(t, fb.counters, 3)
	assert.Equal(t, call{RowsTotal, 3, Labels{"job": "j", "kind": "parsed"}}, fb.counters[0])
	assert.Equal(t, call{FindingsTotal, 2, Labels{"job": "j", "check": "duplicates"}}, fb.counters[1])
	assert.Equal(t, call{BatchesTotal, 4, Labels{"job": "j"}}, fb.counters[2])
}

func TestRecordRequest(t *testing.T) {
	fb := install(t)

	RecordRequest("/api/videos/{id}", "GET", 404, 10*time.Millisecond)

	require.Len(t, fb.counters, 1)
	assert.Equal(t, "4xx", fb.counters[0].labels["code"])
	assert.Equal(t, RequestDuration, fb.histograms[0].name)
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	require.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushCount)

	SetBackend(nil)
	assert.Same(t, fb, current().(*fakeBackend), "SetBackend(nil) must keep the backend")

	Reset()
	assert.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushCount)
}
