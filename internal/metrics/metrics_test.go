package metrics

import (
	"sync"
	"testing"
	"time"

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

func withFake(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })

	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordCounter(t *testing.T) {
	fb := withFake(t)

	RecordCounter("job-1", "MISSING_ADDRESS", 1)
	RecordCounter("job-1", "MISSING_ADDRESS", 0)
	RecordCounter("job-1", "MISSING_ADDRESS", -3)

	require.Len(t, fb.counters, 1)
	require.Equal(t, call{
		name:   CounterMetric,
		value:  1,
		labels: Labels{"job": "job-1", "counter": "MISSING_ADDRESS"},
	}, fb.counters[0])
}

func TestRecordUnitAndJob(t *testing.T) {
	fb := withFake(t)

	RecordUnit("job-1", "success")
	RecordUnit("job-1", "failure")
	RecordJob("job-1", false, 1500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Equal(t, UnitMetric, fb.counters[1].name)
	require.Equal(t, "failure", fb.counters[1].labels["status"])

	require.Len(t, fb.histograms, 1)
	require.Equal(t, DurationMetric, fb.histograms[0].name)
	require.InDelta(t, 1.5, fb.histograms[0].value, 0.001)
	require.Equal(t, "failure", fb.histograms[0].labels["status"])
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := withFake(t)

	SetBackend(nil)
	require.Same(t, fb, backend.(*fakeBackend))

	require.NoError(t, Flush())
	require.Equal(t, 1, fb.flushCount)
}
