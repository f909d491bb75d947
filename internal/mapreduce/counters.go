package mapreduce

import (
	"github.com/litetable/litetable-extract/internal/metrics"
	"sort"
	"sync"
	"sync/atomic"
)

// Counters are monotonic named job counters, safe for concurrent use.
type Counters struct {
	jobID string
	mu    sync.RWMutex
	m     map[string]*atomic.Int64
}

func NewCounters(jobID string) *Counters {
	return &Counters{
		jobID: jobID,
		m:     make(map[string]*atomic.Int64),
	}
}

// Increment adds a positive delta to a counter and forwards it to the metrics backend.
func (c *Counters) Increment(name string, delta int64) {
	if delta <= 0 {
		return
	}
	c.counter(name).Add(delta)
	metrics.RecordCounter(c.jobID, name, delta)
}

// Value returns the current value of a counter, zero if it was never incremented.
func (c *Counters) Value(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.m[name]; ok {
		return v.Load()
	}
	return 0
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(c.m))
	for name, v := range c.m {
		out[name] = v.Load()
	}
	return out
}

// Names returns the counter names in sorted order.
func (c *Counters) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.m))
	for name := range c.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Counters) counter(name string) *atomic.Int64 {
	c.mu.RLock()
	v, ok := c.m[name]
	c.mu.RUnlock()
	if ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok = c.m[name]; ok {
		return v
	}
	v = &atomic.Int64{}
	c.m[name] = v
	return v
}
