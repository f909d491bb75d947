package mapreduce

import (
	"context"
	"github.com/litetable/litetable-extract/internal/litetable"
)

// RowData holds the requested columns of one row.
type RowData struct {
	key    string
	values map[litetable.Column][]byte
}

// NewRowData builds row data from already fetched values.
func NewRowData(key string, values map[litetable.Column][]byte) *RowData {
	if values == nil {
		values = make(map[litetable.Column][]byte)
	}
	return &RowData{key: key, values: values}
}

// Key returns the row identity.
func (r *RowData) Key() string {
	return r.key
}

// ContainsColumn reports whether the row has a live value for a requested column.
func (r *RowData) ContainsColumn(family, qualifier string) bool {
	_, ok := r.values[litetable.Column{Family: family, Qualifier: qualifier}]
	return ok
}

// Value returns the value of a requested column.
func (r *RowData) Value(family, qualifier string) ([]byte, bool) {
	v, ok := r.values[litetable.Column{Family: family, Qualifier: qualifier}]
	return v, ok
}

// TaskContext is handed to the mapper for a single attempt of a single unit. Counter
// increments are held locally and only merged into the job counters if the attempt succeeds.
type TaskContext struct {
	ctx     context.Context
	jobID   string
	split   int
	attempt int
	output  Output

	counters map[string]int64
	writers  []*TableWriter
}

func newTaskContext(ctx context.Context, jobID string, split, attempt int, output Output) *TaskContext {
	return &TaskContext{
		ctx:      ctx,
		jobID:    jobID,
		split:    split,
		attempt:  attempt,
		output:   output,
		counters: make(map[string]int64),
	}
}

// JobID returns the id of the running job.
func (tc *TaskContext) JobID() string {
	return tc.jobID
}

// Attempt is 1 for the first attempt of a unit.
func (tc *TaskContext) Attempt() int {
	return tc.attempt
}

// IncrementCounter adds delta to a named job counter.
func (tc *TaskContext) IncrementCounter(name string, delta int64) {
	tc.counters[name] += delta
}

// NewWriter acquires a buffered writer for this unit. The caller must Close it; the engine
// also releases any writer left open when the unit ends.
func (tc *TaskContext) NewWriter() *TableWriter {
	w := &TableWriter{output: tc.output, ctx: tc.ctx}
	tc.writers = append(tc.writers, w)
	return w
}

// release closes writers the mapper left open. A failed unit discards them.
func (tc *TaskContext) release(failed bool) error {
	var firstErr error
	for _, w := range tc.writers {
		if failed {
			w.Abort()
			continue
		}
		if err := w.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewTaskContext returns a context for running a Mapper outside of a job.
func NewTaskContext(ctx context.Context, jobID string, output Output) *TaskContext {
	return newTaskContext(ctx, jobID, 0, 1, output)
}

// Counters returns the increments made so far by this attempt.
func (tc *TaskContext) Counters() map[string]int64 {
	out := make(map[string]int64, len(tc.counters))
	for k, v := range tc.counters {
		out[k] = v
	}
	return out
}
