package mapreduce

import (
	"context"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/litetable/litetable-extract/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"sync/atomic"
	"time"
)

const (
	unitSuccess = "success"
	unitRetry   = "retry"
	unitFailure = "failure"
)

// UnitError is returned when a single row exhausted all of its attempts.
type UnitError struct {
	RowKey   string
	Attempts int
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("row %q failed after %d attempt(s): %v", e.RowKey, e.Attempts, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Run executes the job and blocks until every split finished, a unit failed, or ctx was
// canceled. The returned error is only set when the job could not be started; execution
// failures are reported through Result.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	splits, err := j.input.Splits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute input splits for %s: %w", j.table, err)
	}

	log.Info().
		Str("job_id", j.id).
		Str("job", j.name).
		Str("table", j.table).
		Int("splits", len(splits)).
		Int("workers", j.workers).
		Msg("job started")

	var rows, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i, split := range splits {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return j.runTask(gctx, i, split, &rows, &failed)
		})
	}
	runErr := g.Wait()
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	res := &Result{
		JobID:     j.id,
		Succeeded: runErr == nil,
		Err:       runErr,
		Counters:  j.counters.Snapshot(),
		Rows:      rows.Load(),
		Failed:    failed.Load(),
		Duration:  time.Since(start),
	}
	metrics.RecordJob(j.id, res.Succeeded, res.Duration)

	return res, nil
}

// runTask processes one split, row by row. The first unit that exhausts its attempts fails the
// task, which cancels the sibling tasks through the errgroup context.
func (j *Job) runTask(ctx context.Context, split int, keys []string, rows, failed *atomic.Int64) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.runUnit(ctx, split, key); err != nil {
			failed.Add(1)
			return err
		}
		rows.Add(1)
	}
	log.Debug().Str("job_id", j.id).Int("split", split).Int("rows", len(keys)).Msg("split done")
	return nil
}

func (j *Job) runUnit(ctx context.Context, split int, rowKey string) error {
	var lastErr error
	for attempt := 1; attempt <= j.maxAttempts; attempt++ {
		tc := newTaskContext(ctx, j.id, split, attempt, j.output)

		err := j.attempt(ctx, rowKey, tc)
		if err == nil {
			for name, delta := range tc.counters {
				j.counters.Increment(name, delta)
			}
			metrics.RecordUnit(j.id, unitSuccess)
			return nil
		}
		lastErr = err

		// a canceled job is not a unit failure worth retrying
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < j.maxAttempts {
			metrics.RecordUnit(j.id, unitRetry)
			log.Warn().Err(err).
				Str("job_id", j.id).
				Str("row", rowKey).
				Int("attempt", attempt).
				Msg("unit failed, retrying")
		}
	}

	metrics.RecordUnit(j.id, unitFailure)
	log.Error().Err(lastErr).
		Str("job_id", j.id).
		Str("row", rowKey).
		Int("attempts", j.maxAttempts).
		Msg("unit failed")

	return &UnitError{RowKey: rowKey, Attempts: j.maxAttempts, Err: lastErr}
}

// attempt runs the mapper once. Writers left open by the mapper are flushed on success and
// discarded on failure; a panic counts as a failed attempt.
func (j *Job) attempt(ctx context.Context, rowKey string, tc *TaskContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mapper panic: %v", r)
		}
		if relErr := tc.release(err != nil); relErr != nil {
			err = relErr
		}
	}()

	row, err := j.readRow(ctx, rowKey)
	if err != nil {
		return err
	}
	return j.mapper.Map(ctx, row, tc)
}

// readRow fetches exactly the requested columns of a row.
func (j *Job) readRow(ctx context.Context, rowKey string) (*RowData, error) {
	values := make(map[litetable.Column][]byte, len(j.request.Columns))
	for _, col := range j.request.Columns {
		v, found, err := j.reader.Fetch(ctx, rowKey, col.Family, col.Qualifier)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s of row %s: %w", col.String(), rowKey, err)
		}
		if found {
			values[col] = v
		}
	}
	return NewRowData(rowKey, values), nil
}
