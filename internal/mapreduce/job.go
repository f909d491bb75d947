// Package mapreduce runs map-only jobs over a wide-column table.
//
// A job reads its input as splits of row keys, builds for every row only the columns named in
// its Request, and hands the row to a Mapper. One row is one processing unit: it is retried as a
// whole, its writes are buffered and committed per row, and its counter increments only count
// once the unit succeeds. Splits run in parallel on a bounded pool of workers; rows inside a
// split run sequentially.
package mapreduce

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
	"runtime"
	"time"
)

//go:generate mockgen -destination=job_mock.go -package=mapreduce -source=job.go

const defaultMaxAttempts = 4

// Reader is a point lookup into the input table.
type Reader interface {
	Fetch(ctx context.Context, rowKey, family, qualifier string) ([]byte, bool, error)
}

// Input partitions the input table into disjoint splits of row keys.
type Input interface {
	Splits(ctx context.Context) ([][]string, error)
}

// Output commits the cells of one row atomically.
type Output interface {
	Commit(ctx context.Context, rowKey string, cells []litetable.Cell) error
}

// Mapper is the unit of work applied to every row.
type Mapper interface {
	Map(ctx context.Context, row *RowData, tc *TaskContext) error
}

// Request names the columns fetched for every row. Nothing else is read.
type Request struct {
	Columns []litetable.Column
}

// Config describes a job. NumReduceTasks must be 0: the engine only runs map-only jobs.
type Config struct {
	ID             string
	Name           string
	Table          string
	Request        Request
	Input          Input
	Reader         Reader
	Output         Output
	Mapper         Mapper
	NumReduceTasks int
	// Workers bounds the number of splits processed at once; 0 uses runtime.NumCPU.
	Workers int
	// MaxAttempts bounds the attempts of a single unit; 0 uses the default of 4.
	MaxAttempts int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.ID == "" {
		errGrp = append(errGrp, errors.New("job id is required"))
	}
	if c.Name == "" {
		errGrp = append(errGrp, errors.New("job name is required"))
	}
	if c.Table == "" {
		errGrp = append(errGrp, errors.New("table is required"))
	}
	if len(c.Request.Columns) == 0 {
		errGrp = append(errGrp, errors.New("data request must name at least one column"))
	}
	for _, col := range c.Request.Columns {
		if col.Family == "" || col.Qualifier == "" {
			errGrp = append(errGrp, fmt.Errorf("invalid requested column %q", col.String()))
		}
	}
	if c.Input == nil {
		errGrp = append(errGrp, errors.New("input is required"))
	}
	if c.Reader == nil {
		errGrp = append(errGrp, errors.New("reader is required"))
	}
	if c.Output == nil {
		errGrp = append(errGrp, errors.New("output is required"))
	}
	if c.Mapper == nil {
		errGrp = append(errGrp, errors.New("mapper is required"))
	}
	if c.NumReduceTasks != 0 {
		errGrp = append(errGrp, fmt.Errorf("only map-only jobs are supported, got %d reduce tasks",
			c.NumReduceTasks))
	}
	if c.Workers < 0 {
		errGrp = append(errGrp, errors.New("workers cannot be negative"))
	}
	if c.MaxAttempts < 0 {
		errGrp = append(errGrp, errors.New("max attempts cannot be negative"))
	}
	return errors.Join(errGrp...)
}

// Job is a configured, runnable map-only job.
type Job struct {
	id          string
	name        string
	table       string
	request     Request
	input       Input
	reader      Reader
	output      Output
	mapper      Mapper
	workers     int
	maxAttempts int
	counters    *Counters
}

// Result is the outcome of a finished job.
type Result struct {
	JobID     string
	Succeeded bool
	// Err is the first unit failure, or the cancellation cause.
	Err      error
	Counters map[string]int64
	// Rows counts units that completed, Failed the units that exhausted their attempts.
	Rows     int64
	Failed   int64
	Duration time.Duration
}

// New validates the configuration and returns a job ready to Run.
func New(cfg *Config) (*Job, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}

	columns := make([]litetable.Column, len(cfg.Request.Columns))
	copy(columns, cfg.Request.Columns)

	return &Job{
		id:          cfg.ID,
		name:        cfg.Name,
		table:       cfg.Table,
		request:     Request{Columns: columns},
		input:       cfg.Input,
		reader:      cfg.Reader,
		output:      cfg.Output,
		mapper:      cfg.Mapper,
		workers:     workers,
		maxAttempts: maxAttempts,
		counters:    NewCounters(cfg.ID),
	}, nil
}

// ID returns the job id.
func (j *Job) ID() string {
	return j.id
}

// Counters returns the live job counters.
func (j *Job) Counters() *Counters {
	return j.counters
}
