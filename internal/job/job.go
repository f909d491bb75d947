// Package job wires the address extractor into a map-only job over the phonebook table and
// turns its outcome into a process exit status.
package job

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/litetable/litetable-extract/internal/extract"
	"github.com/litetable/litetable-extract/internal/mapreduce"
	"github.com/litetable/litetable-extract/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	Name = "address-field-extractor"

	ExitSuccess = 0
	ExitFailure = 1
)

type table interface {
	mapreduce.Input
	mapreduce.Reader
	mapreduce.Output
	Table() string
}

type Config struct {
	Table       table
	Workers     int
	MaxAttempts int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Table == nil {
		errGrp = append(errGrp, errors.New("table is required"))
	}
	if c.Workers < 0 {
		errGrp = append(errGrp, errors.New("workers cannot be negative"))
	}
	if c.MaxAttempts < 0 {
		errGrp = append(errGrp, errors.New("max attempts cannot be negative"))
	}
	return errors.Join(errGrp...)
}

// Driver configures and submits the extraction job.
type Driver struct {
	table       table
	workers     int
	maxAttempts int
	mapper      mapreduce.Mapper
}

func New(cfg *Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mapper, err := extract.NewAddressExtractor()
	if err != nil {
		return nil, err
	}

	return &Driver{
		table:       cfg.Table,
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		mapper:      mapper,
	}, nil
}

// Run submits the job, waits for it and logs the final counters. It returns an error when the
// job could not be submitted or did not succeed.
func (d *Driver) Run(ctx context.Context) (*mapreduce.Result, error) {
	job, err := mapreduce.New(&mapreduce.Config{
		ID:             uuid.NewString(),
		Name:           Name,
		Table:          d.table.Table(),
		Request:        extract.DataRequest(),
		Input:          d.table,
		Reader:         d.table,
		Output:         d.table,
		Mapper:         d.mapper,
		NumReduceTasks: 0,
		Workers:        d.workers,
		MaxAttempts:    d.maxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure job: %w", err)
	}

	res, err := job.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to submit job %s: %w", job.ID(), err)
	}

	logResult(res)

	if err = metrics.Flush(); err != nil {
		log.Warn().Err(err).Str("job_id", res.JobID).Msg("failed to flush metrics")
	}

	if !res.Succeeded {
		return res, fmt.Errorf("job %s failed: %w", res.JobID, res.Err)
	}
	return res, nil
}

// ExitCode maps a job outcome to the process exit status.
func ExitCode(err error) int {
	if err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func logResult(res *mapreduce.Result) {
	if _, ok := res.Counters[extract.MissingAddress]; !ok {
		res.Counters[extract.MissingAddress] = 0
	}

	for name, value := range res.Counters {
		log.Info().
			Str("job_id", res.JobID).
			Str("counter", name).
			Int64("value", value).
			Msg("job counter")
	}

	event := log.Info()
	if !res.Succeeded {
		event = log.Error().Err(res.Err)
	}
	event.
		Str("job_id", res.JobID).
		Bool("succeeded", res.Succeeded).
		Int64("rows", res.Rows).
		Int64("failed_rows", res.Failed).
		Dur("duration", res.Duration).
		Msg("job finished")
}
