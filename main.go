package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/app"
	"github.com/litetable/litetable-extract/internal/cdc_emitter"
	"github.com/litetable/litetable-extract/internal/config"
	"github.com/litetable/litetable-extract/internal/extract"
	"github.com/litetable/litetable-extract/internal/job"
	"github.com/litetable/litetable-extract/internal/metrics"
	"github.com/litetable/litetable-extract/internal/metrics/datadog"
	"github.com/litetable/litetable-extract/internal/metrics/prompush"
	"github.com/litetable/litetable-extract/internal/seed"
	"github.com/litetable/litetable-extract/internal/store"
	"github.com/litetable/litetable-extract/internal/wal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"os"
	"time"
)

const stopTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("litetable-extract", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return job.ExitSuccess
		}
		return job.ExitFailure
	}

	cfg, err := config.FromFlags(fs)
	setupLogging(cfg != nil && cfg.Debug)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return job.ExitFailure
	}

	if err = setupMetrics(cfg); err != nil {
		log.Error().Err(err).Msg("failed to configure metrics")
		return job.ExitFailure
	}

	walManager, err := wal.New(&wal.Config{
		Path: cfg.DataDir,
		Sync: cfg.WALSync,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to open WAL")
		return job.ExitFailure
	}
	defer func() {
		if err := walManager.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close WAL")
		}
	}()

	application, runJob, err := initialize(cfg, walManager)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		return job.ExitFailure
	}

	err = application.Run(context.Background(), runJob)
	if err != nil {
		log.Error().Err(err).Msg("address extraction failed")
	}
	return job.ExitCode(err)
}

func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func setupMetrics(cfg *config.Config) error {
	switch cfg.MetricsBackend {
	case config.MetricsPrometheus:
		b, err := prompush.NewBackend(job.Name, cfg.PushgatewayURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      cfg.DatadogAddr,
			Namespace: "litetable.",
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	}
	return nil
}

// initialize builds the dependencies in start order and the job that runs between Start and
// Stop.
func initialize(cfg *config.Config, walManager *wal.Manager) (*app.App, app.Job, error) {
	var deps []app.Dependency

	storeCfg := &store.Config{
		Table:            cfg.Table,
		RootDir:          cfg.DataDir,
		ShardCount:       cfg.ShardCount,
		MaxVersions:      cfg.MaxVersions,
		MaxSnapshotLimit: cfg.MaxSnapshotLimit,
		Families:         []string{extract.InfoFamily, extract.DerivedFamily},
		WAL:              walManager,
	}

	if cfg.CDCEnabled {
		cdcEmitter, err := cdc_emitter.New(&cdc_emitter.Config{
			Address: cfg.CDCAddress,
			Port:    cfg.CDCPort,
		})
		if err != nil {
			return nil, nil, err
		}
		deps = append(deps, cdcEmitter)
		storeCfg.CDC = cdcEmitter
	}

	table, err := store.New(storeCfg)
	if err != nil {
		return nil, nil, err
	}
	deps = append(deps, table)

	driver, err := job.New(&job.Config{
		Table:       table,
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		return nil, nil, err
	}

	application, err := app.CreateApp(&app.Config{
		ServiceName: job.Name,
		StopTimeout: stopTimeout,
	}, deps...)
	if err != nil {
		return nil, nil, err
	}

	runJob := func(ctx context.Context) error {
		if cfg.SeedFile != "" {
			if err := seedTable(table, cfg.SeedFile); err != nil {
				return err
			}
		}
		_, err := driver.Run(ctx)
		return err
	}

	return application, runJob, nil
}

func seedTable(table *store.Manager, path string) error {
	entries, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	seeder, err := seed.New(table)
	if err != nil {
		return err
	}
	if _, err = seeder.Seed(entries); err != nil {
		return fmt.Errorf("failed to seed %s: %w", table.Table(), err)
	}
	return nil
}
