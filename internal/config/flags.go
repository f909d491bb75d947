package config

import (
	"fmt"
	"github.com/spf13/pflag"
)

const (
	FlagConfig         = "config"
	FlagDataDir        = "data-dir"
	FlagSeed           = "seed"
	FlagWorkers        = "workers"
	FlagMaxAttempts    = "max-attempts"
	FlagMetricsBackend = "metrics-backend"
	FlagDebug          = "debug"
)

// RegisterFlags defines the command line flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to litetable.conf (default ~/.litetable/litetable.conf)")
	fs.String(FlagDataDir, "", "directory holding the table data, WAL and snapshots")
	fs.String(FlagSeed, "", "JSONC file of phonebook entries to load before the job runs")
	fs.Int(FlagWorkers, 0, "number of splits processed at once (0 = number of CPUs)")
	fs.Int(FlagMaxAttempts, 0, "attempts per row before the job fails")
	fs.String(FlagMetricsBackend, "", "metrics backend: none, prometheus or datadog")
	fs.Bool(FlagDebug, false, "enable debug logging")
}

// FromFlags loads the file named by --config and applies every flag set on the command line.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err = cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyFlags overrides settings with the flags that were explicitly set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDataDir:
			c.DataDir, err = fs.GetString(f.Name)
		case FlagSeed:
			c.SeedFile, err = fs.GetString(f.Name)
		case FlagWorkers:
			c.Workers, err = fs.GetInt(f.Name)
		case FlagMaxAttempts:
			c.MaxAttempts, err = fs.GetInt(f.Name)
		case FlagMetricsBackend:
			c.MetricsBackend, err = fs.GetString(f.Name)
		case FlagDebug:
			c.Debug, err = fs.GetBool(f.Name)
		}
	})
	return err
}
