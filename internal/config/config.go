// Package config loads the job settings from litetable.conf and the command line.
//
// The file is a plain key = value list; '#' starts a comment line. When no path is given the
// file is looked up in ~/.litetable, and a missing default file simply means defaults. Flags
// that were set explicitly on the command line win over the file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/rs/zerolog/log"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	configFileName = "litetable.conf"

	MetricsNone       = "none"
	MetricsPrometheus = "prometheus"
	MetricsDatadog    = "datadog"
)

type Config struct {
	Table            string
	DataDir          string
	ShardCount       int
	MaxVersions      int
	MaxSnapshotLimit int
	WALSync          bool

	Workers     int
	MaxAttempts int
	SeedFile    string

	MetricsBackend string
	PushgatewayURL string
	DatadogAddr    string

	CDCEnabled bool
	CDCAddress string
	CDCPort    int

	Debug bool
}

// Default returns the settings used when no configuration file exists.
func Default() *Config {
	dataDir := ""
	if dir, err := litetable.GetLitetableDir(); err == nil {
		dataDir = dir
	}
	return &Config{
		Table:            "phonebook",
		DataDir:          dataDir,
		ShardCount:       4,
		MaxVersions:      1,
		MaxSnapshotLimit: 3,
		WALSync:          true,
		Workers:          0,
		MaxAttempts:      4,
		MetricsBackend:   MetricsNone,
		DatadogAddr:      "127.0.0.1:8125",
		CDCAddress:       "127.0.0.1",
		CDCPort:          5001,
	}
}

// Load reads a configuration file on top of the defaults. An empty path means
// ~/.litetable/litetable.conf, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dir, err := litetable.GetLitetableDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get LiteTable directory: %w", err)
		}
		path = filepath.Join(dir, configFileName)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			log.Debug().Str("path", path).Msg("no configuration file, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err = cfg.parse(file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	var errs []error
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := c.set(key, value); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return errors.Join(errs...)
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "table":
		c.Table = value
	case "data_dir":
		c.DataDir = value
	case "shard_count":
		c.ShardCount, err = strconv.Atoi(value)
	case "max_versions":
		c.MaxVersions, err = strconv.Atoi(value)
	case "max_snapshot_limit":
		c.MaxSnapshotLimit, err = strconv.Atoi(value)
	case "wal_sync":
		c.WALSync, err = strconv.ParseBool(value)
	case "workers":
		c.Workers, err = strconv.Atoi(value)
	case "max_attempts":
		c.MaxAttempts, err = strconv.Atoi(value)
	case "seed_file":
		c.SeedFile = value
	case "metrics_backend":
		c.MetricsBackend = value
	case "pushgateway_url":
		c.PushgatewayURL = value
	case "datadog_addr":
		c.DatadogAddr = value
	case "cdc_enabled":
		c.CDCEnabled, err = strconv.ParseBool(value)
	case "cdc_address":
		c.CDCAddress = value
	case "cdc_port":
		c.CDCPort, err = strconv.Atoi(value)
	case "debug":
		c.Debug = value == "true"
	default:
		log.Warn().Str("key", key).Msg("unknown configuration key")
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return nil
}

// Validate checks the settings once file and flags have been merged.
func (c *Config) Validate() error {
	var errs []error
	if c.Table == "" {
		errs = append(errs, errors.New("table is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.ShardCount <= 0 {
		errs = append(errs, errors.New("shard_count must be positive"))
	}
	if c.MaxVersions <= 0 {
		errs = append(errs, errors.New("max_versions must be positive"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers cannot be negative"))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max_attempts must be positive"))
	}

	switch c.MetricsBackend {
	case MetricsNone, "":
	case MetricsPrometheus:
		if c.PushgatewayURL == "" {
			errs = append(errs, errors.New("pushgateway_url is required for the prometheus backend"))
		} else if _, err := url.ParseRequestURI(c.PushgatewayURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid pushgateway_url: %w", err))
		}
	case MetricsDatadog:
		if c.DatadogAddr == "" {
			errs = append(errs, errors.New("datadog_addr is required for the datadog backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown metrics_backend %q", c.MetricsBackend))
	}

	if c.CDCEnabled && (c.CDCPort < 0 || c.CDCPort > 65535) {
		errs = append(errs, fmt.Errorf("invalid cdc_port %d", c.CDCPort))
	}
	return errors.Join(errs...)
}
