// Package store is the sharded, in-memory wide-column table the extraction job reads from and
// writes to.
//
// Rows are spread over a fixed number of shards by hashing the row key. Each shard owns its
// slice of the table and its own lock, so a row commit only ever blocks rows that hash to the
// same shard. The shards double as the job's input splits: every row key lives in exactly one
// shard, which gives the engine disjoint row ranges for free.
//
// Durability comes from two pieces: every commit is appended to the WAL before it is applied
// in memory, and Stop writes an atomic snapshot of all shards and truncates the WAL. Start
// loads the newest snapshot and replays whatever the WAL holds on top of it.
package store

import (
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/cdc_emitter"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/litetable/litetable-extract/internal/wal"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
	"os"
	"path/filepath"
	"sync"
)

//go:generate mockgen -destination=store_mock.go -package=store -source=store.go

const (
	snapshotDir        = ".snapshots"
	dataFamilyLockFile = "families.config.json"
)

var (
	defaultShardCount       = 4
	defaultMaxVersions      = 1
	defaultMaxSnapshotLimit = 3
)

type writeAhead interface {
	Apply(e *wal.Entry) error
	Load(apply func(e *wal.Entry) error) error
	Truncate() error
}

type cdc interface {
	Emit(params *cdc_emitter.CDCParams)
}

// shard is a manager for a single shard of in-memory litetable.Data.
type shard struct {
	data  litetable.Data
	mutex sync.RWMutex
}

// Manager owns one table.
type Manager struct {
	table   string
	rootDir string

	maxVersions      int
	maxSnapshotLimit int
	snapshotDir      string

	allowedFamilies []string
	familiesFile    string
	familyMutex     sync.RWMutex

	wal writeAhead
	cdc cdc

	shardCount int
	shardMap   []*shard

	// lastTimestamp keeps commit timestamps strictly increasing
	clockMutex    sync.Mutex
	lastTimestamp int64
}

type Config struct {
	Table            string
	RootDir          string
	ShardCount       int
	MaxVersions      int
	MaxSnapshotLimit int
	// Families are registered on creation in addition to any already persisted.
	Families []string
	WAL      writeAhead
	// CDC is optional.
	CDC cdc
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Table == "" {
		errGrp = append(errGrp, errors.New("table name is required"))
	}
	if c.RootDir == "" {
		errGrp = append(errGrp, errors.New("data directory is required"))
	}
	if c.WAL == nil {
		errGrp = append(errGrp, errors.New("WAL is required"))
	}
	if c.ShardCount < 0 || c.ShardCount > 256 {
		errGrp = append(errGrp, errors.New("shard count must be between 1 and 256"))
	}
	if c.MaxVersions < 0 {
		errGrp = append(errGrp, errors.New("max versions cannot be negative"))
	}
	if c.MaxSnapshotLimit < 0 || c.MaxSnapshotLimit > 50 {
		errGrp = append(errGrp, errors.New("max snapshot limit must be between 1 and 50"))
	}
	return errors.Join(errGrp...)
}

// New creates a table manager. Nothing is loaded from disk until Start.
func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	tableDir := filepath.Join(cfg.RootDir, cfg.Table)
	snapDir := filepath.Join(tableDir, snapshotDir)
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	shardCount := cfg.ShardCount
	if shardCount == 0 {
		shardCount = defaultShardCount
	}
	maxVersions := cfg.MaxVersions
	if maxVersions == 0 {
		maxVersions = defaultMaxVersions
	}
	snapshotLimit := cfg.MaxSnapshotLimit
	if snapshotLimit == 0 {
		snapshotLimit = defaultMaxSnapshotLimit
	}

	m := &Manager{
		table:            cfg.Table,
		rootDir:          tableDir,
		maxVersions:      maxVersions,
		maxSnapshotLimit: snapshotLimit,
		snapshotDir:      snapDir,
		allowedFamilies:  make([]string, 0),
		familiesFile:     filepath.Join(tableDir, dataFamilyLockFile),
		wal:              cfg.WAL,
		cdc:              cfg.CDC,
		shardCount:       shardCount,
		shardMap:         make([]*shard, shardCount),
	}

	for i := range m.shardMap {
		m.shardMap[i] = &shard{data: make(litetable.Data)}
	}

	// load any existing column families
	if err := m.loadAllowedFamilies(); err != nil {
		return nil, fmt.Errorf("failed to load allowed families: %w", err)
	}
	if len(cfg.Families) > 0 {
		if err := m.UpdateFamilies(cfg.Families); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Start loads the newest snapshot and replays the WAL on top of it.
func (m *Manager) Start() error {
	if err := m.loadFromLatestSnapshot(); err != nil {
		return err
	}

	if err := m.wal.Load(func(e *wal.Entry) error {
		if e.Operation != litetable.OperationWrite {
			return nil
		}
		return m.applyToShard(e.RowKey, e.Cells, e.Timestamp)
	}); err != nil {
		return fmt.Errorf("failed to load WAL: %w", err)
	}

	log.Info().Str("table", m.table).Int("shards", m.shardCount).Msg("table loaded")
	return nil
}

// Stop snapshots the table and truncates the WAL the snapshot now covers.
func (m *Manager) Stop() error {
	if err := m.saveSnapshot(); err != nil {
		return err
	}
	if err := m.wal.Truncate(); err != nil {
		return fmt.Errorf("failed to truncate WAL after snapshot: %w", err)
	}
	m.maintainSnapshotLimit()
	return nil
}

func (m *Manager) Name() string {
	return "Table Store (" + m.table + ")"
}

// Table returns the name of the table this manager owns.
func (m *Manager) Table() string {
	return m.table
}

// getShardIndex determines which shard a particular row key belongs to.
func (m *Manager) getShardIndex(rowKey string) int {
	if m.shardCount <= 0 {
		return 0
	}
	return int(xxh3.HashString(rowKey) % uint64(m.shardCount))
}

// nextTimestamp returns a commit timestamp that is never lower than a previous one.
func (m *Manager) nextTimestamp(now int64) int64 {
	m.clockMutex.Lock()
	defer m.clockMutex.Unlock()

	if now <= m.lastTimestamp {
		now = m.lastTimestamp + 1
	}
	m.lastTimestamp = now
	return now
}
