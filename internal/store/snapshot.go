package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const snapshotGlob = "snapshot-*.db"

// saveSnapshot writes every shard into a single snapshot file. The file is written atomically so
// a crash never leaves a partial snapshot behind as the newest one.
func (m *Manager) saveSnapshot() error {
	for _, s := range m.shardMap {
		s.mutex.RLock()
	}
	merged := make(litetable.Data)
	for _, s := range m.shardMap {
		for rowKey, row := range s.data {
			merged[rowKey] = row
		}
	}
	dataBytes, err := json.Marshal(merged)
	for _, s := range m.shardMap {
		s.mutex.RUnlock()
	}
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	filename := filepath.Join(m.snapshotDir, fmt.Sprintf("snapshot-%d.db", time.Now().UnixNano()))
	if err = atomic.WriteFile(filename, bytes.NewReader(dataBytes)); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	log.Debug().Str("file", filename).Int("rows", len(merged)).Msg("snapshot written")
	return nil
}

func (m *Manager) loadFromLatestSnapshot() error {
	files, err := filepath.Glob(filepath.Join(m.snapshotDir, snapshotGlob))
	if err != nil {
		return fmt.Errorf("failed to list snapshot files: %w", err)
	}

	if len(files) == 0 {
		// No snapshots yet, nothing to load
		return nil
	}

	sort.Strings(files)
	latest := files[len(files)-1]

	dataBytes, err := os.ReadFile(latest)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", latest, err)
	}

	var loadedData litetable.Data
	if err := json.Unmarshal(dataBytes, &loadedData); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", latest, err)
	}

	var newest int64
	for rowKey, row := range loadedData {
		s := m.shardMap[m.getShardIndex(rowKey)]
		s.mutex.Lock()
		s.data[rowKey] = row
		s.mutex.Unlock()

		for _, family := range row {
			for _, values := range family {
				for _, v := range values {
					if v.Timestamp > newest {
						newest = v.Timestamp
					}
				}
			}
		}
	}
	m.nextTimestamp(newest)

	log.Debug().Str("file", latest).Int("rows", len(loadedData)).Msg("snapshot loaded")
	return nil
}

// maintainSnapshotLimit prunes the oldest snapshots beyond the configured limit.
func (m *Manager) maintainSnapshotLimit() {
	files, err := filepath.Glob(filepath.Join(m.snapshotDir, snapshotGlob))
	if err != nil {
		log.Error().Err(err).Msg("failed to list snapshot files")
		return
	}

	if len(files) <= m.maxSnapshotLimit {
		return
	}

	// file names carry a fixed-width nanosecond timestamp, so lexical order is chronological
	sort.Strings(files)

	for i := 0; i < len(files)-m.maxSnapshotLimit; i++ {
		if err := os.Remove(files[i]); err != nil {
			log.Error().Err(err).Str("file", files[i]).Msg("failed to remove old snapshot")
		} else {
			log.Debug().Str("file", files[i]).Msg("pruned old snapshot")
		}
	}
}
