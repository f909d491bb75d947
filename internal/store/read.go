package store

import (
	"context"
	"github.com/litetable/litetable-extract/internal/litetable"
	"sort"
)

// Fetch implements mapreduce.Reader. It returns the newest live value of a single cell.
func (m *Manager) Fetch(ctx context.Context, rowKey, family, qualifier string) ([]byte, bool,
	error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s := m.shardMap[m.getShardIndex(rowKey)]
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	row, exists := s.data[rowKey]
	if !exists {
		return nil, false, nil
	}
	values, exists := row[family][qualifier]
	if !exists {
		return nil, false, nil
	}

	value, ok := litetable.Latest(values)
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// GetRow returns a copy of every family of a row.
func (m *Manager) GetRow(rowKey string) (*litetable.Row, bool) {
	s := m.shardMap[m.getShardIndex(rowKey)]
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	row, exists := s.data[rowKey]
	if !exists {
		return nil, false
	}

	result := &litetable.Row{
		Key:     rowKey,
		Columns: make(map[string]litetable.VersionedQualifier, len(row)),
	}
	for familyName, family := range row {
		vq := make(litetable.VersionedQualifier, len(family))
		for qualifier, values := range family {
			vq[qualifier] = append([]litetable.TimestampedValue(nil), values...)
		}
		result.Columns[familyName] = vq
	}
	return result, true
}

// Splits implements mapreduce.Input. Each shard is one split; keys are sorted within a split
// and no key appears in more than one split.
func (m *Manager) Splits(ctx context.Context) ([][]string, error) {
	splits := make([][]string, 0, len(m.shardMap))
	for _, s := range m.shardMap {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mutex.RLock()
		keys := make([]string, 0, len(s.data))
		for rowKey := range s.data {
			keys = append(keys, rowKey)
		}
		s.mutex.RUnlock()

		sort.Strings(keys)
		splits = append(splits, keys)
	}
	return splits, nil
}
