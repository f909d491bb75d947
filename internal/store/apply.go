package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/cdc_emitter"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/litetable/litetable-extract/internal/wal"
	"sort"
	"time"
)

// Commit implements mapreduce.Output: the cells of one row are applied as a single unit.
func (m *Manager) Commit(ctx context.Context, rowKey string, cells []litetable.Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Apply(rowKey, cells)
}

// Apply writes every cell of a row with the same timestamp. The cells are validated and logged
// to the WAL before any of them is applied, so either all of them become visible or none do.
func (m *Manager) Apply(rowKey string, cells []litetable.Cell) error {
	if err := m.validateCells(rowKey, cells); err != nil {
		return err
	}

	s := m.shardMap[m.getShardIndex(rowKey)]

	// WAL order must match memory order for a row, so the shard stays locked across both.
	s.mutex.Lock()
	defer s.mutex.Unlock()

	timestamp := m.nextTimestamp(time.Now().UnixNano())
	if err := m.wal.Apply(&wal.Entry{
		Operation: litetable.OperationWrite,
		RowKey:    rowKey,
		Cells:     cells,
		Timestamp: timestamp,
	}); err != nil {
		return fmt.Errorf("failed to log commit for row %s: %w", rowKey, err)
	}

	m.applyLocked(s, rowKey, cells, timestamp)

	if m.cdc != nil {
		for _, cell := range cells {
			m.cdc.Emit(&cdc_emitter.CDCParams{
				Operation: litetable.OperationWrite,
				RowKey:    rowKey,
				Family:    cell.Family,
				Qualifier: cell.Qualifier,
				Column: litetable.TimestampedValue{
					Value:     cell.Value,
					Timestamp: timestamp,
				},
			})
		}
	}

	return nil
}

func (m *Manager) validateCells(rowKey string, cells []litetable.Cell) error {
	if rowKey == "" {
		return errors.New("row key is required")
	}
	if len(cells) == 0 {
		return fmt.Errorf("no cells to write for row %s", rowKey)
	}

	var errGrp []error
	for _, cell := range cells {
		if cell.Qualifier == "" {
			errGrp = append(errGrp, fmt.Errorf("missing qualifier in family %s", cell.Family))
		}
		if !m.IsFamilyAllowed(cell.Family) {
			errGrp = append(errGrp, fmt.Errorf("column family not allowed: %s", cell.Family))
		}
	}
	return errors.Join(errGrp...)
}

// applyToShard is used by WAL replay, where the entry is already durable.
func (m *Manager) applyToShard(rowKey string, cells []litetable.Cell, timestamp int64) error {
	if err := m.validateCells(rowKey, cells); err != nil {
		return err
	}

	m.nextTimestamp(timestamp)

	s := m.shardMap[m.getShardIndex(rowKey)]
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m.applyLocked(s, rowKey, cells, timestamp)
	return nil
}

func (m *Manager) applyLocked(s *shard, rowKey string, cells []litetable.Cell, timestamp int64) {
	row, exists := s.data[rowKey]
	if !exists {
		row = make(map[string]litetable.VersionedQualifier)
		s.data[rowKey] = row
	}

	for _, cell := range cells {
		family, exists := row[cell.Family]
		if !exists {
			family = make(litetable.VersionedQualifier)
			row[cell.Family] = family
		}

		value := make([]byte, len(cell.Value))
		copy(value, cell.Value)

		family[cell.Qualifier] = m.trimVersions(append(family[cell.Qualifier],
			litetable.TimestampedValue{
				Value:     value,
				Timestamp: timestamp,
			}))
	}
}

// trimVersions keeps the newest maxVersions values.
func (m *Manager) trimVersions(values []litetable.TimestampedValue) []litetable.TimestampedValue {
	if len(values) <= m.maxVersions {
		return values
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Timestamp < values[j].Timestamp
	})
	kept := make([]litetable.TimestampedValue, m.maxVersions)
	copy(kept, values[len(values)-m.maxVersions:])
	return kept
}
