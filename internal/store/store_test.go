package store

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/litetable/litetable-extract/internal/cdc_emitter"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/litetable/litetable-extract/internal/wal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"testing"
)

func newTestManager(t *testing.T, w writeAhead, c cdc) *Manager {
	t.Helper()
	m, err := New(&Config{
		Table:      "phonebook",
		RootDir:    t.TempDir(),
		ShardCount: 4,
		Families:   []string{"info", "derived"},
		WAL:        w,
		CDC:        c,
	})
	require.NoError(t, err)
	return m
}

func newWAL(t *testing.T, dir string) *wal.Manager {
	t.Helper()
	w, err := wal.New(&wal.Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestNew(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	tests := map[string]struct {
		cfg   *Config
		error string
	}{
		"invalid config": {
			cfg:   &Config{ShardCount: 300},
			error: "table name is required\ndata directory is required\nWAL is required\nshard count must be between 1 and 256",
		},
		"valid config": {
			cfg: &Config{
				Table:   "phonebook",
				RootDir: t.TempDir(),
				WAL:     NewMockwriteAhead(ctrl),
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := New(tc.cfg)
			if tc.error != "" {
				require.Error(t, err)
				require.Nil(t, got)
				require.Equal(t, tc.error, err.Error())
				return
			}
			require.NoError(t, err)
			require.Equal(t, defaultShardCount, got.shardCount)
			require.Equal(t, defaultMaxVersions, got.maxVersions)
			require.Equal(t, "phonebook", got.Table())
			require.Equal(t, "Table Store (phonebook)", got.Name())
		})
	}
}

func TestGetShardIndex(t *testing.T) {
	tests := map[string]struct {
		shardCount int
		rowKeys    []string
	}{
		"single shard returns zero index": {
			shardCount: 1,
			rowKeys:    []string{"John Doe", "Jane Roe", "Richard Roe"},
		},
		"multiple shards distribute keys": {
			shardCount: 8,
			rowKeys:    []string{"John Doe", "Jane Roe", "keyA", "keyB", "keyC", "o"},
		},
		"large number of shards": {
			shardCount: 64,
			rowKeys:    []string{"user:1", "user:2", "post:10", "post:11", "comment:5"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m := &Manager{shardCount: tc.shardCount}

			for _, key := range tc.rowKeys {
				idx := m.getShardIndex(key)
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, tc.shardCount)

				// getShardIndex is deterministic
				for i := 0; i < 100; i++ {
					require.Equal(t, idx, m.getShardIndex(key))
				}
			}
		})
	}
}

func Test_isFamilyAllowed(t *testing.T) {
	tests := map[string]struct {
		allowed  []string
		family   string
		expected bool
	}{
		"no allowed families": {
			allowed: []string{},
			family:  "info",
		},
		"allowed family": {
			allowed:  []string{"info", "derived"},
			family:   "derived",
			expected: true,
		},
		"not allowed family": {
			allowed: []string{"info", "derived"},
			family:  "contacts",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m := &Manager{
				allowedFamilies: tc.allowed,
			}
			assert.Equal(t, tc.expected, m.IsFamilyAllowed(tc.family))
		})
	}
}

func TestManager_UpdateFamiliesPersists(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()

	m, err := New(&Config{
		Table:    "phonebook",
		RootDir:  dir,
		Families: []string{"info", " derived ", ""},
		WAL:      NewMockwriteAhead(ctrl),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"info", "derived"}, m.GetFamilies())

	require.NoError(t, m.UpdateFamilies([]string{"derived", "contacts"}))

	reopened, err := New(&Config{
		Table:   "phonebook",
		RootDir: dir,
		WAL:     NewMockwriteAhead(ctrl),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"info", "derived", "contacts"}, reopened.GetFamilies())
}

func TestManager_ApplyAndFetch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	mockWAL := NewMockwriteAhead(ctrl)
	mockCDC := NewMockcdc(ctrl)
	m := newTestManager(t, mockWAL, mockCDC)

	cells := []litetable.Cell{
		{Family: "derived", Qualifier: "city", Value: []byte("Springfield")},
		{Family: "derived", Qualifier: "state", Value: []byte("IL")},
	}

	mockWAL.EXPECT().Apply(gomock.Any()).DoAndReturn(func(e *wal.Entry) error {
		require.Equal(t, litetable.OperationWrite, e.Operation)
		require.Equal(t, "John Doe", e.RowKey)
		require.Equal(t, cells, e.Cells)
		return nil
	})

	var emitted []*cdc_emitter.CDCParams
	mockCDC.EXPECT().Emit(gomock.Any()).Do(func(p *cdc_emitter.CDCParams) {
		emitted = append(emitted, p)
	}).Times(2)

	require.NoError(t, m.Commit(ctx, "John Doe", cells))

	got, found, err := m.Fetch(ctx, "John Doe", "derived", "city")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Springfield", string(got))

	_, found, err = m.Fetch(ctx, "John Doe", "derived", "zip")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = m.Fetch(ctx, "Jane Roe", "derived", "city")
	require.NoError(t, err)
	require.False(t, found)

	require.Len(t, emitted, 2)
	require.Equal(t, emitted[0].Column.Timestamp, emitted[1].Column.Timestamp,
		"cells of one commit share a timestamp")
	require.Equal(t, "state", emitted[1].Qualifier)
}

func TestManager_ApplyRejectsWholeCommit(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	tests := map[string]struct {
		rowKey string
		cells  []litetable.Cell
		walErr error
	}{
		"unknown family": {
			rowKey: "John Doe",
			cells: []litetable.Cell{
				{Family: "derived", Qualifier: "city", Value: []byte("Springfield")},
				{Family: "contacts", Qualifier: "city", Value: []byte("Springfield")},
			},
		},
		"missing qualifier": {
			rowKey: "John Doe",
			cells: []litetable.Cell{
				{Family: "derived", Qualifier: "city", Value: []byte("Springfield")},
				{Family: "derived", Value: []byte("IL")},
			},
		},
		"missing row key": {
			cells: []litetable.Cell{{Family: "derived", Qualifier: "city"}},
		},
		"no cells": {
			rowKey: "John Doe",
		},
		"wal failure": {
			rowKey: "John Doe",
			cells: []litetable.Cell{
				{Family: "derived", Qualifier: "city", Value: []byte("Springfield")},
			},
			walErr: assert.AnError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mockWAL := NewMockwriteAhead(ctrl)
			m := newTestManager(t, mockWAL, nil)

			if tc.walErr != nil {
				mockWAL.EXPECT().Apply(gomock.Any()).Return(tc.walErr)
			}

			err := m.Commit(ctx, tc.rowKey, tc.cells)
			require.Error(t, err)
			if tc.walErr != nil {
				require.ErrorIs(t, err, tc.walErr)
			}

			_, exists := m.GetRow(tc.rowKey)
			require.False(t, exists, "no cell of a rejected commit may be visible")
		})
	}
}

func TestManager_CommitCanceled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	m := newTestManager(t, NewMockwriteAhead(ctrl), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Commit(ctx, "John Doe", []litetable.Cell{{Family: "derived", Qualifier: "zip"}})
	require.ErrorIs(t, err, context.Canceled)

	_, _, err = m.Fetch(ctx, "John Doe", "derived", "zip")
	require.ErrorIs(t, err, context.Canceled)
}

func TestManager_MaxVersions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	m, err := New(&Config{
		Table:       "phonebook",
		RootDir:     dir,
		MaxVersions: 2,
		Families:    []string{"derived"},
		WAL:         newWAL(t, dir),
	})
	require.NoError(t, err)

	for _, v := range []string{"one", "two", "three"} {
		require.NoError(t, m.Apply("John Doe", []litetable.Cell{
			{Family: "derived", Qualifier: "city", Value: []byte(v)},
		}))
	}

	row, exists := m.GetRow("John Doe")
	require.True(t, exists)
	versions := row.Columns["derived"]["city"]
	require.Len(t, versions, 2)
	require.Equal(t, "two", string(versions[0].Value))
	require.Equal(t, "three", string(versions[1].Value))
	require.Less(t, versions[0].Timestamp, versions[1].Timestamp)

	got, found, err := m.Fetch(ctx, "John Doe", "derived", "city")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "three", string(got))
}

func TestManager_Splits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	m, err := New(&Config{
		Table:      "phonebook",
		RootDir:    dir,
		ShardCount: 8,
		Families:   []string{"info"},
		WAL:        newWAL(t, dir),
	})
	require.NoError(t, err)

	want := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key := uuid.NewString()
		want[key] = true
		require.NoError(t, m.Apply(key, []litetable.Cell{
			{Family: "info", Qualifier: "name", Value: []byte(fmt.Sprintf("person %d", i))},
		}))
	}

	splits, err := m.Splits(ctx)
	require.NoError(t, err)
	require.Len(t, splits, 8)

	seen := make(map[string]bool)
	for i, split := range splits {
		require.IsIncreasing(t, split)
		for _, key := range split {
			require.False(t, seen[key], "key %s appears in more than one split", key)
			seen[key] = true
			require.Equal(t, i, m.getShardIndex(key))
		}
	}
	require.Equal(t, want, seen)
}

func TestManager_SnapshotAndReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	open := func(w *wal.Manager) *Manager {
		m, err := New(&Config{
			Table:            "phonebook",
			RootDir:          dir,
			MaxSnapshotLimit: 1,
			Families:         []string{"info", "derived"},
			WAL:              w,
		})
		require.NoError(t, err)
		require.NoError(t, m.Start())
		return m
	}

	w := newWAL(t, dir)
	first := open(w)
	require.NoError(t, first.Apply("John Doe", []litetable.Cell{
		{Family: "derived", Qualifier: "city", Value: []byte("Springfield")},
	}))
	require.NoError(t, first.Stop())

	// committed after the snapshot: only the WAL has it
	require.NoError(t, first.Apply("Jane Roe", []litetable.Cell{
		{Family: "info", Qualifier: "email", Value: []byte("jane@example.com")},
	}))

	second := open(w)
	got, found, err := second.Fetch(ctx, "John Doe", "derived", "city")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Springfield", string(got))

	got, found, err = second.Fetch(ctx, "Jane Roe", "info", "email")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "jane@example.com", string(got))

	// a second snapshot prunes the first one
	require.NoError(t, second.Stop())
	require.NoError(t, second.Stop())
}
