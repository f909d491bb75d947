package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultWalDirectory = "wal"
	defaultWALFile      = "wal.log"
)

// Entry represents a Write-Ahead Log entry for a committed row mutation.
type Entry struct {
	Operation litetable.Operation `json:"operation"`
	RowKey    string              `json:"key"`
	Cells     []litetable.Cell    `json:"cells"`
	Timestamp int64               `json:"timestamp"`
}

type Manager struct {
	mu      sync.Mutex
	walFile *os.File
	path    string
	sync    bool
}

type Config struct {
	// Path where the WAL directory will be saved
	Path string
	// Sync forces an fsync after every entry.
	Sync bool
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Path == "" {
		errGrp = append(errGrp, errors.New("WAL path cannot be empty"))
	}
	return errors.Join(errGrp...)
}

func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	walPath := filepath.Join(cfg.Path, defaultWalDirectory, defaultWALFile)
	walDir := filepath.Dir(walPath)
	if err := os.MkdirAll(walDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	// Open WAL file with appropriate permissions
	file, err := os.OpenFile(walPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	return &Manager{
		walFile: file,
		path:    walPath,
		sync:    cfg.Sync,
	}, nil
}

// Apply appends the entry to the WAL file as a single JSON line.
//
// A row commit is only applied to memory after its entry is in the log, so a crash between
// snapshots can be recovered by replaying the log with Load.
func (m *Manager) Apply(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.walFile == nil {
		return errors.New("WAL is closed")
	}

	jsonData, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err = m.walFile.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write to WAL: %w", err)
	}

	if m.sync {
		if err = m.walFile.Sync(); err != nil {
			return fmt.Errorf("failed to sync WAL: %w", err)
		}
	}

	return nil
}

// Truncate empties the log. It is called once a snapshot covers every logged entry.
func (m *Manager) Truncate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.walFile == nil {
		return errors.New("WAL is closed")
	}
	if err := m.walFile.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate WAL: %w", err)
	}
	return nil
}

// Close closes the underlying file. Further calls to Apply fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.walFile == nil {
		return nil
	}
	err := m.walFile.Close()
	m.walFile = nil
	return err
}

// FilePath returns the location of the WAL file
func (m *Manager) FilePath() string {
	return m.path
}
