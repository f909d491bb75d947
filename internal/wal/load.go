package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
)

// Load replays every entry of the WAL file, oldest first. Malformed lines (a torn final write)
// are skipped.
func (m *Manager) Load(apply func(e *Entry) error) error {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No WAL file exists yet, not an error
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	replayed := 0
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			log.Warn().Err(err).Str("wal", m.path).Msg("skipping malformed WAL entry")
			continue
		}

		if err := apply(&entry); err != nil {
			return fmt.Errorf("failed to replay WAL entry for row %s: %w", entry.RowKey, err)
		}
		replayed++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read WAL: %w", err)
	}

	log.Debug().Int("entries", replayed).Msg("WAL replayed")
	return nil
}
