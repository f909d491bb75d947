package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/natefinch/atomic"
	"os"
	"strings"
)

// UpdateFamilies registers new column families and persists the full list.
func (m *Manager) UpdateFamilies(families []string) error {
	m.familyMutex.Lock()
	defer m.familyMutex.Unlock()

	newFamilies := make([]string, len(m.allowedFamilies))
	copy(newFamilies, m.allowedFamilies)

	for _, family := range families {
		family = strings.TrimSpace(family)
		if family == "" {
			continue
		}

		exists := false
		for _, existing := range newFamilies {
			if existing == family {
				exists = true
				break
			}
		}

		if !exists {
			newFamilies = append(newFamilies, family)
		}
	}

	data, err := json.Marshal(newFamilies)
	if err != nil {
		return fmt.Errorf("failed to marshal allowed families: %w", err)
	}
	if err = atomic.WriteFile(m.familiesFile, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save allowed families: %w", err)
	}

	m.allowedFamilies = newFamilies
	return nil
}

func (m *Manager) loadAllowedFamilies() error {
	data, err := os.ReadFile(m.familiesFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, not an error
			return nil
		}
		return fmt.Errorf("failed to read allowed families file: %w", err)
	}

	m.familyMutex.Lock()
	defer m.familyMutex.Unlock()
	return json.Unmarshal(data, &m.allowedFamilies)
}

// GetFamilies returns a copy of the allowed families.
func (m *Manager) GetFamilies() []string {
	m.familyMutex.RLock()
	defer m.familyMutex.RUnlock()

	families := make([]string, len(m.allowedFamilies))
	copy(families, m.allowedFamilies)
	return families
}

func (m *Manager) IsFamilyAllowed(family string) bool {
	m.familyMutex.RLock()
	defer m.familyMutex.RUnlock()

	for _, f := range m.allowedFamilies {
		if f == family {
			return true
		}
	}
	return false
}
