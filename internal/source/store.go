// SPDX-License-Identifier: MIT

package source

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Store holds the most recently loaded configuration value for one
// plugin instance. Reloads replace the value wholesale, so snapshots
// handed out earlier never observe a partial update.
type Store struct {
	mu    sync.RWMutex
	value any
}

// NewStore creates a store holding an empty object.
func NewStore() *Store {
	return &Store{value: map[string]any{}}
}

// Replace swaps in a freshly loaded value.
func (s *Store) Replace(value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

// Snapshot returns the currently held value. Callers must treat it as
// read-only; the store never mutates a value after Replace.
func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// MarshalPretty renders value as two-space indented JSON, the format
// written to the emitted configuration asset.
func MarshalPretty(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
