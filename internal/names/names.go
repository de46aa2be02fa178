// Package names maps opaque bike ids to human-readable labels
package names

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Unknown is returned for an empty bike id
const Unknown = "unknown"

// Resolve returns m[bikeID], or bikeID itself when there is no label.
// It never returns an empty string.
func Resolve(bikeID string, m map[string]string) string {
	if label, ok := m[bikeID]; ok && label != "" {
		return label
	}
	if bikeID == "" {
		return Unknown
	}
	return bikeID
}

// Table is a bike name table loaded once from a flat JSON object.
// It is safe to resolve against a Table before (or without) loading it.
type Table struct {
	names  map[string]string
	mu     sync.RWMutex
	loaded bool
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{names: make(map[string]string)}
}

// FromMap creates a table over a copy of m
func FromMap(m map[string]string) *Table {
	t := NewTable()
	for id, label := range m {
		t.names[id] = label
	}
	t.loaded = true
	return t
}

// Load reads a bike_id -> label JSON object from filepath
func (t *Table) Load(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("reading bike names file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing bike names JSON: %w", err)
	}
	if raw == nil {
		raw = make(map[string]string)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.names = raw
	t.loaded = true
	return nil
}

// Resolve returns the label for bikeID, falling back to the id
func (t *Table) Resolve(bikeID string) string {
	if t == nil {
		return Resolve(bikeID, nil)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Resolve(bikeID, t.names)
}

// Count returns the number of labels
func (t *Table) Count() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// IsLoaded returns true if a file has been loaded
func (t *Table) IsLoaded() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}
