package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/sanitize"
)

// MemoryModelStore is an in-memory ModelStore for tests and for MCP
// sessions without a catalog on disk.
type MemoryModelStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ ModelStore = (*MemoryModelStore)(nil)

// NewMemoryModelStore creates an empty store.
func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{entries: make(map[string]Entry)}
}

// Save implements ModelStore.
func (s *MemoryModelStore) Save(ctx context.Context, name, source string, m *cascade.Model) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("cannot save nil model %q", name)
	}
	source = sanitize.Label(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	created := now
	if old, ok := s.entries[name]; ok {
		created = old.CreatedAt
	}
	s.entries[name] = newEntry(name, source, m, created, now)
	return nil
}

// Load implements ModelStore.
func (s *MemoryModelStore) Load(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &e, nil
}

// List implements ModelStore.
func (s *MemoryModelStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Model = nil
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete implements ModelStore.
func (s *MemoryModelStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.entries, name)
	return nil
}

// Close is a no-op.
func (s *MemoryModelStore) Close() error {
	return nil
}
