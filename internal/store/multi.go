package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/constants"
)

// MultiModelStore combines a local project catalog (./.mina/) and a global
// user catalog (~/.mina/). Lookups with ScopeBoth try local first, so a
// project model shadows a global one of the same name.
// Thread-safe through delegation to thread-safe underlying stores.
type MultiModelStore struct {
	local  ModelStore
	global ModelStore
	scope  constants.Scope
}

var _ ModelStore = (*MultiModelStore)(nil)

// NewMultiModelStore opens SQLite catalogs in localDir and globalDir.
// scope selects which catalog Save, Load, List and Delete use.
func NewMultiModelStore(localDir, globalDir string, scope constants.Scope) (*MultiModelStore, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q (valid: local, global, both)", scope)
	}

	local, err := NewSQLiteModelStore(localDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local catalog: %w", err)
	}

	global, err := NewSQLiteModelStore(globalDir)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("failed to open global catalog: %w", err)
	}

	return Combine(local, global, scope), nil
}

// Combine wraps existing stores.
func Combine(local, global ModelStore, scope constants.Scope) *MultiModelStore {
	return &MultiModelStore{local: local, global: global, scope: scope}
}

// Scope returns the configured scope.
func (m *MultiModelStore) Scope() constants.Scope {
	return m.scope
}

type scoped struct {
	scope constants.Scope
	store ModelStore
}

// stores returns the catalogs for the configured scope, in lookup order.
func (m *MultiModelStore) stores() []scoped {
	switch m.scope {
	case constants.ScopeLocal:
		return []scoped{{constants.ScopeLocal, m.local}}
	case constants.ScopeGlobal:
		return []scoped{{constants.ScopeGlobal, m.global}}
	default:
		return []scoped{{constants.ScopeLocal, m.local}, {constants.ScopeGlobal, m.global}}
	}
}

// Save writes to the configured scope. ScopeBoth is rejected.
func (m *MultiModelStore) Save(ctx context.Context, name, source string, model *cascade.Model) error {
	if !m.scope.Writable() {
		return fmt.Errorf("cannot save to scope %q: choose local or global", m.scope)
	}
	return m.stores()[0].store.Save(ctx, name, source, model)
}

// Load returns the first match in lookup order, with Scope set.
func (m *MultiModelStore) Load(ctx context.Context, name string) (*Entry, error) {
	for _, s := range m.stores() {
		e, err := s.store.Load(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.Scope = s.scope
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// List merges the catalogs in scope. With ScopeBoth, a name present in both
// appears once per scope.
func (m *MultiModelStore) List(ctx context.Context) ([]Entry, error) {
	var all []Entry
	for _, s := range m.stores() {
		entries, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s models: %w", s.scope, err)
		}
		for _, e := range entries {
			e.Scope = s.scope
			all = append(all, e)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Delete removes name from the first catalog in lookup order that has it.
func (m *MultiModelStore) Delete(ctx context.Context, name string) error {
	for _, s := range m.stores() {
		err := s.store.Delete(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Close closes both stores.
func (m *MultiModelStore) Close() error {
	return errors.Join(m.local.Close(), m.global.Close())
}
