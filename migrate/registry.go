/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an ordered collection of migrations keyed by version.
// Insertion order is preserved for diagnostic listing; execution order
// is always ascending version order regardless of how migrations were discovered.
type Registry struct {
	mu         sync.Mutex
	migrations []*Migration
	byVersion  map[int64]*Migration
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{byVersion: make(map[int64]*Migration)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that Define populates.
// Migration definitions are expected to be evaluated once, at startup,
// from a single goroutine.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a migration to the registry.
// It fails with ErrDuplicateVersion if a migration with the same version
// is already registered.
func (r *Registry) Register(m *Migration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byVersion[m.Version()]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateVersion, m.Version())
	}
	r.byVersion[m.Version()] = m
	r.migrations = append(r.migrations, m)
	return nil
}

// All returns the registered migrations sorted by ascending version.
func (r *Registry) All() []*Migration {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := make([]*Migration, len(r.migrations))
	copy(sorted, r.migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version() < sorted[j].Version()
	})
	return sorted
}

// List returns the registered migrations in insertion order.
func (r *Registry) List() []*Migration {
	r.mu.Lock()
	defer r.mu.Unlock()
	listed := make([]*Migration, len(r.migrations))
	copy(listed, r.migrations)
	return listed
}

// Find returns the migration with the given version, if registered.
func (r *Registry) Find(version int64) (*Migration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byVersion[version]
	return m, ok
}

// Len returns the number of registered migrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.migrations)
}

// Reset clears all registered migrations.
// It isolates independent execution contexts (e.g. test runs) from one another.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.migrations = nil
	r.byVersion = make(map[int64]*Migration)
}
