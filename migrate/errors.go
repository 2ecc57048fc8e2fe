/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the migration engine.
var (
	// ErrIncompleteDefinition is returned when a migration is declared without
	// all four required operations (primary forward/reverse, analytics forward/reverse).
	ErrIncompleteDefinition = errors.New("incomplete migration definition")

	// ErrUnknownBackend is returned when a handle's backend identity is neither
	// primary nor analytics. This indicates a configuration bug and is never retried.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrDuplicateVersion is returned when registering a migration whose version
	// is already present in the registry.
	ErrDuplicateVersion = errors.New("duplicate migration version")
)

// HistoryInconsistencyError is returned when a backend's history table references
// versions that have no corresponding registered migration.
type HistoryInconsistencyError struct {
	Backend  Backend
	Versions []int64
}

// Error implements the error interface.
func (e *HistoryInconsistencyError) Error() string {
	return fmt.Sprintf("history table for %s backend references unknown migration versions %v", e.Backend, e.Versions)
}
