/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"database/sql"
	"fmt"

	"github.com/acronis/go-dualmigrate"
)

// Backend identifies one of the two database targets a migration can be applied to.
// The identity is fixed at handle construction time and is used only for routing,
// it is never persisted.
type Backend string

// Migration backends.
const (
	BackendPrimary   Backend = "primary"
	BackendAnalytics Backend = "analytics"
)

// IsValid reports whether b is one of the two known backends.
func (b Backend) IsValid() bool {
	return b == BackendPrimary || b == BackendAnalytics
}

// DefaultHistoryTableName is the default name for the applied-migrations tracking table.
const DefaultHistoryTableName = "schema_migrations"

// Handle couples an open database connection with its backend identity and dialect.
// All migration operations for a backend go through its Handle.
type Handle struct {
	db           *sql.DB
	backend      Backend
	dialect      dualmigrate.Dialect
	historyTable string
}

// HandleOption is a functional option for Handle configuration.
type HandleOption func(*Handle)

// WithHistoryTableName sets a custom name for the backend's history table.
func WithHistoryTableName(name string) HandleOption {
	return func(h *Handle) {
		if name != "" {
			h.historyTable = name
		}
	}
}

// NewHandle creates a new Handle for the given connection and backend identity.
func NewHandle(db *sql.DB, backend Backend, dialect dualmigrate.Dialect, options ...HandleOption) (*Handle, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if !backend.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	h := &Handle{
		db:           db,
		backend:      backend,
		dialect:      dialect,
		historyTable: DefaultHistoryTableName,
	}
	for _, opt := range options {
		opt(h)
	}
	return h, nil
}

// DB returns the underlying database connection.
func (h *Handle) DB() *sql.DB {
	return h.db
}

// Backend returns the handle's backend identity.
func (h *Handle) Backend() Backend {
	return h.backend
}

// Dialect returns the handle's database dialect.
func (h *Handle) Dialect() dualmigrate.Dialect {
	return h.dialect
}

// HistoryTableName returns the name of the backend's history table.
func (h *Handle) HistoryTableName() string {
	return h.historyTable
}

// History returns the applied-migrations history accessor for the handle.
func (h *Handle) History() History {
	return newSQLHistory(h)
}
