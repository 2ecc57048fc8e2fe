/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/acronis/go-dualmigrate"
)

// Direction defines the direction of applying a migration.
type Direction string

// Migration directions.
const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// NoMigrationsVersion is the sentinel version meaning "no migrations applied".
const NoMigrationsVersion int64 = 0

// SQLExecutor is the minimal query execution capability an Operation needs.
// Both *sql.DB and *sql.Tx satisfy it.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Operation is a single schema-change action for one backend and one direction.
// Implementations must be safe to invoke multiple times against different executors.
type Operation interface {
	Exec(ctx context.Context, ex SQLExecutor) error
}

type sqlOperation struct {
	statements []string
}

// SQL returns an Operation that executes the given SQL statements in order.
// Empty statements are skipped.
func SQL(statements ...string) Operation {
	return &sqlOperation{statements: statements}
}

func (op *sqlOperation) Exec(ctx context.Context, ex SQLExecutor) error {
	for i, stmt := range op.statements {
		if stmt == "" {
			continue
		}
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement %d: %w", i+1, err)
		}
	}
	return nil
}

type funcOperation struct {
	fn func(ctx context.Context, ex SQLExecutor) error
}

// Func returns an Operation backed by a Go function.
func Func(fn func(ctx context.Context, ex SQLExecutor) error) Operation {
	return &funcOperation{fn: fn}
}

func (op *funcOperation) Exec(ctx context.Context, ex SQLExecutor) error {
	return op.fn(ctx, ex)
}

// MigrationUnit is the forward/reverse operation pair for one backend within one Migration.
// It is constructed once at migration-definition time and is immutable thereafter.
type MigrationUnit struct {
	forward Operation
	reverse Operation
}

// NewMigrationUnit creates a new MigrationUnit.
func NewMigrationUnit(forward, reverse Operation) MigrationUnit {
	return MigrationUnit{forward: forward, reverse: reverse}
}

// Forward returns the unit's forward operation.
func (u MigrationUnit) Forward() Operation {
	return u.forward
}

// Reverse returns the unit's reverse operation.
func (u MigrationUnit) Reverse() Operation {
	return u.reverse
}

func (u MigrationUnit) operation(direction Direction) Operation {
	if direction == DirectionReverse {
		return u.reverse
	}
	return u.forward
}

func (u MigrationUnit) complete() bool {
	return u.forward != nil && u.reverse != nil
}

// Migration is a versioned schema-change definition composed of two backend-specific units.
// The version is derived from the migration file's timestamp-like numeric prefix
// (e.g. 20160601192854) and orders migrations for execution.
type Migration struct {
	version         int64
	primary         MigrationUnit
	analytics       MigrationUnit
	useTransactions bool
}

// NewMigration creates a new Migration from its two units.
// It fails with ErrIncompleteDefinition unless all four operations are supplied.
func NewMigration(version int64, primary, analytics MigrationUnit) (*Migration, error) {
	if version <= NoMigrationsVersion {
		return nil, fmt.Errorf("migration version must be positive, got %d", version)
	}
	if !primary.complete() || !analytics.complete() {
		return nil, fmt.Errorf("%w: migration %d requires forward and reverse operations for both backends",
			ErrIncompleteDefinition, version)
	}
	return &Migration{
		version:         version,
		primary:         primary,
		analytics:       analytics,
		useTransactions: true,
	}, nil
}

// Define constructs a Migration from the four operations and registers it
// into the process-wide default registry.
func Define(version int64, primaryForward, primaryReverse, analyticsForward, analyticsReverse Operation) (*Migration, error) {
	m, err := NewMigration(version,
		NewMigrationUnit(primaryForward, primaryReverse),
		NewMigrationUnit(analyticsForward, analyticsReverse))
	if err != nil {
		return nil, err
	}
	if err := DefaultRegistry().Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MustDefine is like Define but panics on error.
// It is intended for migration definitions evaluated at startup.
func MustDefine(version int64, primaryForward, primaryReverse, analyticsForward, analyticsReverse Operation) *Migration {
	m, err := Define(version, primaryForward, primaryReverse, analyticsForward, analyticsReverse)
	if err != nil {
		panic(err)
	}
	return m
}

// Version returns the migration's version.
func (m *Migration) Version() int64 {
	return m.version
}

// TransactionsEnabled reports whether the migration's operations are executed
// within a transaction.
func (m *Migration) TransactionsEnabled() bool {
	return m.useTransactions
}

// DisableTransactions turns off transactional wrapping for the migration.
// Idempotent; has no effect on already-applied migrations. Intended for DDL
// that cannot run inside a transaction (e.g. CREATE INDEX CONCURRENTLY).
func (m *Migration) DisableTransactions() {
	m.useTransactions = false
}

// Apply executes the migration against the handle's backend in the given direction.
// Only the unit matching the handle's backend is invoked; the other backend's unit
// is never touched. When transactions are enabled, the operation runs inside a
// transaction that is rolled back on failure; the operation's own error propagates
// unchanged after the transaction unwinds. Apply does not touch the history table,
// that bookkeeping belongs to the Runner.
func (m *Migration) Apply(ctx context.Context, h *Handle, direction Direction) error {
	unit, err := UnitFor(m, h)
	if err != nil {
		return err
	}
	op := unit.operation(direction)
	if m.useTransactions {
		return dualmigrate.DoInTx(ctx, h.DB(), func(tx *sql.Tx) error {
			return op.Exec(ctx, tx)
		})
	}
	return op.Exec(ctx, h.DB())
}
