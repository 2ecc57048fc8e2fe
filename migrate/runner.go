/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/google/uuid"

	"github.com/acronis/go-dualmigrate"
)

// Runner executes the registered migrations against the two backends and keeps
// each backend's history table consistent with what was actually executed.
//
// Execution is strictly sequential: migrations for one backend run in ascending
// version order, one at a time, and the two backend passes of RunBoth never
// interleave. A failing operation aborts the run for that backend and leaves the
// history table exactly as of the last successfully committed version. The runner
// performs no retries; retries are a caller concern.
type Runner struct {
	registry  *Registry
	primary   *Handle
	analytics *Handle
	logger    log.FieldLogger
	metrics   *MetricsCollector
}

// RunnerOption is a functional option for Runner configuration.
type RunnerOption func(*Runner)

// WithMetricsCollector makes the runner report migration metrics to the collector.
func WithMetricsCollector(mc *MetricsCollector) RunnerOption {
	return func(r *Runner) {
		r.metrics = mc
	}
}

// NewRunner creates a new Runner over the given registry and backend handles.
func NewRunner(registry *Registry, primary, analytics *Handle, logger log.FieldLogger, options ...RunnerOption) (*Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if primary == nil || primary.Backend() != BackendPrimary {
		return nil, fmt.Errorf("%w: primary handle is required", ErrUnknownBackend)
	}
	if analytics == nil || analytics.Backend() != BackendAnalytics {
		return nil, fmt.Errorf("%w: analytics handle is required", ErrUnknownBackend)
	}

	r := &Runner{
		registry:  registry,
		primary:   primary,
		analytics: analytics,
		logger:    logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// RunBoth executes the full forward migration sequence for both backends,
// primary first, then analytics. The passes are independent: a failure on the
// primary backend does not prevent the analytics pass from being attempted,
// and both results are reported via the joined error.
func (r *Runner) RunBoth(ctx context.Context) error {
	var errs []error
	for _, backend := range []Backend{BackendPrimary, BackendAnalytics} {
		if err := r.Run(ctx, backend); err != nil {
			r.logger.Error(fmt.Sprintf("Migration run failed for %s backend: %v", backend, err))
			errs = append(errs, fmt.Errorf("%s backend: %w", backend, err))
		}
	}
	return errors.Join(errs...)
}

// Run executes all pending migrations for one backend in ascending version order.
// Versions already present in the backend's history table are skipped.
func (r *Runner) Run(ctx context.Context, backend Backend) error {
	h, err := r.handle(backend)
	if err != nil {
		return err
	}

	hist := h.History()
	if err := hist.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure history table: %w", err)
	}

	applied, err := appliedSet(ctx, hist)
	if err != nil {
		return err
	}
	r.reportOrphanVersions(backend, applied)

	pending := 0
	for _, m := range r.registry.All() {
		if !applied[m.Version()] {
			pending++
		}
	}

	runID := uuid.NewString()
	r.logger.Info(fmt.Sprintf("Applying %d migration(s) to %s backend (run %s)", pending, backend, runID))

	count := 0
	for _, m := range r.registry.All() {
		if applied[m.Version()] {
			continue
		}
		if err := r.execute(ctx, m, h, hist, DirectionForward); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.Version(), err)
		}
		count++
		r.logger.Info(fmt.Sprintf("Applied migration %d to %s backend", m.Version(), backend))
	}

	r.logger.Info(fmt.Sprintf("Applied %d migration(s) to %s backend (run %s)", count, backend, runID))
	return nil
}

// SeedHistory records every registered migration version that is not yet present
// in the backend's history table WITHOUT executing the migration's operations.
// It adopts migrations retroactively, e.g. when bootstrapping a backend from a
// snapshot that already reflects the schema. Idempotent: re-running inserts
// nothing for versions already present. Returns the number of inserted rows.
func (r *Runner) SeedHistory(ctx context.Context, backend Backend) (int, error) {
	h, err := r.handle(backend)
	if err != nil {
		return 0, err
	}

	hist := h.History()
	if err := hist.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("ensure history table: %w", err)
	}

	applied, err := appliedSet(ctx, hist)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range r.registry.All() {
		if applied[m.Version()] {
			continue
		}
		if err := hist.InsertVersion(ctx, h.DB(), m.Version()); err != nil {
			return count, err
		}
		count++
	}

	r.logger.Info(fmt.Sprintf("Seeded %d history record(s) for %s backend", count, backend))
	return count, nil
}

// Rollback reverts the backend to the version immediately preceding the latest
// applied one. The target is computed from the history table only: it is the
// next-latest applied version strictly below the latest, or NoMigrationsVersion
// when the latest is the only one applied. Every applied version greater than
// the target is reverted in descending order, its history record removed as the
// reverse operation succeeds. Versions present on disk but not marked applied
// are not touched. Rolling back an empty history is a no-op.
func (r *Runner) Rollback(ctx context.Context, backend Backend) error {
	h, err := r.handle(backend)
	if err != nil {
		return err
	}

	hist := h.History()
	if err := hist.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure history table: %w", err)
	}

	applied, err := hist.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		r.logger.Info(fmt.Sprintf("No applied migrations to roll back for %s backend", backend))
		return nil
	}

	target := NoMigrationsVersion
	if len(applied) > 1 {
		target = applied[len(applied)-2]
	}

	for i := len(applied) - 1; i >= 0 && applied[i] > target; i-- {
		version := applied[i]
		m, ok := r.registry.Find(version)
		if !ok {
			return &HistoryInconsistencyError{Backend: backend, Versions: []int64{version}}
		}
		if err := r.execute(ctx, m, h, hist, DirectionReverse); err != nil {
			return fmt.Errorf("revert migration %d: %w", version, err)
		}
		r.logger.Info(fmt.Sprintf("Reverted migration %d on %s backend", version, backend))
	}

	r.logger.Info(fmt.Sprintf("Rolled back %s backend to version %d", backend, target))
	return nil
}

// execute runs one migration's matching unit in the given direction and updates
// the history record. When transactions are enabled, the operation and the
// bookkeeping commit as a single atomic unit: a failed forward execution leaves
// no history record and a failed reverse execution removes none. When disabled,
// the user has accepted that a failure may leave the backend partially migrated.
func (r *Runner) execute(ctx context.Context, m *Migration, h *Handle, hist History, direction Direction) error {
	unit, err := UnitFor(m, h)
	if err != nil {
		return err
	}
	op := unit.operation(direction)

	start := time.Now()
	if m.TransactionsEnabled() {
		err = dualmigrate.DoInTx(ctx, h.DB(), func(tx *sql.Tx) error {
			if opErr := op.Exec(ctx, tx); opErr != nil {
				return opErr
			}
			return r.recordHistory(ctx, hist, tx, m.Version(), direction)
		})
	} else {
		if err = op.Exec(ctx, h.DB()); err == nil {
			err = r.recordHistory(ctx, hist, h.DB(), m.Version(), direction)
		}
	}

	if r.metrics != nil {
		r.metrics.observeMigration(h.Backend(), direction, time.Since(start), err)
	}
	return err
}

func (r *Runner) recordHistory(ctx context.Context, hist History, ex SQLExecutor, version int64, direction Direction) error {
	if direction == DirectionReverse {
		return hist.DeleteVersion(ctx, ex, version)
	}
	return hist.InsertVersion(ctx, ex, version)
}

// reportOrphanVersions surfaces history records that reference versions with no
// corresponding registered migration. They are a diagnostic, not a fatal error,
// for forward runs; rollback fails on them because it cannot revert what it
// does not know.
func (r *Runner) reportOrphanVersions(backend Backend, applied map[int64]bool) {
	var orphans []int64
	for version := range applied {
		if _, ok := r.registry.Find(version); !ok {
			orphans = append(orphans, version)
		}
	}
	if len(orphans) != 0 {
		sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
		inconsistency := &HistoryInconsistencyError{Backend: backend, Versions: orphans}
		r.logger.Warn(inconsistency.Error())
	}
}

func (r *Runner) handle(backend Backend) (*Handle, error) {
	switch backend {
	case BackendPrimary:
		return r.primary, nil
	case BackendAnalytics:
		return r.analytics, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

func appliedSet(ctx context.Context, hist History) (map[int64]bool, error) {
	versions, err := hist.AppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get applied versions: %w", err)
	}
	applied := make(map[int64]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
