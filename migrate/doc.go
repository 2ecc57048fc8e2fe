/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package migrate implements a dual-backend schema migration engine.
//
// A single authored migration decomposes into two independently-applicable
// units, one for the primary transactional store and one for the analytical
// warehouse, because analytical warehouses often lack transactional DDL,
// certain constraint types, or certain column types. The engine orchestrates
// which user-supplied operation runs, in what order, against which backend
// handle, and records that fact in a per-backend history table. It does not
// generate SQL and does not manage connection pooling.
//
// Key properties:
//   - Backend routing never cross-applies: applying a migration to the primary
//     handle invokes only its primary unit, and vice versa.
//   - History tables reflect exactly what was executed: the operation and its
//     history record commit as one transaction (unless transactions are
//     disabled for a migration).
//   - Rollback reverts exactly one step, targeting the version immediately
//     preceding the latest applied one, computed from the history table only.
//
// Basic usage:
//
//	//go:embed migrations/*.sql
//	var migrationFS embed.FS
//
//	func applyMigrations(primaryDB, analyticsDB *sql.DB, logger log.FieldLogger) error {
//	    primary, err := migrate.NewHandle(primaryDB, migrate.BackendPrimary, dualmigrate.DialectPostgres)
//	    if err != nil {
//	        return err
//	    }
//	    analytics, err := migrate.NewHandle(analyticsDB, migrate.BackendAnalytics, dualmigrate.DialectClickHouse)
//	    if err != nil {
//	        return err
//	    }
//
//	    registry := migrate.NewRegistry()
//	    if _, err := migrate.RegisterFSMigrations(registry, migrationFS, "migrations"); err != nil {
//	        return err
//	    }
//
//	    runner, err := migrate.NewRunner(registry, primary, analytics, logger)
//	    if err != nil {
//	        return err
//	    }
//	    return runner.RunBoth(context.Background())
//	}
package migrate
