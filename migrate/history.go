/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"    // mysql query building
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // postgres query building
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // sqlite3 query building

	"github.com/acronis/go-dualmigrate"
)

// History is the applied-migrations record accessor for one backend.
// Rows reflect exactly the set of migrations whose matching unit has been
// successfully executed forward and not yet reverted.
//
// InsertVersion and DeleteVersion take an explicit executor so the runner can
// commit the bookkeeping and the migration's own operation as a single
// transaction.
type History interface {
	// EnsureTable creates the history table if it does not exist yet.
	EnsureTable(ctx context.Context) error

	// TableExists reports whether the named table exists in the backend's database.
	TableExists(ctx context.Context, name string) (bool, error)

	// AppliedVersions returns all recorded versions sorted ascending.
	AppliedVersions(ctx context.Context) ([]int64, error)

	// InsertVersion records a version as applied.
	InsertVersion(ctx context.Context, ex SQLExecutor, version int64) error

	// DeleteVersion removes a version's record.
	DeleteVersion(ctx context.Context, ex SQLExecutor, version int64) error
}

type sqlHistory struct {
	db        *sql.DB
	dialect   dualmigrate.Dialect
	tableName string
	builder   goqu.DialectWrapper
}

func newSQLHistory(h *Handle) *sqlHistory {
	return &sqlHistory{
		db:        h.DB(),
		dialect:   h.Dialect(),
		tableName: h.HistoryTableName(),
		builder:   goqu.Dialect(goquDialectName(h.Dialect())),
	}
}

// goquDialectName maps a database dialect to the goqu dialect used for query building.
// ClickHouse has no dedicated goqu dialect; its SQL for the trivial history queries
// matches goqu's default rendering.
func goquDialectName(dialect dualmigrate.Dialect) string {
	switch dialect {
	case dualmigrate.DialectMySQL:
		return "mysql"
	case dualmigrate.DialectPostgres, dualmigrate.DialectPgx:
		return "postgres"
	case dualmigrate.DialectSQLite:
		return "sqlite3"
	default:
		return "default"
	}
}

func (h *sqlHistory) EnsureTable(ctx context.Context) error {
	createSQL, err := historyTableSQL(h.dialect, h.tableName)
	if err != nil {
		return fmt.Errorf("get history table SQL: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

func (h *sqlHistory) TableExists(ctx context.Context, name string) (bool, error) {
	query, err := tableExistsSQL(h.dialect)
	if err != nil {
		return false, err
	}
	var found string
	if err := h.db.QueryRowContext(ctx, query, name).Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check table %s existence: %w", name, err)
	}
	return true, nil
}

func (h *sqlHistory) AppliedVersions(ctx context.Context) ([]int64, error) {
	query, args, err := h.builder.From(h.tableName).
		Select(goqu.C("version")).
		Order(goqu.C("version").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build applied versions query: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (h *sqlHistory) InsertVersion(ctx context.Context, ex SQLExecutor, version int64) error {
	query, args, err := h.builder.Insert(h.tableName).
		Rows(goqu.Record{"version": version, "applied_at": time.Now().UTC()}).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert version query: %w", err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history record for version %d: %w", version, err)
	}
	return nil
}

func (h *sqlHistory) DeleteVersion(ctx context.Context, ex SQLExecutor, version int64) error {
	query, args, err := h.builder.Delete(h.tableName).
		Where(goqu.C("version").Eq(version)).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete version query: %w", err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete history record for version %d: %w", version, err)
	}
	return nil
}
