/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"fmt"

	"github.com/acronis/go-dualmigrate"
)

// historyTableSQL returns the dialect-specific DDL for creating the history table.
func historyTableSQL(dialect dualmigrate.Dialect, tableName string) (string, error) {
	switch dialect {
	case dualmigrate.DialectMySQL:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			version BIGINT NOT NULL PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)`, tableName), nil

	case dualmigrate.DialectPostgres, dualmigrate.DialectPgx:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			version BIGINT NOT NULL PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)`, tableName), nil

	case dualmigrate.DialectSQLite:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			version INTEGER NOT NULL PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)`, tableName), nil

	case dualmigrate.DialectClickHouse:
		// ClickHouse has no transactional DDL and no unique constraints;
		// version uniqueness is guaranteed by the runner's skip-applied check.
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			version Int64,
			applied_at DateTime
		) ENGINE = MergeTree() ORDER BY version`, tableName), nil

	default:
		return "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// tableExistsSQL returns the dialect-specific query checking for a table's existence.
// The query takes the table name as its single argument and returns at most one row.
func tableExistsSQL(dialect dualmigrate.Dialect) (string, error) {
	switch dialect {
	case dualmigrate.DialectMySQL:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", nil
	case dualmigrate.DialectPostgres, dualmigrate.DialectPgx:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1", nil
	case dualmigrate.DialectSQLite:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", nil
	case dualmigrate.DialectClickHouse:
		return "SELECT name FROM system.tables WHERE database = currentDatabase() AND name = ?", nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
