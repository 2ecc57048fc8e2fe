/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dualmigrate

import (
	"database/sql"
	"time"
)

// Dialect defines possible values for a database dialect.
type Dialect string

// Database dialects.
const (
	DialectSQLite     Dialect = "sqlite3"
	DialectMySQL      Dialect = "mysql"
	DialectPostgres   Dialect = "postgres"
	DialectPgx        Dialect = "pgx"
	DialectClickHouse Dialect = "clickhouse"
)

// Default values for connection pool parameters.
const (
	DefaultMaxOpenConns    = 16
	DefaultMaxIdleConns    = 8
	DefaultConnMaxLifetime = 10 * time.Minute
)

// Default transaction isolation levels for dialects that support configuring them.
const (
	MySQLDefaultTxLevel    = sql.LevelReadCommitted
	PostgresDefaultTxLevel = sql.LevelReadCommitted
)

// PostgresSSLMode defines possible values for Postgres sslmode connection parameter.
type PostgresSSLMode string

// Postgres SSL modes.
const (
	PostgresSSLModeDisable    PostgresSSLMode = "disable"
	PostgresSSLModeRequire    PostgresSSLMode = "require"
	PostgresSSLModeVerifyCA   PostgresSSLMode = "verify-ca"
	PostgresSSLModeVerifyFull PostgresSSLMode = "verify-full"
)

// PostgresDefaultSSLMode is a default SSL mode for connecting to Postgres.
const PostgresDefaultSSLMode = PostgresSSLModeDisable

// Connection parameters that make the pgx driver aware of Patroni-style read-write replicas.
const (
	PgTargetSessionAttrs = "target_session_attrs"
	PgReadWriteParam     = "read-write"
)
