/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package testing provides helpers for integration tests that need a real database.
package testing

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDBName     = "dualmigrate_test"
	testDBUser     = "dualmigrate"
	testDBPassword = "dualmigrate"

	postgresImage = "postgres:16-alpine"
)

// MustRunAndOpenTestDB starts a disposable database container for the passed
// dialect ("postgres" or "pgx"), opens a connection to it, and returns the
// connection together with a stop function that terminates the container.
// It panics on any setup error; intended for tests only.
func MustRunAndOpenTestDB(ctx context.Context, dialect string) (*sql.DB, func(ctx context.Context) error) {
	switch dialect {
	case "postgres", "pgx":
	default:
		panic(fmt.Sprintf("unsupported test db dialect %q", dialect))
	}

	container, err := pgcontainer.Run(ctx, postgresImage,
		pgcontainer.WithDatabase(testDBName),
		pgcontainer.WithUsername(testDBUser),
		pgcontainer.WithPassword(testDBPassword),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		panic(fmt.Sprintf("run postgres container: %v", err))
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic(fmt.Sprintf("get connection string: %v", err))
	}

	dbConn, err := sql.Open(dialect, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		panic(fmt.Sprintf("open test db: %v", err))
	}

	stop := func(ctx context.Context) error {
		_ = dbConn.Close()
		return container.Terminate(ctx)
	}
	return dbConn, stop
}
