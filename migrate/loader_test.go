/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate_test

import (
	"context"
	"embed"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-dualmigrate/migrate"
)

//go:embed testdata/*.sql
var testdataFS embed.FS

func TestLoadFSMigrations(t *testing.T) {
	migrations, err := migrate.LoadFSMigrations(testdataFS, "testdata")
	require.NoError(t, err, "Failed to load migrations")

	require.Len(t, migrations, 2, "Expected 2 migrations")
	assert.Equal(t, int64(1), migrations[0].Version())
	assert.Equal(t, int64(2), migrations[1].Version())
}

func TestLoadFSMigrations_LoadedSQLRunsOnBothBackends(t *testing.T) {
	migrations, err := migrate.LoadFSMigrations(testdataFS, "testdata")
	require.NoError(t, err)

	ctx := context.Background()
	primary := newSQLiteHandle(t, migrate.BackendPrimary)
	analytics := newSQLiteHandle(t, migrate.BackendAnalytics)

	for _, m := range migrations {
		require.NoError(t, m.Apply(ctx, primary, migrate.DirectionForward))
		require.NoError(t, m.Apply(ctx, analytics, migrate.DirectionForward))
	}

	requireTable(t, primary, "users", true)
	requireTable(t, primary, "posts", true)
	requireTable(t, primary, "users_flat", false)
	requireTable(t, analytics, "users_flat", true)
	requireTable(t, analytics, "posts_flat", true)
	requireTable(t, analytics, "users", false)

	for i := len(migrations) - 1; i >= 0; i-- {
		require.NoError(t, migrations[i].Apply(ctx, primary, migrate.DirectionReverse))
		require.NoError(t, migrations[i].Apply(ctx, analytics, migrate.DirectionReverse))
	}
	requireTable(t, primary, "users", false)
	requireTable(t, analytics, "users_flat", false)
}

func TestLoadFSMigrations_MissingFile(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0001_init.primary.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"migrations/0001_init.primary.down.sql": {Data: []byte("DROP TABLE a;")},
		"migrations/0001_init.analytics.up.sql": {Data: []byte("CREATE TABLE a_flat (id INTEGER);")},
		// analytics.down.sql is missing
	}
	_, err := migrate.LoadFSMigrations(fsys, "migrations")
	require.ErrorIs(t, err, migrate.ErrIncompleteDefinition)
	assert.Contains(t, err.Error(), "0001_init")
	assert.Contains(t, err.Error(), ".analytics.down.sql")
}

func TestLoadFSMigrations_InvalidVersionPrefix(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/init.primary.up.sql":     {Data: []byte("SELECT 1;")},
		"migrations/init.primary.down.sql":   {Data: []byte("SELECT 1;")},
		"migrations/init.analytics.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/init.analytics.down.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := migrate.LoadFSMigrations(fsys, "migrations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric version prefix")
}

func TestLoadFSMigrations_IgnoresUnrelatedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0001_init.primary.up.sql":     {Data: []byte("SELECT 1;")},
		"migrations/0001_init.primary.down.sql":   {Data: []byte("SELECT 1;")},
		"migrations/0001_init.analytics.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/0001_init.analytics.down.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":                    {Data: []byte("notes")},
	}
	migrations, err := migrate.LoadFSMigrations(fsys, "migrations")
	require.NoError(t, err)
	require.Len(t, migrations, 1)
}

func TestRegisterFSMigrations(t *testing.T) {
	reg := migrate.NewRegistry()
	migrations, err := migrate.RegisterFSMigrations(reg, testdataFS, "testdata")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, reg.Len())

	// Registering the same directory twice collides on versions.
	_, err = migrate.RegisterFSMigrations(reg, testdataFS, "testdata")
	require.ErrorIs(t, err, migrate.ErrDuplicateVersion)
}
