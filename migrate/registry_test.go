/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-dualmigrate/migrate"
)

func mustNewMigration(t *testing.T, version int64) *migrate.Migration {
	t.Helper()
	op := migrate.SQL("SELECT 1")
	m, err := migrate.NewMigration(version,
		migrate.NewMigrationUnit(op, op),
		migrate.NewMigrationUnit(op, op))
	require.NoError(t, err)
	return m
}

func TestRegistry_RegisterDuplicateVersion(t *testing.T) {
	reg := migrate.NewRegistry()
	require.NoError(t, reg.Register(mustNewMigration(t, 20160601192854)))
	err := reg.Register(mustNewMigration(t, 20160601192854))
	require.ErrorIs(t, err, migrate.ErrDuplicateVersion)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_AllSortsByVersionListKeepsInsertionOrder(t *testing.T) {
	reg := migrate.NewRegistry()

	// Insertion order is discovery order, not version order.
	versions := []int64{20170101000000, 20160601192854, 20160601193000}
	for _, v := range versions {
		require.NoError(t, reg.Register(mustNewMigration(t, v)))
	}

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(20160601192854), all[0].Version())
	assert.Equal(t, int64(20160601193000), all[1].Version())
	assert.Equal(t, int64(20170101000000), all[2].Version())

	listed := reg.List()
	require.Len(t, listed, 3)
	for i, v := range versions {
		assert.Equal(t, v, listed[i].Version())
	}
}

func TestRegistry_Reset(t *testing.T) {
	reg := migrate.NewRegistry()
	require.NoError(t, reg.Register(mustNewMigration(t, 20160601192854)))
	reg.Reset()
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.All())

	// The version is registrable again after reset.
	require.NoError(t, reg.Register(mustNewMigration(t, 20160601192854)))
}

func TestDefine_RegistersIntoDefaultRegistry(t *testing.T) {
	migrate.DefaultRegistry().Reset()
	t.Cleanup(migrate.DefaultRegistry().Reset)

	op := migrate.SQL("SELECT 1")
	m, err := migrate.Define(20160601192854, op, op, op, op)
	require.NoError(t, err)

	found, ok := migrate.DefaultRegistry().Find(20160601192854)
	require.True(t, ok)
	assert.Same(t, m, found)

	// Incomplete definitions never reach the registry.
	_, err = migrate.Define(20160601193000, op, op, nil, op)
	require.ErrorIs(t, err, migrate.ErrIncompleteDefinition)
	_, ok = migrate.DefaultRegistry().Find(20160601193000)
	assert.False(t, ok)
}
