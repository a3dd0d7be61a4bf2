package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd/sqlite/migrations"
)

func TestMigratorUp(t *testing.T) {
	t.Parallel()

	store, clean := NewTestStore(t)
	defer clean(t)
	ctx := context.Background()

	v, err := store.userVersion()
	require.NoError(t, err)
	require.Equal(t, 0, v)

	migrator := NewMigrator(store, zap.NewNop())
	require.NoError(t, migrator.Up(ctx, migrations.All))

	v, err = store.userVersion()
	require.NoError(t, err)
	require.Equal(t, 2, v)

	// both relations exist and are queryable
	var n int
	require.NoError(t, store.DB.Get(&n, "SELECT COUNT(*) FROM objects"))
	require.Equal(t, 0, n)
	require.NoError(t, store.DB.Get(&n, "SELECT COUNT(*) FROM associations"))
	require.Equal(t, 0, n)
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	t.Parallel()

	store, clean := NewTestStore(t)
	defer clean(t)
	ctx := context.Background()

	migrator := NewMigrator(store, zap.NewNop())
	require.NoError(t, migrator.Up(ctx, migrations.All))
	// a second run sees user_version already at the final level
	require.NoError(t, migrator.Up(ctx, migrations.All))

	v, err := store.userVersion()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestScriptVersion(t *testing.T) {
	t.Parallel()

	v, err := scriptVersion("0002_create_associations.sql")
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = scriptVersion("not_a_migration.sql")
	require.Error(t, err)
}
