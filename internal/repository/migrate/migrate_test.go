package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/repository/migrate"
	"github.com/jwalitptl/medrecords-api/internal/repository/sqlstore"
)

func openSQLite(t *testing.T) *migrate.Migrator {
	t.Helper()
	db, err := sqlstore.NewDB(context.Background(), sqlstore.Options{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return migrate.NewMigrator(db)
}

func TestMigrator_Load(t *testing.T) {
	m := openSQLite(t)

	migrations, err := m.Load()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_init.sql", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMigrator_Status(t *testing.T) {
	ctx := context.Background()
	m := openSQLite(t)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.False(t, st.Applied)
		assert.Nil(t, st.AppliedAt)
	}

	_, err = m.Up(ctx)
	require.NoError(t, err)

	statuses, err = m.Status(ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.True(t, st.Applied, st.Name)
		assert.NotNil(t, st.AppliedAt)
	}
}
