// Package testutil provides an in-memory, migrated store for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/repository/migrate"
	"github.com/jwalitptl/medrecords-api/internal/repository/sqlstore"
)

// NewDB opens a fresh in-memory sqlite database with all migrations applied.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlstore.NewDB(ctx, sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrate.NewMigrator(db).Up(ctx)
	require.NoError(t, err)
	return db
}

// NewStore returns a store backed by NewDB.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	return sqlstore.NewStore(NewDB(t))
}
