package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chatbet/internal/config"
	"github.com/sakif/chatbet/internal/repository"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chatbet.db")

	store, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, URL: path})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SeedSports(ctx, repository.DefaultSports))
	require.NoError(t, store.SeedUsers(ctx, repository.DefaultUsers))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(repository.DefaultUsers))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql", URL: "x"})
	assert.ErrorContains(t, err, "mysql")
}
