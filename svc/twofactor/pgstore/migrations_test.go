package pgstore

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		body, err := fs.ReadFile(migrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}

	first, err := fs.ReadFile(migrations, migrationsDir+"/00001_create_users.sql")
	require.NoError(t, err)
	for _, column := range []string{"two_factor_secret", "two_factor_backup_codes", "last_totp_used", "version"} {
		assert.True(t, strings.Contains(string(first), column), column)
	}
}
