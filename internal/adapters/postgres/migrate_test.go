package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	up, err := MigrationFiles("up")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_page_log.up.sql"}, up)

	down, err := MigrationFiles("down")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_page_log.down.sql"}, down)

	_, err = MigrationFiles("sideways")
	assert.Error(t, err)
}

func TestMigrationsAreReadable(t *testing.T) {
	data, err := migrationFS.ReadFile("migrations/001_page_log.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS page_fetches")
}
