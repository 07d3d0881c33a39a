// ABOUTME: Tests for upgrading snapshot databases in place
// ABOUTME: Covers dry runs, backups and the force requirement for stale tables
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formsync.db")
	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = database.Exec(`CREATE TABLE contacts (id TEXT PRIMARY KEY); CREATE TABLE templates_v0 (id TEXT)`)
	require.NoError(t, err)
	require.NoError(t, database.Close())
	return path
}

func TestMigrate_DryRun(t *testing.T) {
	path := legacyDB(t)

	report, err := Migrate(path, MigrateOptions{DryRun: true, Backup: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts", "templates_v0"}, report.Stale)
	assert.Equal(t, SchemaTables, report.Created)
	assert.Empty(t, report.BackupPath)
	assert.Empty(t, report.Dropped)
}

func TestMigrate_RequiresForce(t *testing.T) {
	path := legacyDB(t)

	_, err := Migrate(path, MigrateOptions{})
	assert.Error(t, err)
}

func TestMigrate_Force(t *testing.T) {
	path := legacyDB(t)

	report, err := Migrate(path, MigrateOptions{Force: true, Backup: true})
	require.NoError(t, err)
	assert.Equal(t, report.Stale, report.Dropped)
	_, err = os.Stat(report.BackupPath)
	assert.NoError(t, err)

	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = database.Close() }()
	tables, err := Tables(database)
	require.NoError(t, err)
	assert.Equal(t, SchemaTables, tables)
}

func TestMigrate_CurrentSchemaIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formsync.db")
	database, err := OpenDatabase(path)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	report, err := Migrate(path, MigrateOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Stale)
	assert.Empty(t, report.Created)
}

func TestMigrate_MissingFile(t *testing.T) {
	_, err := Migrate(filepath.Join(t.TempDir(), "nope.db"), MigrateOptions{})
	assert.Error(t, err)
}
