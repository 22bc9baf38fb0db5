package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.Equal(t, "cache", db.Name())
	assert.Equal(t, path, db.Path())

	_, err = db.Conn().Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO t (id) VALUES (1)")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standard.db")

	db, err := New(Config{Path: path, Name: "standard"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.Equal(t, ProfileStandard, db.profile)
}

func TestBuildConnectionString_CacheProfile(t *testing.T) {
	connStr := buildConnectionString("/tmp/cache.db", ProfileCache)

	assert.Contains(t, connStr, "journal_mode(WAL)")
	assert.Contains(t, connStr, "synchronous(OFF)")
	assert.Contains(t, connStr, "auto_vacuum(FULL)")
}

func TestBuildConnectionString_StandardProfile(t *testing.T) {
	connStr := buildConnectionString("/tmp/standard.db", ProfileStandard)

	assert.Contains(t, connStr, "synchronous(NORMAL)")
	assert.Contains(t, connStr, "auto_vacuum(INCREMENTAL)")
}
