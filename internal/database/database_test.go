package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_SeedsPermissions(t *testing.T) {
	db := setupTestDB(t)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Permission{}).Count(&count).Error)
	assert.Equal(t, int64(len(permissionModels)*len(permissionActions)), count)

	var addBook entities.Permission
	require.NoError(t, db.DB.Where("codename = ?", entities.PermissionAddBook).First(&addBook).Error)
	assert.Equal(t, "Can add book", addBook.Name)
}

func TestNewDatabase_SeedIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := NewDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer second.Close()

	var count int64
	require.NoError(t, second.DB.Model(&entities.Permission{}).Count(&count).Error)
	assert.Equal(t, int64(15), count)
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(config.Database{Driver: config.DatabaseDriverSQLite})
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: config.DatabaseDriverPostgres})
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: "mysql", Path: "x"})
	assert.Error(t, err)
}

func TestDatabase_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping())
}
