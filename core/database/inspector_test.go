package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	// Setup In-Memory DB
	cfg := Config{
		Driver: DriverSQLite,
		Name:   ":memory:",
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	defer Close(db)

	err = db.Exec("CREATE TABLE events (uid TEXT PRIMARY KEY, hash TEXT, tombstoned INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "events")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "text", colMap["uid"])
	assert.Equal(t, "text", colMap["hash"])
	assert.Equal(t, "integer", colMap["tombstoned"])

	// PRAGMA table_info returns an empty result for a non-existent table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Exec("CREATE TABLE events (uid TEXT PRIMARY KEY, hash TEXT)").Error)

	missing, err := MissingColumns(db, "events", []string{"uid", "tombstoned", "HASH", "remote_link_id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"remote_link_id", "tombstoned"}, missing)
}
