package db

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := New(dbPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestDatabaseCreation(t *testing.T) {
	database := setupTestDB(t)
	require.NotNil(t, database)
}

func TestRoomOperations(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, database.CreateRoom("room-1", "user-a"))

	room, err := database.GetRoom("room-1")
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, "user-a", room.Creator)

	// Creating the same room again keeps the original record.
	require.NoError(t, database.CreateRoom("room-1", "user-b"))
	room, err = database.GetRoom("room-1")
	require.NoError(t, err)
	assert.Equal(t, "user-a", room.Creator)

	// Unknown room reads as nil, not an error.
	room, err = database.GetRoom("nope")
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestMembershipDuplicateIsSuccess(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, database.CreateRoom("room-1", "user-a"))
	require.NoError(t, database.AddMember("room-1", "user-a"))
	require.NoError(t, database.AddMember("room-1", "user-b"))

	// Re-joining must not error and must not add a second row.
	require.NoError(t, database.AddMember("room-1", "user-a"))

	count, err := database.GetMemberCount("room-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentLifecycle(t *testing.T) {
	database := setupTestDB(t)

	// Never-saved room reads as absent.
	_, ok, err := database.LoadDocument("room-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, database.SaveDocument("room-1", "v1"))
	code, ok, err := database.LoadDocument("room-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", code)

	// Upsert: the newer write replaces the old row.
	require.NoError(t, database.SaveDocument("room-1", "v2"))
	code, ok, err = database.LoadDocument("room-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", code)

	// An empty document is a valid saved state.
	require.NoError(t, database.SaveDocument("room-1", ""))
	code, ok, err = database.LoadDocument("room-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", code)
}

func TestStats(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, database.CreateRoom("room-1", "user-a"))
	require.NoError(t, database.CreateRoom("room-2", "user-a"))
	require.NoError(t, database.SaveDocument("room-1", "text"))

	stats, err := database.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["room_count"])
	assert.Equal(t, 1, stats["document_count"])
}
