package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/mediadex/internal/models"
)

func newTestDB(t *testing.T) *BoltDB {
	t.Helper()

	db, err := NewBolt(filepath.Join(t.TempDir(), "favorites.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAndGetFavorites(t *testing.T) {
	db := newTestDB(t)

	entry := models.FavoriteEntry{
		UserID:  "user-1",
		Item:    models.MediaItem{ID: "3498", Provider: "rawg", Title: "Grand Theft Auto V"},
		AddedAt: time.Now().UTC(),
	}
	require.NoError(t, db.StoreFavorite(&entry))

	entries, err := db.GetFavorites("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "3498", entries[0].Item.ID)
	assert.Equal(t, "Grand Theft Auto V", entries[0].Item.Title)
}

func TestGetFavoritesEmptyUser(t *testing.T) {
	db := newTestDB(t)

	entries, err := db.GetFavorites("nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreFavoriteUpserts(t *testing.T) {
	db := newTestDB(t)

	first := models.FavoriteEntry{
		UserID: "user-1",
		Item:   models.MediaItem{ID: "21", Title: "One Piece"},
	}
	require.NoError(t, db.StoreFavorite(&first))

	second := models.FavoriteEntry{
		UserID: "user-1",
		Item:   models.MediaItem{ID: "21", Title: "One Piece (retitled)"},
	}
	require.NoError(t, db.StoreFavorite(&second))

	entries, err := db.GetFavorites("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1, "same provider id must not duplicate")
	assert.Equal(t, "One Piece (retitled)", entries[0].Item.Title)
}

func TestFavoritesScopedToUser(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.StoreFavorite(&models.FavoriteEntry{
		UserID: "user-1",
		Item:   models.MediaItem{ID: "a"},
	}))
	require.NoError(t, db.StoreFavorite(&models.FavoriteEntry{
		UserID: "user-2",
		Item:   models.MediaItem{ID: "a"},
	}))

	entries, err := db.GetFavorites("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].UserID)
}

func TestDeleteFavorite(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.StoreFavorite(&models.FavoriteEntry{
		UserID: "user-1",
		Item:   models.MediaItem{ID: "a"},
	}))
	require.NoError(t, db.DeleteFavorite("user-1", "a"))

	entries, err := db.GetFavorites("user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteFavoriteMissingIsNoop(t *testing.T) {
	db := newTestDB(t)

	assert.NoError(t, db.DeleteFavorite("user-1", "never-stored"))
}

func TestReplaceFavorites(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.StoreFavorite(&models.FavoriteEntry{
		UserID: "user-1",
		Item:   models.MediaItem{ID: "old"},
	}))

	fresh := []models.FavoriteEntry{
		{UserID: "user-1", Item: models.MediaItem{ID: "new-1"}, AddedAt: time.Now().Add(-time.Minute)},
		{UserID: "user-1", Item: models.MediaItem{ID: "new-2"}, AddedAt: time.Now()},
	}
	require.NoError(t, db.ReplaceFavorites("user-1", fresh))

	entries, err := db.GetFavorites("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new-1", entries[0].Item.ID)
	assert.Equal(t, "new-2", entries[1].Item.ID)
}
