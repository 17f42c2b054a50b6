// Package database provides data persistence using BoltDB.
// It holds the local best-effort snapshot of each user's favorites list;
// the remote document store stays the source of truth.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"github.com/jmoreiras/mediadex/internal/models"
)

const (
	dbFileMode = 0600
	dbDirMode  = 0755

	defaultDBFile = "favorites.db"
)

// Database defines the interface for favorites snapshot persistence.
type Database interface {
	// GetFavorites retrieves the snapshot for a user, newest last
	GetFavorites(userID string) ([]models.FavoriteEntry, error)
	// StoreFavorite upserts one favorite entry
	StoreFavorite(entry *models.FavoriteEntry) error
	// DeleteFavorite removes one favorite by user and item id
	DeleteFavorite(userID, itemID string) error
	// ReplaceFavorites overwrites a user's whole snapshot
	ReplaceFavorites(userID string, entries []models.FavoriteEntry) error
	// Close closes the database connection
	Close() error
}

// BoltDB implements the Database interface using BoltDB.
type BoltDB struct {
	store *bolthold.Store
}

// BoltFavorite is the BoltDB-specific structure for favorite storage.
// The key is "<userID>/<itemID>" so one entry exists per provider id.
type BoltFavorite struct {
	Key     string `boltholdKey:"Key"`
	UserID  string `boltholdIndex:"UserID"`
	ItemID  string
	Item    models.MediaItem
	AddedAt time.Time
}

// NewBolt creates a new BoltDB database instance.
// If dbPath is empty, uses the default database file in current directory.
func NewBolt(dbPath string) (*BoltDB, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Bolt takes an exclusive file lock; the timeout turns a second process
	// opening the same file into an error instead of a hang.
	store, err := bolthold.Open(dbPath, dbFileMode, &bolthold.Options{
		Options: &bolt.Options{Timeout: 1 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	return &BoltDB{store: store}, nil
}

// Close closes the database connection.
func (db *BoltDB) Close() error {
	return db.store.Close()
}

func favoriteKey(userID, itemID string) string {
	return userID + "/" + itemID
}

// GetFavorites retrieves the favorites snapshot for a user, ordered by the
// time each entry was added.
func (db *BoltDB) GetFavorites(userID string) ([]models.FavoriteEntry, error) {
	var rows []BoltFavorite
	err := db.store.Find(&rows, bolthold.Where("UserID").Eq(userID).Index("UserID").SortBy("AddedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	entries := make([]models.FavoriteEntry, len(rows))
	for i, row := range rows {
		entries[i] = convertToFavoriteEntry(&row)
	}
	return entries, nil
}

// StoreFavorite upserts one favorite entry in the snapshot.
func (db *BoltDB) StoreFavorite(entry *models.FavoriteEntry) error {
	row := &BoltFavorite{
		Key:     favoriteKey(entry.UserID, entry.Item.ID),
		UserID:  entry.UserID,
		ItemID:  entry.Item.ID,
		Item:    entry.Item,
		AddedAt: entry.AddedAt,
	}
	if row.AddedAt.IsZero() {
		row.AddedAt = time.Now()
	}

	if err := db.store.Upsert(row.Key, row); err != nil {
		return fmt.Errorf("failed to store favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes one favorite from the snapshot.
// Returns nil if the entry doesn't exist.
func (db *BoltDB) DeleteFavorite(userID, itemID string) error {
	err := db.store.Delete(favoriteKey(userID, itemID), BoltFavorite{})
	if err == bolthold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// ReplaceFavorites overwrites a user's snapshot with the given entries.
// Used when the remote store pushes a fresh list.
func (db *BoltDB) ReplaceFavorites(userID string, entries []models.FavoriteEntry) error {
	err := db.store.DeleteMatching(BoltFavorite{}, bolthold.Where("UserID").Eq(userID).Index("UserID"))
	if err != nil && err != bolthold.ErrNotFound {
		return fmt.Errorf("failed to clear favorites snapshot: %w", err)
	}

	for i := range entries {
		if err := db.StoreFavorite(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// convertToFavoriteEntry converts BoltFavorite to models.FavoriteEntry.
func convertToFavoriteEntry(row *BoltFavorite) models.FavoriteEntry {
	return models.FavoriteEntry{
		UserID:  row.UserID,
		Item:    row.Item,
		AddedAt: row.AddedAt,
	}
}
