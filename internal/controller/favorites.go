package controller

import (
	"context"

	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
)

// ToggleFavorite flips membership for one item, independent of search state.
// The local membership view updates optimistically; on adapter failure the
// change is rolled back and the error is surfaced to the caller and on the
// controller state.
func (c *Controller) ToggleFavorite(ctx context.Context, item models.MediaItem) error {
	if c.favorites == nil || c.userID == "" {
		return errors.NewAuthRequiredError("toggling a favorite")
	}

	c.mu.Lock()
	wasFavorite := c.favIDs[item.ID]
	// Pending: apply the flip locally before the store confirms.
	c.applyFavoriteLocked(item, !wasFavorite)
	c.mu.Unlock()

	if err := c.favorites.Set(ctx, c.userID, item, !wasFavorite); err != nil {
		// RolledBack: restore the previous membership.
		c.mu.Lock()
		c.applyFavoriteLocked(item, wasFavorite)
		c.st.Err = err
		c.mu.Unlock()
		c.logger.Warnf("[Controller] favorite toggle failed for %s: %v", item.ID, err)
		return err
	}

	// Confirmed by the store; the subscription callback will deliver the
	// authoritative list.
	return nil
}

// IsFavorite reports current membership for a provider id.
func (c *Controller) IsFavorite(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.favIDs[itemID]
}

// Favorites returns the last-known favorites list.
func (c *Controller) Favorites() []models.FavoriteEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.FavoriteEntry(nil), c.favEntries...)
}

// onFavoritesChanged is the adapter subscription callback; it replaces the
// membership view so every open surface converges on the store's list.
func (c *Controller) onFavoritesChanged(entries []models.FavoriteEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.favEntries = append([]models.FavoriteEntry(nil), entries...)
	c.favIDs = make(map[string]bool, len(entries))
	for _, entry := range entries {
		c.favIDs[entry.Item.ID] = true
	}
}

// applyFavoriteLocked mutates the optimistic membership view. Called with
// c.mu held.
func (c *Controller) applyFavoriteLocked(item models.MediaItem, present bool) {
	if present {
		if !c.favIDs[item.ID] {
			c.favIDs[item.ID] = true
			c.favEntries = append(c.favEntries, models.FavoriteEntry{
				UserID: c.userID,
				Item:   item,
			})
		}
		return
	}

	delete(c.favIDs, item.ID)
	kept := c.favEntries[:0]
	for _, entry := range c.favEntries {
		if entry.Item.ID != item.ID {
			kept = append(kept, entry)
		}
	}
	c.favEntries = kept
}
