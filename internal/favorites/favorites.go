package favorites

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreiras/mediadex/internal/database"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

// Callback receives the full favorites list after every confirmed change.
// Declared as an alias so the store satisfies consumer-side interfaces.
type Callback = func(entries []models.FavoriteEntry)

// Store is the favorites store adapter. The remote document store is the
// source of truth; the local snapshot database is a best-effort cache served
// when the remote is unreachable. All open views share one Store and observe
// changes through Subscribe.
type Store struct {
	remote RemoteStore // nil means local-only operation
	db     database.Database
	logger logger.Logger

	mu   sync.Mutex
	subs map[string]map[string]Callback // userID -> subscription id -> callback
}

func NewStore(remote RemoteStore, db database.Database, log logger.Logger) *Store {
	if log == nil {
		log = logger.New()
	}
	return &Store{
		remote: remote,
		db:     db,
		logger: log,
		subs:   make(map[string]map[string]Callback),
	}
}

// Get returns the user's favorites. When the remote store is unreachable it
// falls back to the last-known local snapshot and logs a warning; the
// snapshot is a cache, never the source of truth.
func (s *Store) Get(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	if userID == "" {
		return nil, errors.NewAuthRequiredError("reading favorites")
	}

	if s.remote != nil {
		entries, err := s.remote.Fetch(ctx, userID)
		if err == nil {
			if dbErr := s.db.ReplaceFavorites(userID, entries); dbErr != nil {
				s.logger.Errorf("[Favorites] failed to refresh snapshot: %v", dbErr)
			}
			return entries, nil
		}
		s.logger.Warnf("[Favorites] remote fetch failed, serving snapshot: %v", err)
	}

	entries, err := s.db.GetFavorites(userID)
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	return entries, nil
}

// Set adds or removes one favorite. The whole list is written back
// last-write-wins; concurrent Sets for the same user are not serialized, so
// a rapid toggle sequence may race (documented limitation).
func (s *Store) Set(ctx context.Context, userID string, item models.MediaItem, present bool) error {
	if userID == "" {
		return errors.NewAuthRequiredError("updating favorites")
	}

	current, err := s.db.GetFavorites(userID)
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}

	next := make([]models.FavoriteEntry, 0, len(current)+1)
	for _, entry := range current {
		if entry.Item.ID != item.ID {
			next = append(next, entry)
		}
	}
	if present {
		next = append(next, models.FavoriteEntry{
			UserID:  userID,
			Item:    item,
			AddedAt: time.Now(),
		})
	}

	if s.remote != nil {
		if err := s.remote.Replace(ctx, userID, next); err != nil {
			return err
		}
	}

	if err := s.db.ReplaceFavorites(userID, next); err != nil {
		if s.remote == nil {
			return errors.NewStoreUnavailableError(err)
		}
		// Remote write succeeded; a stale snapshot self-heals on next Get.
		s.logger.Errorf("[Favorites] failed to update snapshot: %v", err)
	}

	s.notify(userID, next)
	return nil
}

// Subscribe registers a callback delivered after every confirmed change to
// the user's list. The returned function releases the subscription.
func (s *Store) Subscribe(userID string, fn Callback) func() {
	id := uuid.NewString()

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[string]Callback)
	}
	s.subs[userID][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[userID], id)
		if len(s.subs[userID]) == 0 {
			delete(s.subs, userID)
		}
	}
}

// StartPolling refreshes subscribed users from the remote store at the given
// interval until ctx is done, so edits from other devices reach open views.
// No-op in local-only operation.
func (s *Store) StartPolling(ctx context.Context, interval time.Duration) {
	if s.remote == nil {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.pollOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Store) pollOnce(ctx context.Context) {
	s.mu.Lock()
	userIDs := make([]string, 0, len(s.subs))
	for userID := range s.subs {
		userIDs = append(userIDs, userID)
	}
	s.mu.Unlock()

	for _, userID := range userIDs {
		entries, err := s.remote.Fetch(ctx, userID)
		if err != nil {
			s.logger.Warnf("[Favorites] poll failed for user %s: %v", userID, err)
			continue
		}
		if err := s.db.ReplaceFavorites(userID, entries); err != nil {
			s.logger.Errorf("[Favorites] failed to refresh snapshot: %v", err)
		}
		s.notify(userID, entries)
	}
}

func (s *Store) notify(userID string, entries []models.FavoriteEntry) {
	s.mu.Lock()
	callbacks := make([]Callback, 0, len(s.subs[userID]))
	for _, fn := range s.subs[userID] {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(entries)
	}
}
