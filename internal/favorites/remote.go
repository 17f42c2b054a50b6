// Package favorites implements the favorites store adapter: a remote
// per-user document holding a denormalized favorites list, mirrored into a
// local snapshot database and fanned out to subscribers.
package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

// RemoteStore is the vendor-hosted document store holding each user's
// favorites list. Writes are last-write-wins on the whole list.
type RemoteStore interface {
	// Fetch reads the user's favorites document; a missing document is an
	// empty list, not an error
	Fetch(ctx context.Context, userID string) ([]models.FavoriteEntry, error)
	// Replace overwrites the user's favorites document
	Replace(ctx context.Context, userID string, entries []models.FavoriteEntry) error
}

// userDocument is the wire shape of one user's favorites document.
type userDocument struct {
	Favorites []models.FavoriteEntry `json:"favorites"`
}

// HTTPStore talks to a document-store REST surface: one JSON document per
// user at <base>/users/<id>.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.New(),
	}
}

func (s *HTTPStore) docURL(userID string) string {
	return s.baseURL + "/users/" + userID
}

// Fetch reads the user's favorites document.
func (s *HTTPStore) Fetch(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.docURL(userID), nil)
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []models.FavoriteEntry{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("status %d", resp.StatusCode))
	}

	var doc userDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}
	if doc.Favorites == nil {
		doc.Favorites = []models.FavoriteEntry{}
	}

	return doc.Favorites, nil
}

// Replace overwrites the user's favorites document. Last write wins; there
// is no merge of concurrent edits across devices.
func (s *HTTPStore) Replace(ctx context.Context, userID string, entries []models.FavoriteEntry) error {
	payload, err := json.Marshal(userDocument{Favorites: entries})
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.docURL(userID), bytes.NewReader(payload))
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.NewStoreUnavailableError(fmt.Errorf("status %d", resp.StatusCode))
	}

	return nil
}
