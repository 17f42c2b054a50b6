package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/favorites"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/internal/services"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

// memDB is an in-memory favorites snapshot for handler tests.
type memDB struct {
	mu   sync.Mutex
	data map[string][]models.FavoriteEntry
}

func newMemDB() *memDB {
	return &memDB{data: make(map[string][]models.FavoriteEntry)}
}

func (db *memDB) GetFavorites(userID string) ([]models.FavoriteEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.FavoriteEntry(nil), db.data[userID]...), nil
}

func (db *memDB) StoreFavorite(entry *models.FavoriteEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[entry.UserID] = append(db.data[entry.UserID], *entry)
	return nil
}

func (db *memDB) DeleteFavorite(userID, itemID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	kept := db.data[userID][:0]
	for _, entry := range db.data[userID] {
		if entry.Item.ID != itemID {
			kept = append(kept, entry)
		}
	}
	db.data[userID] = kept
	return nil
}

func (db *memDB) ReplaceFavorites(userID string, entries []models.FavoriteEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[userID] = append([]models.FavoriteEntry(nil), entries...)
	return nil
}

func (db *memDB) Close() error { return nil }

// fakeGames implements services.GamesService over canned responses.
type fakeGames struct {
	searchErr error
}

func (g *fakeGames) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	if g.searchErr != nil {
		return nil, g.searchErr
	}
	return &models.SearchResult{
		Items: []models.MediaItem{
			{ID: fmt.Sprintf("game-%d", page), Provider: "rawg", Title: fmt.Sprintf("Game %d", page)},
		},
		Total:   100,
		HasMore: page < 5,
	}, nil
}

func (g *fakeGames) PageSize() int { return 20 }
func (g *fakeGames) Name() string  { return "rawg" }

func (g *fakeGames) GameDetails(ctx context.Context, gameID string) (*models.GameDetails, error) {
	if gameID == "missing" {
		return nil, errors.NewProviderUnavailableError("rawg", fmt.Errorf("status 404"))
	}
	return &models.GameDetails{
		Item:        models.MediaItem{ID: gameID, Provider: "rawg", Title: "Some Game"},
		Description: "A description.",
	}, nil
}

func (g *fakeGames) Genres(ctx context.Context) ([]models.Genre, error) {
	return []models.Genre{{ID: "4", Name: "Action", Slug: "action"}}, nil
}

func (g *fakeGames) NewReleases(ctx context.Context, page int) (*models.SearchResult, error) {
	return g.Search(ctx, "", page, models.FilterSet{})
}

func (g *fakeGames) Upcoming(ctx context.Context, page int) (*models.SearchResult, error) {
	return g.Search(ctx, "", page, models.FilterSet{})
}

func (g *fakeGames) Popular(ctx context.Context, page int) (*models.SearchResult, error) {
	return g.Search(ctx, "", page, models.FilterSet{})
}

func (g *fakeGames) TopRated(ctx context.Context, page int) (*models.SearchResult, error) {
	return g.Search(ctx, "", page, models.FilterSet{})
}

type fakeMovies struct{}

func (m *fakeMovies) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	return &models.SearchResult{
		Items: []models.MediaItem{{ID: "550", Provider: "tmdb", Title: "Fight Club"}},
		Total: 1,
	}, nil
}

func (m *fakeMovies) PageSize() int { return 20 }
func (m *fakeMovies) Name() string  { return "tmdb" }

func (m *fakeMovies) MovieDetails(ctx context.Context, movieID string) (*models.MovieDetails, error) {
	return &models.MovieDetails{
		Item:     models.MediaItem{ID: movieID, Provider: "tmdb", Title: "Fight Club"},
		Overview: "An insomniac office worker.",
	}, nil
}

type fakeAnime struct{}

func (a *fakeAnime) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	return &models.SearchResult{
		Items: []models.MediaItem{{ID: "21", Provider: "anilist", Title: "One Piece"}},
		Total: 1,
	}, nil
}

func (a *fakeAnime) PageSize() int { return 50 }
func (a *fakeAnime) Name() string  { return "anilist" }

type fakeTrailers struct{}

func (tr *fakeTrailers) FindTrailer(ctx context.Context, title, mediaType string) (string, error) {
	if title == "Obscure" {
		return "", nil
	}
	return "dQw4w9WgXcQ", nil
}

type fakeUpcoming struct{}

func (u *fakeUpcoming) UpcomingGames(ctx context.Context) ([]models.MediaItem, error) {
	return []models.MediaItem{{ID: "9000", Provider: "igdb", Title: "Future Game"}}, nil
}

func setupRouter(t *testing.T, games services.GamesService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if games == nil {
		games = &fakeGames{}
	}

	container := &services.Container{
		Games:    games,
		Movies:   &fakeMovies{},
		Anime:    &fakeAnime{},
		Trailers: &fakeTrailers{},
		Upcoming: &fakeUpcoming{},
		Logger:   logger.New(),
	}
	favStore := favorites.NewStore(nil, newMemDB(), nil)

	r := gin.New()
	New(container, favStore).RegisterRoutes(r)
	return r
}

func doRequest(r *gin.Engine, method, target, userID string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// blockingRemote stalls every Fetch until released, standing in for an
// unresponsive favorites backend.
type blockingRemote struct {
	release chan struct{}
}

func (r *blockingRemote) Fetch(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	<-r.release
	return nil, nil
}

func (r *blockingRemote) Replace(ctx context.Context, userID string, entries []models.FavoriteEntry) error {
	return nil
}

func TestControllerLookupNotSerializedBehindSlowFavorites(t *testing.T) {
	gin.SetMode(gin.TestMode)

	remote := &blockingRemote{release: make(chan struct{})}
	favStore := favorites.NewStore(remote, newMemDB(), nil)
	container := &services.Container{
		Games:  &fakeGames{},
		Logger: logger.New(),
	}
	h := New(container, favStore)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		h.controllerFor("games", "slow-user", container.Games)
	}()

	// An anonymous lookup has no favorites load and must complete while the
	// slow user's initial fetch is still hanging.
	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		h.controllerFor("games", "", container.Games)
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("controller lookup blocked behind another user's favorites load")
	}

	close(remote.release)
	select {
	case <-slowDone:
	case <-time.After(2 * time.Second):
		t.Fatal("slow user's lookup never completed after the remote recovered")
	}
}

func TestSearchGames(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/search/games?query=zelda", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		State       string  `json:"state"`
		Query       string  `json:"query"`
		Page        int     `json:"page"`
		Total       int     `json:"total"`
		TotalPages  int     `json:"total_pages"`
		PageNumbers []int   `json:"page_numbers"`
		Items       []struct {
			ID       string `json:"id"`
			Favorite bool   `json:"favorite"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "ready", resp.State)
	assert.Equal(t, "zelda", resp.Query)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 100, resp.Total)
	assert.Equal(t, 5, resp.TotalPages)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, resp.PageNumbers)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "game-1", resp.Items[0].ID)
	assert.False(t, resp.Items[0].Favorite)
}

func TestSearchPagination(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/search/games?query=zelda", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/search/games?query=zelda&page=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Page  int `json:"page"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Page)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "game-3", resp.Items[0].ID)
}

func TestSearchUnknownDomain(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/search/books?query=dune", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchProviderFailure(t *testing.T) {
	r := setupRouter(t, &fakeGames{searchErr: errors.NewProviderRateLimitedError("rawg")})

	w := doRequest(r, http.MethodGet, "/api/search/games?query=zelda", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrorTypeProviderRateLimited, resp.Type)
}

func TestGetFavoritesRequiresUser(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToggleFavoriteFlow(t *testing.T) {
	r := setupRouter(t, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"domain": "games",
		"item":   models.MediaItem{ID: "3498", Provider: "rawg", Title: "Grand Theft Auto V"},
	})

	w := doRequest(r, http.MethodPost, "/api/favorites/toggle", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	var toggleResp struct {
		ItemID   string `json:"item_id"`
		Favorite bool   `json:"favorite"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggleResp))
	assert.Equal(t, "3498", toggleResp.ItemID)
	assert.True(t, toggleResp.Favorite)

	w = doRequest(r, http.MethodGet, "/api/favorites", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Favorites []models.FavoriteEntry `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Favorites, 1)
	assert.Equal(t, "3498", listResp.Favorites[0].Item.ID)

	// Toggling again removes the entry.
	w = doRequest(r, http.MethodPost, "/api/favorites/toggle", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggleResp))
	assert.False(t, toggleResp.Favorite)

	w = doRequest(r, http.MethodGet, "/api/favorites", "user-1", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Empty(t, listResp.Favorites)
}

func TestToggleFavoriteRequiresUser(t *testing.T) {
	r := setupRouter(t, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"domain": "games",
		"item":   models.MediaItem{ID: "3498"},
	})

	w := doRequest(r, http.MethodPost, "/api/favorites/toggle", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchMarksFavorites(t *testing.T) {
	r := setupRouter(t, nil)

	// The fake gateway returns game-1 for page 1; favorite it first.
	body, _ := json.Marshal(map[string]interface{}{
		"domain": "games",
		"item":   models.MediaItem{ID: "game-1", Provider: "rawg", Title: "Game 1"},
	})
	w := doRequest(r, http.MethodPost, "/api/favorites/toggle", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/search/games?query=zelda", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ID       string `json:"id"`
			Favorite bool   `json:"favorite"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "game-1", resp.Items[0].ID)
	assert.True(t, resp.Items[0].Favorite)
}

func TestGameDetails(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/games/details/3498", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var details models.GameDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, "3498", details.Item.ID)
}

func TestGameDetailsProviderError(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/games/details/missing", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGameGenres(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/games/genres", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Genres []models.Genre `json:"genres"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Genres, 1)
	assert.Equal(t, "Action", resp.Genres[0].Name)
}

func TestUpcomingGames(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/games/upcoming", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []models.MediaItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "igdb", resp.Items[0].Provider)
}

func TestMovieDetails(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/movies/details/550", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var details models.MovieDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, "Fight Club", details.Item.Title)
}

func TestTrailerLookup(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/trailer?title=Inception&type=movie", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		VideoID string `json:"video_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dQw4w9WgXcQ", resp.VideoID)
}

func TestTrailerMissingIsNotAnError(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/trailer?title=Obscure", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		VideoID string `json:"video_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.VideoID)
}

func TestTrailerRequiresTitle(t *testing.T) {
	r := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/trailer", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
