package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
	"github.com/jmoreiras/mediadex/pkg/ratelimiter"
)

const rawgProvider = "rawg"

// RAWG is the gateway client for the RAWG games API.
type RAWG struct {
	apiKey      string
	baseURL     string
	cache       *cache.LRUCache
	rateLimiter *ratelimiter.TokenBucket
	httpClient  *http.Client
	logger      logger.Logger
}

func NewRAWG(apiKey string, cache *cache.LRUCache) *RAWG {
	return &RAWG{
		apiKey:      apiKey,
		baseURL:     constants.RAWGBaseURL,
		cache:       cache,
		rateLimiter: ratelimiter.NewTokenBucket(constants.RAWGRateBurst, constants.RAWGRateLimit),
		httpClient:  newHTTPClient(),
		logger:      logger.New(),
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (r *RAWG) SetBaseURL(baseURL string) {
	r.baseURL = baseURL
}

func (r *RAWG) Name() string { return rawgProvider }

func (r *RAWG) PageSize() int { return constants.GamesPageSize }

// Search queries the games list. An empty query means browse with the
// requested ordering; page is 1-based. One attempt, no retries.
func (r *RAWG) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("key", r.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(constants.GamesPageSize))

	ordering := filters.Sort
	if ordering == "" {
		ordering = constants.RAWGOrderingTopRated
	}
	params.Set("ordering", ordering)

	if query != "" {
		params.Set("search", query)
		params.Set("search_precise", "true")
	}
	if len(filters.Genres) > 0 {
		params.Set("genres", strings.Join(filters.Genres, ","))
	}
	if filters.Year != "" {
		params.Set("dates", filters.Year+"-01-01,"+filters.Year+"-12-31")
	}

	resp, err := r.fetchGames(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, convertRAWGGame(&resp.Results[i]))
	}

	return &models.SearchResult{
		Items:   items,
		Total:   resp.Count,
		HasMore: resp.Next != "",
	}, nil
}

// NewReleases returns games released in the last three months, newest first.
func (r *RAWG) NewReleases(ctx context.Context, page int) (*models.SearchResult, error) {
	now := time.Now()
	return r.browseWindow(ctx, page, constants.RAWGOrderingNewReleases,
		dateRange(now.AddDate(0, -3, 0), now))
}

// Upcoming returns games releasing within the next year, soonest first.
func (r *RAWG) Upcoming(ctx context.Context, page int) (*models.SearchResult, error) {
	now := time.Now()
	return r.browseWindow(ctx, page, constants.RAWGOrderingUpcoming,
		dateRange(now, now.AddDate(1, 0, 0)))
}

// Popular returns games ordered by library adds.
func (r *RAWG) Popular(ctx context.Context, page int) (*models.SearchResult, error) {
	return r.Search(ctx, "", page, models.FilterSet{Sort: constants.RAWGOrderingPopular})
}

// TopRated returns games ordered by rating.
func (r *RAWG) TopRated(ctx context.Context, page int) (*models.SearchResult, error) {
	return r.Search(ctx, "", page, models.FilterSet{Sort: constants.RAWGOrderingTopRated})
}

func (r *RAWG) browseWindow(ctx context.Context, page int, ordering, dates string) (*models.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("key", r.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(constants.GamesPageSize))
	params.Set("ordering", ordering)
	params.Set("dates", dates)

	resp, err := r.fetchGames(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, convertRAWGGame(&resp.Results[i]))
	}

	return &models.SearchResult{
		Items:   items,
		Total:   resp.Count,
		HasMore: resp.Next != "",
	}, nil
}

func (r *RAWG) fetchGames(ctx context.Context, params url.Values) (*models.RAWGGamesResponse, error) {
	body, err := r.get(ctx, "/games", params)
	if err != nil {
		return nil, err
	}

	var resp models.RAWGGamesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMalformedResponseError(rawgProvider, err)
	}
	if resp.Results == nil {
		return nil, errors.NewMalformedResponseError(rawgProvider, fmt.Errorf("missing results field"))
	}

	return &resp, nil
}

// GameDetails fetches the full detail record and screenshots for one game.
// Both endpoints are fetched concurrently, matching the reference behavior.
func (r *RAWG) GameDetails(ctx context.Context, gameID string) (*models.GameDetails, error) {
	cacheKey := fmt.Sprintf("rawg:details:%s", gameID)
	if data, found := r.cache.Get(cacheKey); found {
		return data.(*models.GameDetails), nil
	}

	params := url.Values{}
	params.Set("key", r.apiKey)

	var (
		wg          sync.WaitGroup
		details     models.RAWGGameDetails
		screenshots models.RAWGScreenshotsResponse
		detailsErr  error
		shotsErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		body, err := r.get(ctx, "/games/"+gameID, params)
		if err != nil {
			detailsErr = err
			return
		}
		if err := json.Unmarshal(body, &details); err != nil {
			detailsErr = errors.NewMalformedResponseError(rawgProvider, err)
		}
	}()
	go func() {
		defer wg.Done()
		body, err := r.get(ctx, "/games/"+gameID+"/screenshots", params)
		if err != nil {
			shotsErr = err
			return
		}
		if err := json.Unmarshal(body, &screenshots); err != nil {
			shotsErr = errors.NewMalformedResponseError(rawgProvider, err)
		}
	}()
	wg.Wait()

	if detailsErr != nil {
		return nil, detailsErr
	}
	if shotsErr != nil {
		return nil, shotsErr
	}

	result := &models.GameDetails{
		Item:        convertRAWGGame(&details.RAWGGame),
		Description: details.DescriptionRaw,
		Website:     details.Website,
		Released:    details.Released,
	}
	for _, p := range details.Platforms {
		result.Platforms = append(result.Platforms, p.Platform.Name)
	}
	for _, s := range screenshots.Results {
		result.Screenshots = append(result.Screenshots, s.Image)
	}

	r.cache.Set(cacheKey, result)
	return result, nil
}

// Genres returns the RAWG genre vocabulary.
func (r *RAWG) Genres(ctx context.Context) ([]models.Genre, error) {
	cacheKey := "rawg:genres"
	if data, found := r.cache.Get(cacheKey); found {
		return data.([]models.Genre), nil
	}

	params := url.Values{}
	params.Set("key", r.apiKey)

	body, err := r.get(ctx, "/genres", params)
	if err != nil {
		return nil, err
	}

	var resp models.RAWGGenresResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMalformedResponseError(rawgProvider, err)
	}

	genres := make([]models.Genre, 0, len(resp.Results))
	for _, g := range resp.Results {
		genres = append(genres, models.Genre{
			ID:   strconv.Itoa(g.ID),
			Name: g.Name,
			Slug: g.Slug,
		})
	}

	r.cache.Set(cacheKey, genres)
	return genres, nil
}

func (r *RAWG) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	r.rateLimiter.Wait()

	reqURL := r.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(rawgProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	r.logger.Debugf("[RAWG] fetching %s", path)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(rawgProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(rawgProvider, resp.StatusCode); err != nil {
		return nil, err
	}

	return readBody(rawgProvider, resp)
}

// convertRAWGGame normalizes a RAWG game record. Ratings keep RAWG's 0-5
// scale; missing release dates leave Year at 0.
func convertRAWGGame(g *models.RAWGGame) models.MediaItem {
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		genres = append(genres, genre.Name)
	}

	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		platforms = append(platforms, p.Platform.Name)
	}

	extra := map[string]interface{}{
		"slug": g.Slug,
	}
	if len(platforms) > 0 {
		extra["platforms"] = platforms
	}
	if g.Metacritic > 0 {
		extra["metacritic"] = g.Metacritic
	}
	if g.Released != "" {
		extra["released"] = g.Released
	}

	return models.MediaItem{
		ID:       strconv.Itoa(g.ID),
		Provider: rawgProvider,
		Title:    g.Name,
		ImageURL: g.BackgroundImage,
		Rating:   g.Rating,
		Year:     yearOf(g.Released),
		Genres:   genres,
		Extra:    extra,
	}
}
