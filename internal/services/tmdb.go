package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
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

const tmdbProvider = "tmdb"

// TMDB is the gateway client for the TMDB movies API.
type TMDB struct {
	apiKey      string
	baseURL     string
	imageURL    string
	cache       *cache.LRUCache
	rateLimiter *ratelimiter.TokenBucket
	httpClient  *http.Client
	logger      logger.Logger
}

func NewTMDB(apiKey string, cache *cache.LRUCache) *TMDB {
	return &TMDB{
		apiKey:      apiKey,
		baseURL:     constants.TMDBBaseURL,
		imageURL:    constants.TMDBImageBaseURL,
		cache:       cache,
		rateLimiter: ratelimiter.NewTokenBucket(constants.TMDBRateBurst, constants.TMDBRateLimit),
		httpClient:  newHTTPClient(),
		logger:      logger.New(),
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *TMDB) SetBaseURL(baseURL string) {
	t.baseURL = baseURL
}

func (t *TMDB) Name() string { return tmdbProvider }

func (t *TMDB) PageSize() int { return constants.MoviesPageSize }

// Search routes an empty query to the browse endpoints (popular or discover
// depending on sort key) and a non-empty query through /search/movie with
// client-side reordering, matching the reference behavior.
func (t *TMDB) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	sortBy := sortKeyOrDefault(filters.Sort, constants.TMDBSortKeys, "popularity.desc")

	if query == "" {
		return t.browse(ctx, page, sortBy, filters)
	}
	return t.searchMovies(ctx, query, page, sortBy)
}

// browse picks the endpoint per sort key: popular for the default, discover
// with extra constraints otherwise.
func (t *TMDB) browse(ctx context.Context, page int, sortBy string, filters models.FilterSet) (*models.SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	path := "/discover/movie"
	switch sortBy {
	case "popularity.desc":
		path = "/movie/popular"
	case "release_date.desc":
		// Window to the last six months of theatrical/digital releases so
		// unreleased placeholders don't dominate the first pages.
		now := time.Now()
		params.Set("sort_by", sortBy)
		params.Set("release_date.lte", now.Format("2006-01-02"))
		params.Set("release_date.gte", now.AddDate(0, -6, 0).Format("2006-01-02"))
		params.Set("with_release_type", "2|3")
	case "vote_average.desc":
		params.Set("sort_by", sortBy)
		params.Set("vote_count.gte", "100")
	case "original_title.asc":
		params.Set("sort_by", sortBy)
	default:
		path = "/movie/popular"
	}

	if path == "/discover/movie" && len(filters.Genres) > 0 {
		params.Set("with_genres", strings.Join(filters.Genres, ","))
	}
	if filters.Year != "" {
		params.Set("primary_release_year", filters.Year)
	}

	resp, err := t.fetchMovies(ctx, path, params)
	if err != nil {
		return nil, err
	}

	return t.toSearchResult(resp, page), nil
}

func (t *TMDB) searchMovies(ctx context.Context, query string, page int, sortBy string) (*models.SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	resp, err := t.fetchMovies(ctx, "/search/movie", params)
	if err != nil {
		return nil, err
	}

	// The search endpoint has no sort parameter; reorder the page locally.
	sortTMDBMovies(resp.Results, sortBy)

	return t.toSearchResult(resp, page), nil
}

func sortTMDBMovies(movies []models.TMDBMovie, sortBy string) {
	switch sortBy {
	case "release_date.desc":
		sort.SliceStable(movies, func(i, j int) bool {
			if movies[i].ReleaseDate == "" {
				return false
			}
			if movies[j].ReleaseDate == "" {
				return true
			}
			return movies[i].ReleaseDate > movies[j].ReleaseDate
		})
	case "vote_average.desc":
		sort.SliceStable(movies, func(i, j int) bool {
			return movies[i].VoteAverage > movies[j].VoteAverage
		})
	case "original_title.asc":
		sort.SliceStable(movies, func(i, j int) bool {
			return strings.ToLower(movies[i].Title) < strings.ToLower(movies[j].Title)
		})
	default:
		sort.SliceStable(movies, func(i, j int) bool {
			return movies[i].Popularity > movies[j].Popularity
		})
	}
}

func (t *TMDB) fetchMovies(ctx context.Context, path string, params url.Values) (*models.TMDBMovieResponse, error) {
	body, err := t.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var resp models.TMDBMovieResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMalformedResponseError(tmdbProvider, err)
	}
	if resp.Results == nil {
		return nil, errors.NewMalformedResponseError(tmdbProvider, fmt.Errorf("missing results field"))
	}

	return &resp, nil
}

func (t *TMDB) toSearchResult(resp *models.TMDBMovieResponse, page int) *models.SearchResult {
	items := make([]models.MediaItem, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, t.convertMovie(&resp.Results[i]))
	}

	return &models.SearchResult{
		Items:   items,
		Total:   resp.TotalResults,
		HasMore: page < resp.TotalPages,
	}
}

// MovieDetails aggregates the detail, credits, videos, similar and
// recommendations endpoints for one movie, fetched concurrently.
func (t *TMDB) MovieDetails(ctx context.Context, movieID string) (*models.MovieDetails, error) {
	cacheKey := fmt.Sprintf("tmdb:details:%s", movieID)
	if data, found := t.cache.Get(cacheKey); found {
		return data.(*models.MovieDetails), nil
	}

	params := url.Values{}
	params.Set("api_key", t.apiKey)

	var (
		wg      sync.WaitGroup
		details models.TMDBMovieDetails
		credits models.TMDBCreditsResponse
		videos  models.TMDBVideosResponse
		similar models.TMDBMovieResponse
		recs    models.TMDBMovieResponse
		errs    [5]error
	)

	fetch := func(idx int, path string, dst interface{}) {
		defer wg.Done()
		body, err := t.get(ctx, path, params)
		if err != nil {
			errs[idx] = err
			return
		}
		if err := json.Unmarshal(body, dst); err != nil {
			errs[idx] = errors.NewMalformedResponseError(tmdbProvider, err)
		}
	}

	base := "/movie/" + movieID
	wg.Add(5)
	go fetch(0, base, &details)
	go fetch(1, base+"/credits", &credits)
	go fetch(2, base+"/videos", &videos)
	go fetch(3, base+"/similar", &similar)
	go fetch(4, base+"/recommendations", &recs)
	wg.Wait()

	// The detail record is required; the auxiliary lists degrade to empty.
	if errs[0] != nil {
		return nil, errs[0]
	}

	item := models.MediaItem{
		ID:       strconv.Itoa(details.ID),
		Provider: tmdbProvider,
		Title:    details.Title,
		ImageURL: t.ImageURL(details.PosterPath, "w500"),
		Rating:   details.VoteAverage,
		Year:     yearOf(details.ReleaseDate),
	}
	for _, g := range details.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	result := &models.MovieDetails{
		Item:        item,
		Overview:    details.Overview,
		Runtime:     details.Runtime,
		ReleaseDate: details.ReleaseDate,
		BackdropURL: t.ImageURL(details.BackdropPath, "original"),
	}
	for _, c := range credits.Cast {
		result.Cast = append(result.Cast, models.CastEntry{
			Name:      c.Name,
			Character: c.Character,
			Order:     c.Order,
		})
	}
	for _, v := range videos.Results {
		result.Videos = append(result.Videos, models.Video{
			Key:  v.Key,
			Name: v.Name,
			Site: v.Site,
			Type: v.Type,
		})
	}
	for i := range similar.Results {
		result.Similar = append(result.Similar, t.convertMovie(&similar.Results[i]))
	}
	for i := range recs.Results {
		result.Recommendations = append(result.Recommendations, t.convertMovie(&recs.Results[i]))
	}

	t.cache.Set(cacheKey, result)
	return result, nil
}

// ImageURL builds a poster/backdrop URL, nil-safe: an empty path yields an
// empty URL so the caller can fall back to a placeholder.
func (t *TMDB) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return t.imageURL + "/" + size + path
}

func (t *TMDB) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if t.apiKey == "" {
		return nil, errors.NewProviderUnavailableError(tmdbProvider, fmt.Errorf("TMDB API key not configured"))
	}

	t.rateLimiter.Wait()

	reqURL := t.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(tmdbProvider, err)
	}

	t.logger.Debugf("[TMDB] fetching %s", path)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(tmdbProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(tmdbProvider, resp.StatusCode); err != nil {
		return nil, err
	}

	return readBody(tmdbProvider, resp)
}

func (t *TMDB) convertMovie(m *models.TMDBMovie) models.MediaItem {
	extra := map[string]interface{}{}
	if m.ReleaseDate != "" {
		extra["release_date"] = m.ReleaseDate
	}
	if m.Overview != "" {
		extra["overview"] = m.Overview
	}
	if m.BackdropPath != "" {
		extra["backdrop_url"] = t.ImageURL(m.BackdropPath, "original")
	}

	return models.MediaItem{
		ID:       strconv.Itoa(m.ID),
		Provider: tmdbProvider,
		Title:    m.Title,
		ImageURL: t.ImageURL(m.PosterPath, "w500"),
		Rating:   m.VoteAverage,
		Year:     yearOf(m.ReleaseDate),
		Extra:    extra,
	}
}
