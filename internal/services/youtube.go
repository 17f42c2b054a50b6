package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
	"github.com/jmoreiras/mediadex/pkg/ratelimiter"
)

const youtubeProvider = "youtube"

// YouTube is the trailer lookup client. It returns at most one best-match
// video id per title.
type YouTube struct {
	apiKey      string
	searchURL   string
	cache       *cache.LRUCache
	rateLimiter *ratelimiter.TokenBucket
	httpClient  *http.Client
	logger      logger.Logger
}

func NewYouTube(apiKey string, cache *cache.LRUCache) *YouTube {
	return &YouTube{
		apiKey:      apiKey,
		searchURL:   constants.YouTubeSearchURL,
		cache:       cache,
		rateLimiter: ratelimiter.NewTokenBucket(constants.YouTubeRateBurst, constants.YouTubeRateLimit),
		httpClient:  newHTTPClient(),
		logger:      logger.New(),
	}
}

// SetSearchURL overrides the API endpoint, used by tests.
func (y *YouTube) SetSearchURL(searchURL string) {
	y.searchURL = searchURL
}

// FindTrailer looks up the best-match trailer video id for a title.
// Returns an empty id when no trailer exists; that is not an error.
func (y *YouTube) FindTrailer(ctx context.Context, title, mediaType string) (string, error) {
	if title == "" {
		return "", nil
	}

	searchQuery := fmt.Sprintf("%s %s official trailer", title, mediaType)

	cacheKey := "youtube:trailer:" + searchQuery
	if data, found := y.cache.Get(cacheKey); found {
		return data.(string), nil
	}

	if y.apiKey == "" {
		return "", errors.NewProviderUnavailableError(youtubeProvider, fmt.Errorf("YouTube API key not configured"))
	}

	y.rateLimiter.Wait()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", "1")
	params.Set("q", searchQuery)
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", errors.NewProviderUnavailableError(youtubeProvider, err)
	}

	y.logger.Debugf("[YouTube] searching trailer for %q", title)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", errors.NewProviderUnavailableError(youtubeProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(youtubeProvider, resp.StatusCode); err != nil {
		return "", err
	}

	body, err := readBody(youtubeProvider, resp)
	if err != nil {
		return "", err
	}

	var parsed models.YouTubeSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewMalformedResponseError(youtubeProvider, err)
	}

	videoID := ""
	if len(parsed.Items) > 0 {
		videoID = parsed.Items[0].ID.VideoID
	}

	y.cache.Set(cacheKey, videoID)
	return videoID, nil
}
