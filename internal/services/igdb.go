package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
	"github.com/jmoreiras/mediadex/pkg/ratelimiter"
)

const igdbProvider = "igdb"

const igdbTokenCacheKey = "igdb:token"

// upcomingGamesQuery is the Apicalypse body sent to /games for the upcoming
// releases list.
const upcomingGamesQuery = "fields *; where release_dates.date > 0 & release_dates.date < 9999999999; sort release_dates.date asc;"

// IGDB is the gateway client for the IGDB games API. Access tokens come
// from the Twitch OAuth2 client-credentials flow and are cached until just
// before expiry.
type IGDB struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	cache        *cache.LRUCache
	rateLimiter  *ratelimiter.TokenBucket
	httpClient   *http.Client
	logger       logger.Logger
}

func NewIGDB(clientID, clientSecret string, cache *cache.LRUCache) *IGDB {
	return &IGDB{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      constants.IGDBBaseURL,
		tokenURL:     constants.TwitchTokenURL,
		cache:        cache,
		rateLimiter:  ratelimiter.NewTokenBucket(constants.IGDBRateBurst, constants.IGDBRateLimit),
		httpClient:   newHTTPClient(),
		logger:       logger.New(),
	}
}

// SetEndpoints overrides the API and token endpoints, used by tests.
func (i *IGDB) SetEndpoints(baseURL, tokenURL string) {
	i.baseURL = baseURL
	i.tokenURL = tokenURL
}

// UpcomingGames returns games with a future release date, soonest first.
func (i *IGDB) UpcomingGames(ctx context.Context) ([]models.MediaItem, error) {
	token, err := i.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	i.rateLimiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/games",
		strings.NewReader(upcomingGamesQuery))
	if err != nil {
		return nil, errors.NewProviderUnavailableError(igdbProvider, err)
	}
	req.Header.Set("Client-ID", i.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	i.logger.Debugf("[IGDB] fetching upcoming games")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(igdbProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(igdbProvider, resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := readBody(igdbProvider, resp)
	if err != nil {
		return nil, err
	}

	var games []models.IGDBGame
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, errors.NewMalformedResponseError(igdbProvider, err)
	}

	items := make([]models.MediaItem, 0, len(games))
	for idx := range games {
		items = append(items, convertIGDBGame(&games[idx]))
	}
	return items, nil
}

// accessToken returns a cached Twitch token or fetches a fresh one.
func (i *IGDB) accessToken(ctx context.Context) (string, error) {
	if data, found := i.cache.Get(igdbTokenCacheKey); found {
		return data.(string), nil
	}

	if i.clientID == "" || i.clientSecret == "" {
		return "", errors.NewProviderUnavailableError(igdbProvider, fmt.Errorf("Twitch credentials not configured"))
	}

	params := url.Values{}
	params.Set("client_id", i.clientID)
	params.Set("client_secret", i.clientSecret)
	params.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", errors.NewProviderUnavailableError(igdbProvider, err)
	}

	i.logger.Debugf("[IGDB] fetching access token")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", errors.NewProviderUnavailableError(igdbProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(igdbProvider, resp.StatusCode); err != nil {
		return "", err
	}

	body, err := readBody(igdbProvider, resp)
	if err != nil {
		return "", err
	}

	var token models.TwitchTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", errors.NewMalformedResponseError(igdbProvider, err)
	}
	if token.AccessToken == "" {
		return "", errors.NewMalformedResponseError(igdbProvider, fmt.Errorf("missing access_token field"))
	}

	// Expire the cached token a minute early so a request never carries a
	// token that dies mid-flight.
	ttl := time.Duration(token.ExpiresIn)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}
	i.cache.SetWithTTL(igdbTokenCacheKey, token.AccessToken, ttl)

	return token.AccessToken, nil
}

func convertIGDBGame(g *models.IGDBGame) models.MediaItem {
	extra := map[string]interface{}{}
	if g.Summary != "" {
		extra["summary"] = g.Summary
	}
	if g.URL != "" {
		extra["site_url"] = g.URL
	}

	year := 0
	if g.FirstRelease > 0 {
		release := time.Unix(g.FirstRelease, 0).UTC()
		year = release.Year()
		extra["release_date"] = release.Format("2006-01-02")
	}

	return models.MediaItem{
		ID:       strconv.Itoa(g.ID),
		Provider: igdbProvider,
		Title:    g.Name,
		Rating:   g.Rating,
		Year:     year,
		Extra:    extra,
	}
}
