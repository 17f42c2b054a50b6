package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
	"github.com/jmoreiras/mediadex/pkg/ratelimiter"
)

const anilistProvider = "anilist"

// anilistPageQuery is the single GraphQL query the anime gateway issues.
// Every search, browse and filter combination maps onto its variables.
const anilistPageQuery = `
query ($page: Int, $search: String, $type: MediaType, $sort: [MediaSort], $genre_in: [String], $seasonYear: Int, $status: MediaStatus) {
  Page(page: $page, perPage: 50) {
    pageInfo {
      total
      currentPage
      lastPage
      hasNextPage
      perPage
    }
    media(
      type: $type,
      sort: $sort,
      search: $search,
      genre_in: $genre_in,
      seasonYear: $seasonYear,
      status: $status
    ) {
      id
      title {
        english
        romaji
        native
      }
      coverImage {
        large
        medium
      }
      bannerImage
      description
      episodes
      status
      seasonYear
      averageScore
      genres
      startDate {
        year
      }
      trailer {
        id
        site
      }
      studios {
        nodes {
          name
        }
      }
      siteUrl
    }
  }
}`

// AniList is the gateway client for the AniList GraphQL API.
type AniList struct {
	endpoint    string
	mediaType   string
	cache       *cache.LRUCache
	rateLimiter *ratelimiter.TokenBucket
	httpClient  *http.Client
	logger      logger.Logger
}

// NewAniList creates an AniList gateway for one media type ("ANIME" or
// "MANGA"). The endpoint is configurable so requests can be routed through
// the CORS relay.
func NewAniList(endpoint, mediaType string, cache *cache.LRUCache) *AniList {
	if endpoint == "" {
		endpoint = constants.AniListGraphQLURL
	}
	if mediaType == "" {
		mediaType = "ANIME"
	}
	return &AniList{
		endpoint:    endpoint,
		mediaType:   mediaType,
		cache:       cache,
		rateLimiter: ratelimiter.NewTokenBucket(constants.AniListRateBurst, constants.AniListRateLimit),
		httpClient:  newHTTPClient(),
		logger:      logger.New(),
	}
}

// SetEndpoint overrides the GraphQL endpoint, used by tests.
func (a *AniList) SetEndpoint(endpoint string) {
	a.endpoint = endpoint
}

func (a *AniList) Name() string { return anilistProvider }

func (a *AniList) PageSize() int { return constants.AnimePageSize }

// Search issues one Page query. Empty query means browse by sort order.
func (a *AniList) Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	sortKey := sortKeyOrDefault(filters.Sort, constants.AniListSortKeys, "POPULARITY_DESC")

	variables := map[string]interface{}{
		"type": a.mediaType,
		"page": page,
		"sort": []string{sortKey},
	}
	if query != "" {
		variables["search"] = query
	}
	if len(filters.Genres) > 0 {
		variables["genre_in"] = filters.Genres
	}
	if filters.Year != "" {
		year, err := strconv.Atoi(filters.Year)
		if err == nil {
			variables["seasonYear"] = year
		}
	}
	if filters.Status != "" {
		variables["status"] = filters.Status
	}

	resp, err := a.query(ctx, variables)
	if err != nil {
		return nil, err
	}

	pageData := resp.Data.Page
	items := make([]models.MediaItem, 0, len(pageData.Media))
	for i := range pageData.Media {
		items = append(items, convertAniListMedia(&pageData.Media[i]))
	}

	return &models.SearchResult{
		Items:   items,
		Total:   pageData.PageInfo.Total,
		HasMore: pageData.PageInfo.HasNextPage,
	}, nil
}

func (a *AniList) query(ctx context.Context, variables map[string]interface{}) (*models.AniListResponse, error) {
	a.rateLimiter.Wait()

	payload, err := json.Marshal(models.AniListRequest{
		Query:     anilistPageQuery,
		Variables: variables,
	})
	if err != nil {
		return nil, errors.NewProviderUnavailableError(anilistProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewProviderUnavailableError(anilistProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	a.logger.Debugf("[AniList] querying page %v type %s", variables["page"], a.mediaType)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(anilistProvider, err)
	}
	defer resp.Body.Close()

	if err := mapHTTPStatus(anilistProvider, resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := readBody(anilistProvider, resp)
	if err != nil {
		return nil, err
	}

	var parsed models.AniListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewMalformedResponseError(anilistProvider, err)
	}
	if len(parsed.Errors) > 0 {
		return nil, errors.NewProviderUnavailableError(anilistProvider,
			fmt.Errorf("graphql error: %s", parsed.Errors[0].Message))
	}
	if parsed.Data == nil {
		return nil, errors.NewMalformedResponseError(anilistProvider, fmt.Errorf("missing data field"))
	}

	return &parsed, nil
}

// convertAniListMedia normalizes one media record. Title preference is
// english, then romaji, then native. Scores keep AniList's 0-100 scale.
func convertAniListMedia(m *models.AniListMedia) models.MediaItem {
	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	if title == "" {
		title = m.Title.Native
	}

	image := m.CoverImage.Large
	if image == "" {
		image = m.CoverImage.Medium
	}

	year := m.SeasonYear
	if year == 0 {
		year = m.StartDate.Year
	}

	extra := map[string]interface{}{}
	if m.Episodes > 0 {
		extra["episodes"] = m.Episodes
	}
	if m.Status != "" {
		extra["status"] = m.Status
	}
	if m.Description != "" {
		extra["description"] = m.Description
	}
	if m.BannerImage != "" {
		extra["banner_image"] = m.BannerImage
	}
	if m.SiteURL != "" {
		extra["site_url"] = m.SiteURL
	}
	if m.Trailer != nil && m.Trailer.ID != "" {
		extra["trailer_id"] = m.Trailer.ID
		extra["trailer_site"] = m.Trailer.Site
	}
	if len(m.Studios.Nodes) > 0 {
		studios := make([]string, 0, len(m.Studios.Nodes))
		for _, s := range m.Studios.Nodes {
			studios = append(studios, s.Name)
		}
		extra["studios"] = studios
	}

	return models.MediaItem{
		ID:       strconv.Itoa(m.ID),
		Provider: anilistProvider,
		Title:    title,
		ImageURL: image,
		Rating:   float64(m.AverageScore),
		Year:     year,
		Genres:   m.Genres,
		Extra:    extra,
	}
}
