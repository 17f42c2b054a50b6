// Package handlers implements the HTTP request handlers for the mediadex API.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/controller"
	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/favorites"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/internal/services"
)

// userIDHeader carries the caller's identity. Authentication itself is
// vendor-owned; an absent header on favorites routes yields AUTH_REQUIRED.
const userIDHeader = "X-User-ID"

// Handler handles HTTP requests for the mediadex API. It keeps one
// Search-and-Filter Controller per (domain, user) pair so repeated requests
// from the same browsing surface share controller state.
type Handler struct {
	services  *services.Container
	favorites *favorites.Store

	mu          sync.Mutex
	controllers map[string]*controller.Controller
}

// New creates a new Handler with the provided services and favorites store.
func New(container *services.Container, favStore *favorites.Store) *Handler {
	return &Handler{
		services:    container,
		favorites:   favStore,
		controllers: make(map[string]*controller.Controller),
	}
}

// RegisterRoutes registers all HTTP routes for the mediadex API.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.handleHome)

	api := r.Group("/api")
	{
		api.GET("/search/:domain", h.handleSearch)

		api.GET("/games/details/:id", h.handleGameDetails)
		api.GET("/games/genres", h.handleGameGenres)
		api.GET("/games/upcoming", h.handleUpcomingGames)
		api.GET("/movies/details/:id", h.handleMovieDetails)
		api.GET("/trailer", h.handleTrailer)

		api.GET("/favorites", h.handleGetFavorites)
		api.POST("/favorites/toggle", h.handleToggleFavorite)
		api.GET("/favorites/ws", h.handleFavoritesSocket)
	}
}

func (h *Handler) handleHome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to mediadex! Search games, movies and anime under /api.")
}

// gatewayFor maps a domain path segment to its gateway client.
func (h *Handler) gatewayFor(domain string) services.Gateway {
	switch domain {
	case constants.DomainGames:
		return h.services.Games
	case constants.DomainMovies:
		return h.services.Movies
	case constants.DomainAnime:
		return h.services.Anime
	}
	return nil
}

// controllerFor returns the per-domain, per-user controller, creating it on
// first use. Anonymous callers share the empty-user controller with
// favorites marking off. Construction happens outside the lock because the
// initial favorites load may block on the remote store; when two requests
// race the creation, the loser's controller is closed and discarded.
func (h *Handler) controllerFor(domain, userID string, gateway services.Gateway) *controller.Controller {
	key := domain + "|" + userID

	h.mu.Lock()
	if ctrl, ok := h.controllers[key]; ok {
		h.mu.Unlock()
		return ctrl
	}
	h.mu.Unlock()

	var favStore controller.FavoritesStore
	if userID != "" {
		favStore = h.favorites
	}
	ctrl := controller.New(gateway, favStore, userID, controller.WithLogger(h.services.Logger))

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.controllers[key]; ok {
		ctrl.Close()
		return existing
	}
	h.controllers[key] = ctrl
	return ctrl
}

func (h *Handler) handleSearch(c *gin.Context) {
	domain := c.Param("domain")
	gateway := h.gatewayFor(domain)
	if gateway == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain: " + domain})
		return
	}

	query := c.Query("query")
	filters := parseFilters(c)
	page := 1
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	ctrl := h.controllerFor(domain, c.GetHeader(userIDHeader), gateway)

	snap := ctrl.Snapshot()
	switch {
	case snap.Query != query || !filtersEqual(snap.Filters, filters):
		<-ctrl.Search(c.Request.Context(), query, filters)
		if page > 1 {
			<-ctrl.GoToPage(c.Request.Context(), page)
		}
	case snap.Page != page:
		<-ctrl.GoToPage(c.Request.Context(), page)
	default:
		<-ctrl.Refresh(c.Request.Context())
	}

	snap = ctrl.Snapshot()
	if snap.State == controller.StateFailed && len(snap.Items) == 0 {
		respondError(c, snap.Err)
		return
	}

	c.JSON(http.StatusOK, searchResponse(ctrl, snap))
}

// searchResponse projects controller state for the client, marking each
// item's favorite membership.
func searchResponse(ctrl *controller.Controller, snap controller.SearchState) gin.H {
	type markedItem struct {
		models.MediaItem
		Favorite bool `json:"favorite"`
	}

	items := make([]markedItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, markedItem{
			MediaItem: item,
			Favorite:  ctrl.IsFavorite(item.ID),
		})
	}

	resp := gin.H{
		"state":        snap.State.String(),
		"query":        snap.Query,
		"filters":      snap.Filters,
		"page":         snap.Page,
		"total":        snap.Total,
		"total_pages":  ctrl.TotalPages(),
		"has_more":     snap.HasMore,
		"page_numbers": ctrl.PageNumbers(),
		"items":        items,
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	return resp
}

func parseFilters(c *gin.Context) models.FilterSet {
	filters := models.FilterSet{
		Year:   c.Query("year"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}
	if raw := c.Query("genres"); raw != "" {
		filters.Genres = strings.Split(raw, ",")
	}
	return filters
}

func filtersEqual(a, b models.FilterSet) bool {
	if a.Year != b.Year || a.Status != b.Status || a.Sort != b.Sort {
		return false
	}
	if len(a.Genres) != len(b.Genres) {
		return false
	}
	for i := range a.Genres {
		if a.Genres[i] != b.Genres[i] {
			return false
		}
	}
	return true
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch errors.TypeOf(err) {
	case errors.ErrorTypeAuthRequired:
		status = http.StatusUnauthorized
	case errors.ErrorTypeProviderRateLimited:
		status = http.StatusTooManyRequests
	case errors.ErrorTypeStoreUnavailable:
		status = http.StatusServiceUnavailable
	case errors.ErrorTypeMalformedResponse, errors.ErrorTypeProviderUnavailable:
		status = http.StatusBadGateway
	}

	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	c.JSON(status, gin.H{"error": message, "type": errors.TypeOf(err)})
}
