package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jmoreiras/mediadex/internal/errors"
	"github.com/jmoreiras/mediadex/internal/models"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy is handled by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) handleGetFavorites(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		respondError(c, errors.NewAuthRequiredError("reading favorites"))
		return
	}

	entries, err := h.favorites.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": entries})
}

// toggleRequest is the body of POST /api/favorites/toggle.
type toggleRequest struct {
	Domain string           `json:"domain" binding:"required"`
	Item   models.MediaItem `json:"item" binding:"required"`
}

// handleToggleFavorite routes the toggle through the domain controller so
// the optimistic-update path is the same one the search surfaces use.
func (h *Handler) handleToggleFavorite(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		respondError(c, errors.NewAuthRequiredError("toggling a favorite"))
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid toggle request: " + err.Error()})
		return
	}

	gateway := h.gatewayFor(req.Domain)
	if gateway == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown domain: " + req.Domain})
		return
	}

	ctrl := h.controllerFor(req.Domain, userID, gateway)
	if err := ctrl.ToggleFavorite(c.Request.Context(), req.Item); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":  req.Item.ID,
		"favorite": ctrl.IsFavorite(req.Item.ID),
	})
}

// handleFavoritesSocket upgrades to a websocket and pushes the full
// favorites list after every confirmed change, keeping multiple open views
// consistent without polling.
func (h *Handler) handleFavoritesSocket(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		userID = c.Query("user")
	}
	if userID == "" {
		respondError(c, errors.NewAuthRequiredError("subscribing to favorites"))
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.services.Logger.Errorf("[Handlers] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan []models.FavoriteEntry, 8)
	cancel := h.favorites.Subscribe(userID, func(entries []models.FavoriteEntry) {
		select {
		case updates <- entries:
		default:
			// Slow consumer; it will catch up on the next change.
		}
	})
	defer cancel()

	// Send the current list immediately so the view starts consistent.
	if entries, err := h.favorites.Get(c.Request.Context(), userID); err == nil {
		if err := conn.WriteJSON(gin.H{"favorites": entries}); err != nil {
			return
		}
	}

	// Reader goroutine: the client never sends data, but reads surface
	// disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entries := <-updates:
			if err := conn.WriteJSON(gin.H{"favorites": entries}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
