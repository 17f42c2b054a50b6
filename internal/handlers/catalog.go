package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleGameDetails(c *gin.Context) {
	details, err := h.services.Games.GameDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) handleGameGenres(c *gin.Context) {
	genres, err := h.services.Games.Genres(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

func (h *Handler) handleUpcomingGames(c *gin.Context) {
	items, err := h.services.Upcoming.UpcomingGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) handleMovieDetails(c *gin.Context) {
	details, err := h.services.Movies.MovieDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// handleTrailer looks up the single best-match trailer video id for a title.
// A missing trailer is a 200 with an empty video_id, not an error.
func (h *Handler) handleTrailer(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	videoID, err := h.services.Trailers.FindTrailer(c.Request.Context(), title, c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_id": videoID})
}
