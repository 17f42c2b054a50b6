// Package models defines the normalized data structures shared across the
// application, plus the raw response shapes of each metadata provider.
package models

import "time"

// MediaItem is the normalized display shape every gateway client produces.
// The ID is provider-scoped and not unique across providers. Rating keeps
// the provider's native scale (RAWG 0-5, TMDB 0-10, AniList 0-100); the
// Provider field tells callers which scale applies.
type MediaItem struct {
	ID       string                 `json:"id"`
	Provider string                 `json:"provider"`
	Title    string                 `json:"title"`
	ImageURL string                 `json:"image_url,omitempty"`
	Rating   float64                `json:"rating,omitempty"`
	Year     int                    `json:"year,omitempty"`
	Genres   []string               `json:"genres,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// FilterSet is an immutable snapshot of user-selected search constraints.
// A new FilterSet replaces the previous one atomically.
type FilterSet struct {
	Genres []string `json:"genres,omitempty"`
	Year   string   `json:"year,omitempty"`
	Status string   `json:"status,omitempty"`
	Sort   string   `json:"sort,omitempty"`
}

// SearchResult is the normalized page a gateway client returns.
type SearchResult struct {
	Items   []MediaItem `json:"items"`
	Total   int         `json:"total"`
	HasMore bool        `json:"has_more"`
}

// FavoriteEntry is a denormalized MediaItem snapshot owned by the favorites
// store. It can go stale relative to the provider's current data.
type FavoriteEntry struct {
	UserID  string    `json:"user_id"`
	Item    MediaItem `json:"item"`
	AddedAt time.Time `json:"added_at"`
}

// GameDetails carries the full RAWG detail payload for one game plus its
// screenshots.
type GameDetails struct {
	Item        MediaItem   `json:"item"`
	Description string      `json:"description,omitempty"`
	Website     string      `json:"website,omitempty"`
	Released    string      `json:"released,omitempty"`
	Platforms   []string    `json:"platforms,omitempty"`
	Screenshots []string    `json:"screenshots,omitempty"`
}

// MovieDetails aggregates the TMDB detail endpoints for one movie.
type MovieDetails struct {
	Item            MediaItem   `json:"item"`
	Overview        string      `json:"overview,omitempty"`
	Runtime         int         `json:"runtime,omitempty"`
	ReleaseDate     string      `json:"release_date,omitempty"`
	BackdropURL     string      `json:"backdrop_url,omitempty"`
	Cast            []CastEntry `json:"cast,omitempty"`
	Videos          []Video     `json:"videos,omitempty"`
	Similar         []MediaItem `json:"similar,omitempty"`
	Recommendations []MediaItem `json:"recommendations,omitempty"`
}

// CastEntry is one cast credit on a movie.
type CastEntry struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// Video is one trailer/teaser attached to a movie.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Site string `json:"site,omitempty"`
	Type string `json:"type,omitempty"`
}

// Genre is a provider-defined genre tag.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
