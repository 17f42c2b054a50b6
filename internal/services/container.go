// Package services provides dependency injection container for application services.
package services

import (
	"context"

	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/database"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

// Gateway is the contract every metadata provider client implements.
// Search never returns provider-raw shapes; one attempt per call, errors
// are terminal for that request.
type Gateway interface {
	// Search returns one normalized result page. Empty query means browse
	// with the default sort; page is 1-based.
	Search(ctx context.Context, query string, page int, filters models.FilterSet) (*models.SearchResult, error)
	// PageSize is the fixed page size of this provider
	PageSize() int
	// Name identifies the provider in logs and item records
	Name() string
}

// GamesService is the extended surface of the games gateway.
type GamesService interface {
	Gateway
	GameDetails(ctx context.Context, gameID string) (*models.GameDetails, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	NewReleases(ctx context.Context, page int) (*models.SearchResult, error)
	Upcoming(ctx context.Context, page int) (*models.SearchResult, error)
	Popular(ctx context.Context, page int) (*models.SearchResult, error)
	TopRated(ctx context.Context, page int) (*models.SearchResult, error)
}

// MoviesService is the extended surface of the movies gateway.
type MoviesService interface {
	Gateway
	MovieDetails(ctx context.Context, movieID string) (*models.MovieDetails, error)
}

// TrailerService looks up at most one best-match trailer video id.
type TrailerService interface {
	FindTrailer(ctx context.Context, title, mediaType string) (string, error)
}

// UpcomingService lists upcoming game releases from IGDB.
type UpcomingService interface {
	UpcomingGames(ctx context.Context) ([]models.MediaItem, error)
}

// Container holds all application services for dependency injection.
type Container struct {
	Games    GamesService
	Movies   MoviesService
	Anime    Gateway
	Trailers TrailerService
	Upcoming UpcomingService
	Cache    *cache.LRUCache
	DB       database.Database
	Logger   logger.Logger
}
