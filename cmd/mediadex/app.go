package main

import (
	"github.com/jmoreiras/mediadex/internal/cache"
	"github.com/jmoreiras/mediadex/internal/config"
	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/database"
	"github.com/jmoreiras/mediadex/internal/favorites"
	"github.com/jmoreiras/mediadex/internal/handlers"
	"github.com/jmoreiras/mediadex/internal/services"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

var (
	Logger           logger.Logger
	Config           *config.Config
	DB               database.Database
	providerCache    *cache.LRUCache
	favoritesStore   *favorites.Store
	handler          *handlers.Handler
	serviceContainer *services.Container
)

func InitializeLogger() {
	Logger = logger.New()
}

func InitializeConfig() {
	var err error
	Config, err = config.Load()
	if err != nil {
		Logger.Fatalf("failed to load configuration: %v", err)
	}
}

func InitializeDatabase() {
	var err error
	DB, err = database.NewBolt(Config.DatabasePath)
	if err != nil {
		Logger.Fatalf("failed to initialize database: %v", err)
	}

	Logger.Infof("[App] favorites snapshot database initialized")
}

func InitializeServices() {
	providerCache = cache.New(Config.CacheSize, Config.CacheTTL)

	rawgService := services.NewRAWG(Config.RAWGAPIKey, providerCache)
	tmdbService := services.NewTMDB(Config.TMDBAPIKey, providerCache)
	anilistService := services.NewAniList(Config.AniListURL, "ANIME", providerCache)
	youtubeService := services.NewYouTube(Config.YouTubeAPIKey, providerCache)
	igdbService := services.NewIGDB(Config.TwitchClientID, Config.TwitchClientSecret, providerCache)

	// The remote favorites document store is optional; without it the
	// snapshot database is the only backing.
	var remote favorites.RemoteStore
	if Config.FavoritesURL != "" {
		remote = favorites.NewHTTPStore(Config.FavoritesURL)
	}
	favoritesStore = favorites.NewStore(remote, DB, Logger)

	serviceContainer = &services.Container{
		Games:    rawgService,
		Movies:   tmdbService,
		Anime:    anilistService,
		Trailers: youtubeService,
		Upcoming: igdbService,
		Cache:    providerCache,
		DB:       DB,
		Logger:   Logger,
	}

	handler = handlers.New(serviceContainer, favoritesStore)

	Logger.Infof("[App] %s %s services initialized", constants.AppName, constants.AppVersion)
}
