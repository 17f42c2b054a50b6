// Package config provides configuration management for the application.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmoreiras/mediadex/internal/constants"
)

const (
	// Default configuration file name
	defaultConfigFile = "config.json"
	// Default database path
	defaultDatabasePath = "./favorites.db"
)

// Config holds the application configuration.
// It supports loading from environment variables and JSON files.
type Config struct {
	// Provider API keys
	RAWGAPIKey         string `json:"RAWG_API_KEY"`
	TMDBAPIKey         string `json:"TMDB_API_KEY"`
	YouTubeAPIKey      string `json:"YOUTUBE_API_KEY"`
	TwitchClientID     string `json:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string `json:"TWITCH_CLIENT_SECRET"`

	// AniList endpoint, overridable to point at the CORS relay
	AniListURL string `json:"ANILIST_URL"`

	// Favorites store endpoint (Firestore-style REST document root).
	// Empty means local-only operation backed by the snapshot database.
	FavoritesURL string `json:"FAVORITES_URL"`

	// Storage settings
	DatabasePath string        `json:"DATABASE_PATH"`
	CacheSize    int           `json:"CACHE_SIZE"`
	CacheTTL     time.Duration `json:"CACHE_TTL"`
}

// Load reads configuration from environment variables and optional JSON file.
// Environment variables take precedence over file values.
// Returns an error if the configuration is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		CacheSize:    constants.DefaultCacheSize,
		CacheTTL:     time.Duration(constants.DefaultCacheTTL) * time.Hour,
		DatabasePath: defaultDatabasePath,
		AniListURL:   constants.AniListGraphQLURL,
	}

	// Load from config file if exists
	configFile := getEnvOrDefault("CONFIG_FILE", defaultConfigFile)
	if err := cfg.loadFromFile(configFile); err != nil {
		// Ignore file not found errors
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Environment variables win over file values
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	setFromEnv(&c.RAWGAPIKey, "RAWG_API_KEY")
	setFromEnv(&c.TMDBAPIKey, "TMDB_API_KEY")
	setFromEnv(&c.YouTubeAPIKey, "YOUTUBE_API_KEY")
	setFromEnv(&c.TwitchClientID, "TWITCH_CLIENT_ID")
	setFromEnv(&c.TwitchClientSecret, "TWITCH_CLIENT_SECRET")
	setFromEnv(&c.AniListURL, "ANILIST_URL")
	setFromEnv(&c.FavoritesURL, "FAVORITES_URL")
	setFromEnv(&c.DatabasePath, "DATABASE_PATH")
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

// Validate checks if the configuration is valid.
// Sets default values for missing optional fields.
func (c *Config) Validate() error {
	// API keys are optional per provider; gateways report a configuration
	// error at call time when their key is missing.
	if c.AniListURL == "" {
		c.AniListURL = constants.AniListGraphQLURL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = constants.DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Duration(constants.DefaultCacheTTL) * time.Hour
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
