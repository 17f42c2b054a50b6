// Package constants defines application-wide constants and default values.
package constants

const (
	// Application metadata
	AppName    = "mediadex"
	AppVersion = "1.0.0"

	// Default configuration values
	DefaultPort      = "5000"
	DefaultRelayPort = "3001"
	DefaultLogLevel  = "info"

	// Cache settings
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 24 // hours

	// Rate limiting (requests per second, burst capacity)
	RAWGRateLimit    = 5
	RAWGRateBurst    = 5
	TMDBRateLimit    = 20
	TMDBRateBurst    = 5
	AniListRateLimit = 2
	AniListRateBurst = 3
	YouTubeRateLimit = 5
	YouTubeRateBurst = 2
	IGDBRateLimit    = 4
	IGDBRateBurst    = 4

	// Page sizes per provider
	GamesPageSize  = 20
	MoviesPageSize = 20
	AnimePageSize  = 50

	// Pagination button budget for the page-number strip
	MaxPageButtons = 5

	// Quiet period for free-text query debouncing, in milliseconds
	DebounceQuietMs = 300

	// HTTP client timeout in seconds
	HTTPTimeout = 10

	// Favorites remote poll interval in seconds
	FavoritesPollInterval = 30
)

// Provider base URLs. The AniList endpoint is overridable through
// configuration so requests can be routed through the CORS relay.
const (
	RAWGBaseURL       = "https://api.rawg.io/api"
	TMDBBaseURL       = "https://api.themoviedb.org/3"
	TMDBImageBaseURL  = "https://image.tmdb.org/t/p"
	AniListGraphQLURL = "https://graphql.anilist.co"
	YouTubeSearchURL  = "https://www.googleapis.com/youtube/v3/search"
	IGDBBaseURL       = "https://api.igdb.com/v4"
	TwitchTokenURL    = "https://id.twitch.tv/oauth2/token"
)

// Domain names for the three browsing surfaces.
const (
	DomainGames  = "games"
	DomainMovies = "movies"
	DomainAnime  = "anime"
)

// TMDB movie sort keys accepted by the movies gateway.
var TMDBSortKeys = []string{
	"popularity.desc",
	"release_date.desc",
	"vote_average.desc",
	"original_title.asc",
}

// AniList media sort keys accepted by the anime gateway.
var AniListSortKeys = []string{
	"POPULARITY_DESC",
	"SCORE_DESC",
	"TRENDING_DESC",
	"START_DATE_DESC",
	"TITLE_ROMAJI",
}

// RAWG ordering presets used by the games browse endpoints.
const (
	RAWGOrderingPopular     = "-added"
	RAWGOrderingTopRated    = "-rating"
	RAWGOrderingNewReleases = "-released"
	RAWGOrderingUpcoming    = "released"
)
