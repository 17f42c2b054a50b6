// Package models defines data structures for TMDB API responses.
package models

type TMDBMovie struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	GenreIDs      []int   `json:"genre_ids"`
	Popularity    float64 `json:"popularity"`
}

type TMDBMovieResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TMDBMovieDetails struct {
	ID          int         `json:"id"`
	IMDBId      string      `json:"imdb_id"`
	Title       string      `json:"title"`
	Overview    string      `json:"overview"`
	PosterPath  string      `json:"poster_path"`
	BackdropPath string     `json:"backdrop_path"`
	ReleaseDate string      `json:"release_date"`
	Runtime     int         `json:"runtime"`
	VoteAverage float64     `json:"vote_average"`
	VoteCount   int         `json:"vote_count"`
	Popularity  float64     `json:"popularity"`
	Genres      []TMDBGenre `json:"genres"`
}

type TMDBCreditsResponse struct {
	Cast []struct {
		Name      string `json:"name"`
		Character string `json:"character"`
		Order     int    `json:"order"`
	} `json:"cast"`
}

type TMDBVideosResponse struct {
	Results []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}
