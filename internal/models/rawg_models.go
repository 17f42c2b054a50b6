// Package models defines data structures for RAWG API responses.
package models

type RAWGGame struct {
	ID              int     `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	RatingTop       int     `json:"rating_top"`
	Metacritic      int     `json:"metacritic"`
	Added           int     `json:"added"`
	Genres          []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"platform"`
	} `json:"platforms"`
}

type RAWGGamesResponse struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []RAWGGame `json:"results"`
}

type RAWGGameDetails struct {
	RAWGGame
	DescriptionRaw string `json:"description_raw"`
	Website        string `json:"website"`
}

type RAWGScreenshot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

type RAWGScreenshotsResponse struct {
	Count   int              `json:"count"`
	Results []RAWGScreenshot `json:"results"`
}

type RAWGGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RAWGGenresResponse struct {
	Count   int         `json:"count"`
	Results []RAWGGenre `json:"results"`
}
