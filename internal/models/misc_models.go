// Package models defines data structures for the YouTube and IGDB APIs.
package models

// YouTubeSearchResponse is the subset of the search endpoint response the
// trailer lookup needs.
type YouTubeSearchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// TwitchTokenResponse is the OAuth2 client-credentials grant response.
type TwitchTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// IGDBGame is one entry of the IGDB /games response.
type IGDBGame struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Summary      string  `json:"summary"`
	Rating       float64 `json:"rating"`
	FirstRelease int64   `json:"first_release_date"`
	Cover        int     `json:"cover"`
	URL          string  `json:"url"`
}
