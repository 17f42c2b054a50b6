// Package models defines data structures for the AniList GraphQL API.
package models

// AniListRequest is the GraphQL request envelope.
type AniListRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// AniListResponse is the GraphQL response envelope.
type AniListResponse struct {
	Data   *AniListData   `json:"data"`
	Errors []AniListError `json:"errors,omitempty"`
}

type AniListError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type AniListData struct {
	Page AniListPage `json:"Page"`
}

type AniListPage struct {
	PageInfo AniListPageInfo `json:"pageInfo"`
	Media    []AniListMedia  `json:"media"`
}

type AniListPageInfo struct {
	Total       int  `json:"total"`
	CurrentPage int  `json:"currentPage"`
	LastPage    int  `json:"lastPage"`
	HasNextPage bool `json:"hasNextPage"`
	PerPage     int  `json:"perPage"`
}

type AniListMedia struct {
	ID    int `json:"id"`
	Title struct {
		English string `json:"english"`
		Romaji  string `json:"romaji"`
		Native  string `json:"native"`
	} `json:"title"`
	CoverImage struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"coverImage"`
	BannerImage  string   `json:"bannerImage"`
	Description  string   `json:"description"`
	Episodes     int      `json:"episodes"`
	Status       string   `json:"status"`
	SeasonYear   int      `json:"seasonYear"`
	AverageScore int      `json:"averageScore"`
	Genres       []string `json:"genres"`
	StartDate    struct {
		Year int `json:"year"`
	} `json:"startDate"`
	Trailer *struct {
		ID   string `json:"id"`
		Site string `json:"site"`
	} `json:"trailer"`
	Studios struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
	SiteURL string `json:"siteUrl"`
}
