package models

import (
	"time"

	"shortly-live/internal/entities"
)

// URLResponse is a shortened URL as returned to its owner
type URLResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
	ShortURL    string    `json:"shortUrl"` // base URL + short code
}

// NewURLResponse converts an entity, deriving the short URL from baseURL.
func NewURLResponse(url *entities.URL, baseURL string) *URLResponse {
	return &URLResponse{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		Clicks:      url.Clicks,
		CreatedAt:   url.CreatedAt,
		ShortURL:    baseURL + "/" + url.ShortCode,
	}
}

// AnalyticsResponse aggregates a URL's recorded visits
type AnalyticsResponse struct {
	entities.ClickSummary
	RecentVisits []*entities.Click     `json:"recentVisits"`
	Timeline     []entities.TimeBucket `json:"timeline"`
}
