package entities

import "time"

// URL represents a shortened URL entity in the database
type URL struct {
	ID          string    `json:"id"` // UUID
	UserID      string    `json:"userId"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
}
