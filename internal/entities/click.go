package entities

import "time"

// DirectReferrer is stored when a visit carries no Referer header.
const DirectReferrer = "direct"

// Click is one recorded visit to a short URL. Address and user agent are best-effort.
type Click struct {
	ID        string    `json:"id"`
	URLID     string    `json:"urlId"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
	Referrer  string    `json:"referrer"`
	CreatedAt time.Time `json:"timestamp"`
}

// ReferrerCount is one row of the top-referrers aggregate.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Clicks   int64  `json:"clicks"`
}

// ClickSummary aggregates every click recorded for a URL.
type ClickSummary struct {
	TotalClicks    int64           `json:"totalClicks"`
	UniqueVisitors int64           `json:"uniqueVisitors"`
	TopReferrers   []ReferrerCount `json:"topReferrers"`
}

// TimeBucket is the click count for one interval of the timeline.
type TimeBucket struct {
	Time   time.Time `json:"time"`
	Clicks int64     `json:"clicks"`
}
