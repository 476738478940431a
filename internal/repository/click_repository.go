package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shortly-live/internal/entities"
)

// ClickRepository stores the append-only visit log
type ClickRepository interface {
	Insert(ctx context.Context, click *entities.Click) error
	Summary(ctx context.Context, urlID string, topReferrers int) (*entities.ClickSummary, error)
	Recent(ctx context.Context, urlID string, limit int) ([]*entities.Click, error)
	Timeline(ctx context.Context, urlID string, hours int) ([]entities.TimeBucket, error)
}

type clickRepository struct {
	db      *sql.DB
	timeout queryTimeout
}

func NewClickRepository(db *sql.DB, timeout time.Duration) ClickRepository {
	return &clickRepository{db: db, timeout: queryTimeout(timeout)}
}

// Insert appends a click; empty address and user agent are stored as NULL
func (r *clickRepository) Insert(ctx context.Context, click *entities.Click) error {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	referrer := click.Referrer
	if referrer == "" {
		referrer = entities.DirectReferrer
	}

	var ip, ua *string
	if click.IPAddress != nil {
		ip = nullable(*click.IPAddress)
	}
	if click.UserAgent != nil {
		ua = nullable(*click.UserAgent)
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO clicks (url_id, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, click.URLID, ip, ua, referrer).Scan(&click.ID, &click.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log click: %w", err)
	}

	click.IPAddress, click.UserAgent, click.Referrer = ip, ua, referrer
	return nil
}

// Summary counts every click, distinct addresses, and the busiest referrers
func (r *clickRepository) Summary(ctx context.Context, urlID string, topReferrers int) (*entities.ClickSummary, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	summary := &entities.ClickSummary{TopReferrers: make([]entities.ReferrerCount, 0)}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT ip_address)
		FROM clicks
		WHERE url_id = $1
	`, urlID).Scan(&summary.TotalClicks, &summary.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT referrer, COUNT(*) AS click_count
		FROM clicks
		WHERE url_id = $1
		GROUP BY referrer
		ORDER BY click_count DESC, referrer ASC
		LIMIT $2
	`, urlID, topReferrers)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc entities.ReferrerCount
		if err := rows.Scan(&rc.Referrer, &rc.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan referrer: %w", err)
		}
		summary.TopReferrers = append(summary.TopReferrers, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referrers: %w", err)
	}

	return summary, nil
}

// Recent returns the latest visits, newest first
func (r *clickRepository) Recent(ctx context.Context, urlID string, limit int) ([]*entities.Click, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url_id, ip_address, user_agent, referrer, created_at
		FROM clicks
		WHERE url_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, urlID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent visits: %w", err)
	}
	defer rows.Close()

	visits := make([]*entities.Click, 0, limit)
	for rows.Next() {
		var c entities.Click
		if err := rows.Scan(&c.ID, &c.URLID, &c.IPAddress, &c.UserAgent, &c.Referrer, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}

	return visits, nil
}

// BucketWidth picks the timeline resolution for a window of hours.
func BucketWidth(hours int) time.Duration {
	switch {
	case hours <= 6:
		return 10 * time.Minute
	case hours <= 12:
		return 30 * time.Minute
	case hours <= 24:
		return time.Hour
	case hours <= 72: // 3 days
		return 6 * time.Hour
	default: // 7 days, 14 days, 30 days
		return 24 * time.Hour
	}
}

// Timeline groups clicks from the last hours into fixed-width UTC buckets
func (r *clickRepository) Timeline(ctx context.Context, urlID string, hours int) ([]entities.TimeBucket, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	width := BucketWidth(hours)
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			date_bin(make_interval(secs => $2), created_at, TIMESTAMPTZ '2000-01-01 00:00:00+00') AS time_bucket,
			COUNT(*) AS click_count
		FROM clicks
		WHERE url_id = $1
		AND created_at >= NOW() - make_interval(hours => $3)
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, urlID, width.Seconds(), hours)
	if err != nil {
		return nil, fmt.Errorf("failed to get click timeline: %w", err)
	}
	defer rows.Close()

	buckets := make([]entities.TimeBucket, 0)
	for rows.Next() {
		var b entities.TimeBucket
		if err := rows.Scan(&b.Time, &b.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan timeline: %w", err)
		}
		b.Time = b.Time.UTC()
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline: %w", err)
	}

	return buckets, nil
}
