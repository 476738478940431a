package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"shortly-live/internal/entities"
)

// cachedURL holds only fields that never change after creation; click counts always come from Postgres.
type cachedURL struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// URLCache is the short-code lookup cache used on the redirect path.
// A nil *URLCache, or one without a backend, is a valid always-miss cache.
type URLCache struct {
	backend Cache
	ttl     time.Duration
}

func NewURLCache(backend Cache, ttl time.Duration) *URLCache {
	return &URLCache{backend: backend, ttl: ttl}
}

func urlKey(code string) string {
	return "url:" + code
}

// Lookup returns the cached record for code; ok is false on any miss or backend failure.
func (c *URLCache) Lookup(ctx context.Context, code string) (*entities.URL, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}

	var cached cachedURL
	if err := c.backend.GetJSON(ctx, urlKey(code), &cached); err != nil {
		if !errors.Is(err, ErrMiss) {
			logrus.WithError(err).WithField("short_code", code).Warn("url cache read failed")
		}
		return nil, false
	}

	return &entities.URL{
		ID:          cached.ID,
		UserID:      cached.UserID,
		OriginalURL: cached.OriginalURL,
		ShortCode:   code,
		CreatedAt:   cached.CreatedAt,
	}, true
}

// Store caches url under its short code; failures are logged and ignored.
func (c *URLCache) Store(ctx context.Context, url *entities.URL) {
	if c == nil || c.backend == nil {
		return
	}

	err := c.backend.SetJSON(ctx, urlKey(url.ShortCode), cachedURL{
		ID:          url.ID,
		UserID:      url.UserID,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	}, c.ttl)
	if err != nil {
		logrus.WithError(err).WithField("short_code", url.ShortCode).Warn("url cache write failed")
	}
}

// Invalidate drops the entry for code.
func (c *URLCache) Invalidate(ctx context.Context, code string) {
	if c == nil || c.backend == nil {
		return
	}
	if err := c.backend.Delete(ctx, urlKey(code)); err != nil {
		logrus.WithError(err).WithField("short_code", code).Warn("url cache invalidate failed")
	}
}

// Ping reports backend health; a cache without a backend reports nil.
func (c *URLCache) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Ping(ctx)
}

// Enabled reports whether a backend is configured.
func (c *URLCache) Enabled() bool {
	return c != nil && c.backend != nil
}
