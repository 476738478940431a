package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortly-live/internal/entities"
	"shortly-live/internal/testutil"
)

// memoryCache is an in-process Cache for unit tests.
type memoryCache struct {
	mu      sync.Mutex
	data    map[string]string
	failing error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return "", m.failing
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data), ttl)
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (m *memoryCache) Ping(context.Context) error { return m.failing }
func (m *memoryCache) Close() error               { return nil }

func sampleURL() *entities.URL {
	return &entities.URL{
		ID:          "3f1c2a8e-0000-4000-8000-000000000001",
		UserID:      "owner-1",
		OriginalURL: "https://example.org",
		ShortCode:   "Ab12Cd",
		Clicks:      42,
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestURLCache_StoreLookupInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewURLCache(newMemoryCache(), time.Hour)

	_, ok := c.Lookup(ctx, "Ab12Cd")
	assert.False(t, ok)

	c.Store(ctx, sampleURL())

	got, ok := c.Lookup(ctx, "Ab12Cd")
	require.True(t, ok)
	assert.Equal(t, "owner-1", got.UserID)
	assert.Equal(t, "https://example.org", got.OriginalURL)
	assert.Zero(t, got.Clicks, "click counts are never served from cache")

	c.Invalidate(ctx, "Ab12Cd")
	_, ok = c.Lookup(ctx, "Ab12Cd")
	assert.False(t, ok)
}

func TestURLCache_BackendFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryCache()
	c := NewURLCache(backend, time.Hour)
	c.Store(ctx, sampleURL())

	backend.failing = errors.New("connection reset")

	_, ok := c.Lookup(ctx, "Ab12Cd")
	assert.False(t, ok)
	assert.Error(t, c.Ping(ctx))
}

func TestURLCache_Disabled(t *testing.T) {
	ctx := context.Background()
	var nilCache *URLCache
	noBackend := NewURLCache(nil, time.Hour)

	for _, c := range []*URLCache{nilCache, noBackend} {
		assert.False(t, c.Enabled())
		c.Store(ctx, sampleURL())
		c.Invalidate(ctx, "Ab12Cd")
		_, ok := c.Lookup(ctx, "Ab12Cd")
		assert.False(t, ok)
		assert.NoError(t, c.Ping(ctx))
	}
}

func TestRedisCache_Integration(t *testing.T) {
	addr := testutil.StartRedis(t)
	ctx := context.Background()

	backend, err := NewRedisCache(addr)
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	c := NewURLCache(backend, time.Minute)
	c.Store(ctx, sampleURL())

	got, ok := c.Lookup(ctx, "Ab12Cd")
	require.True(t, ok)
	assert.Equal(t, sampleURL().CreatedAt, got.CreatedAt)

	c.Invalidate(ctx, "Ab12Cd")
	_, ok = c.Lookup(ctx, "Ab12Cd")
	assert.False(t, ok)
}
