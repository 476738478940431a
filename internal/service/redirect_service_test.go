package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortly-live/internal/apperr"
	"shortly-live/internal/entities"
	"shortly-live/internal/shortcode"
)

type redirectFixture struct {
	urls     *memURLRepo
	clicks   *memClickRepo
	notifier *recordingBroadcaster
	svc      RedirectService
}

func newRedirectFixture() *redirectFixture {
	f := &redirectFixture{
		urls:     newMemURLRepo(),
		clicks:   &memClickRepo{},
		notifier: &recordingBroadcaster{},
	}
	registry := newTestURLService(f.urls, f.clicks, shortcode.NewRandomGenerator(6))
	f.svc = NewRedirectService(registry, NewClickRecorder(f.urls, f.clicks), f.notifier)
	return f
}

func TestRedirect_RecordsAndBroadcasts(t *testing.T) {
	f := newRedirectFixture()
	url := f.urls.seed("owner-a", "https://example.org", "Ab12Cd")

	res, err := f.svc.Resolve(context.Background(), "Ab12Cd", Visit{IPAddress: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.org", res.Destination)
	assert.True(t, res.Click.Counted)
	assert.Equal(t, int64(1), res.Click.Clicks)

	pubs := f.notifier.all()
	require.Len(t, pubs, 1)
	assert.Equal(t, "owner-a", pubs[0].ownerID)
	assert.Equal(t, url.ID, pubs[0].update.URLID)
	assert.Equal(t, int64(1), pubs[0].update.Clicks)

	logged := f.clicks.forURL(url.ID)
	require.Len(t, logged, 1)
	assert.Equal(t, entities.DirectReferrer, logged[0].Referrer)
	assert.Equal(t, "10.0.0.1", *logged[0].IPAddress)
}

func TestRedirect_NormalizesDestination(t *testing.T) {
	f := newRedirectFixture()
	f.urls.seed("owner-a", "example.com/x", "NoScheme")
	f.urls.seed("owner-a", "https://example.com/x", "WithScheme")

	res, err := f.svc.Resolve(context.Background(), "NoScheme", Visit{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", res.Destination)

	res, err = f.svc.Resolve(context.Background(), "WithScheme", Visit{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", res.Destination)
}

func TestNormalizeDestination(t *testing.T) {
	tests := map[string]string{
		"example.com/x":            "https://example.com/x",
		"https://example.com/x":    "https://example.com/x",
		"http://example.com":       "http://example.com",
		"//cdn.example.com/a":      "https://cdn.example.com/a",
		"  example.com  ":          "https://example.com",
		"localhost:8080/dashboard": "https://localhost:8080/dashboard",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDestination(in), in)
	}
}

func TestRedirect_GuardAndMiss(t *testing.T) {
	f := newRedirectFixture()

	for _, code := range []string{"abc", "bad-code", "favicon.ico", "health", "api"} {
		_, err := f.svc.Resolve(context.Background(), code, Visit{})
		assert.ErrorIs(t, err, ErrNotShortCode, code)
	}

	_, err := f.svc.Resolve(context.Background(), "Missing1", Visit{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, f.notifier.all())
}

func TestRedirect_ConcurrentClicksAreNotLost(t *testing.T) {
	f := newRedirectFixture()
	url := f.urls.seed("owner-a", "https://example.org", "Hot123")
	url.Clicks = 5

	const m = 100
	var wg sync.WaitGroup
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Resolve(context.Background(), "Hot123", Visit{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.urls.FindByShortCode(context.Background(), "Hot123")
	require.NoError(t, err)
	assert.Equal(t, int64(5+m), stored.Clicks)

	seen := make(map[int64]bool)
	for _, p := range f.notifier.all() {
		assert.False(t, seen[p.update.Clicks], "each broadcast carries its own count")
		seen[p.update.Clicks] = true
	}
	assert.Len(t, seen, m)
}

func TestRedirect_AppendFailureStillCounts(t *testing.T) {
	f := newRedirectFixture()
	f.urls.seed("owner-a", "https://example.org", "Ab12Cd")
	f.clicks.insertErr = errStorageDown

	res, err := f.svc.Resolve(context.Background(), "Ab12Cd", Visit{})

	require.NoError(t, err)
	assert.True(t, res.Click.Counted)
	assert.ErrorIs(t, res.Click.AppendErr, errStorageDown)
	assert.Len(t, f.notifier.all(), 1)
}

func TestRedirect_IncrementFailureSkipsBroadcast(t *testing.T) {
	f := newRedirectFixture()
	f.urls.seed("owner-a", "https://example.org", "Ab12Cd")
	f.urls.incrementErr = errStorageDown

	res, err := f.svc.Resolve(context.Background(), "Ab12Cd", Visit{})

	require.NoError(t, err)
	assert.Equal(t, "https://example.org", res.Destination)
	assert.False(t, res.Click.Counted)
	assert.ErrorIs(t, res.Click.IncrementErr, errStorageDown)
	assert.Empty(t, f.notifier.all())
}
