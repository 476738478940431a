package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shortly-live/internal/cache"
	"shortly-live/internal/entities"
	"shortly-live/internal/live"
	"shortly-live/internal/repository"
	"shortly-live/internal/shortcode"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entities.User // by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entities.User)}
}

func (r *memUserRepo) Create(_ context.Context, email, hash string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := &entities.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	r.users[u.ID] = u
	return u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

// memURLRepo enforces short code uniqueness the way the database constraint does.
type memURLRepo struct {
	mu           sync.Mutex
	byID         map[string]*entities.URL
	byCode       map[string]*entities.URL
	seq          int
	incrementErr error
	// hideFromCheck makes ShortCodeExists lie, simulating a concurrent insert after the pre-check.
	hideFromCheck map[string]bool
}

func newMemURLRepo() *memURLRepo {
	return &memURLRepo{
		byID:          make(map[string]*entities.URL),
		byCode:        make(map[string]*entities.URL),
		hideFromCheck: make(map[string]bool),
	}
}

func (r *memURLRepo) Create(_ context.Context, userID, originalURL, code string) (*entities.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byCode[code]; taken {
		return nil, shortcode.ErrCollision
	}
	r.seq++
	u := &entities.URL{
		ID:          uuid.NewString(),
		UserID:      userID,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   time.Unix(int64(r.seq), 0),
	}
	r.byID[u.ID] = u
	r.byCode[code] = u
	return u, nil
}

// seed stores a record directly, bypassing validation.
func (r *memURLRepo) seed(userID, originalURL, code string) *entities.URL {
	u, err := r.Create(context.Background(), userID, originalURL, code)
	if err != nil {
		panic(err)
	}
	return u
}

func (r *memURLRepo) ShortCodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideFromCheck[code] {
		return false, nil
	}
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *memURLRepo) FindByShortCode(_ context.Context, code string) (*entities.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byCode[code]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memURLRepo) FindByIDForOwner(_ context.Context, id, ownerID string) (*entities.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok && u.UserID == ownerID {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memURLRepo) ListByOwner(_ context.Context, ownerID string) ([]*entities.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.URL, 0)
	for _, u := range r.byID {
		if u.UserID == ownerID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memURLRepo) DeleteForOwner(_ context.Context, id, ownerID string) (*entities.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byCode, u.ShortCode)
	return u, nil
}

func (r *memURLRepo) IncrementClicks(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return 0, r.incrementErr
	}
	u, ok := r.byID[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.Clicks++
	return u.Clicks, nil
}

type memClickRepo struct {
	mu        sync.Mutex
	clicks    []*entities.Click
	insertErr error
}

func (r *memClickRepo) Insert(_ context.Context, c *entities.Click) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.clicks = append(r.clicks, c)
	return nil
}

func (r *memClickRepo) forURL(urlID string) []*entities.Click {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Click
	for _, c := range r.clicks {
		if c.URLID == urlID {
			out = append(out, c)
		}
	}
	return out
}

func (r *memClickRepo) Summary(_ context.Context, urlID string, limit int) (*entities.ClickSummary, error) {
	clicks := r.forURL(urlID)
	ips := make(map[string]bool)
	refs := make(map[string]int64)
	for _, c := range clicks {
		if c.IPAddress != nil {
			ips[*c.IPAddress] = true
		}
		refs[c.Referrer]++
	}
	summary := &entities.ClickSummary{
		TotalClicks:    int64(len(clicks)),
		UniqueVisitors: int64(len(ips)),
		TopReferrers:   make([]entities.ReferrerCount, 0),
	}
	for ref, n := range refs {
		summary.TopReferrers = append(summary.TopReferrers, entities.ReferrerCount{Referrer: ref, Clicks: n})
	}
	sort.Slice(summary.TopReferrers, func(i, j int) bool {
		return summary.TopReferrers[i].Clicks > summary.TopReferrers[j].Clicks
	})
	if len(summary.TopReferrers) > limit {
		summary.TopReferrers = summary.TopReferrers[:limit]
	}
	return summary, nil
}

func (r *memClickRepo) Recent(_ context.Context, urlID string, limit int) ([]*entities.Click, error) {
	clicks := r.forURL(urlID)
	out := make([]*entities.Click, 0, limit)
	for i := len(clicks) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clicks[i])
	}
	return out, nil
}

func (r *memClickRepo) Timeline(_ context.Context, urlID string, hours int) ([]entities.TimeBucket, error) {
	width := repository.BucketWidth(hours)
	counts := make(map[time.Time]int64)
	for _, c := range r.forURL(urlID) {
		counts[c.CreatedAt.UTC().Truncate(width)]++
	}
	out := make([]entities.TimeBucket, 0, len(counts))
	for t, n := range counts {
		out = append(out, entities.TimeBucket{Time: t, Clicks: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// recordingBroadcaster remembers every publish.
type recordingBroadcaster struct {
	mu        sync.Mutex
	published []published
}

type published struct {
	ownerID string
	update  live.ClickUpdate
}

func (b *recordingBroadcaster) Publish(ownerID string, update live.ClickUpdate) live.PublishResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, published{ownerID: ownerID, update: update})
	return live.PublishResult{Delivered: 1}
}

func (b *recordingBroadcaster) all() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.published...)
}

// constGenerator always proposes the same code.
type constGenerator string

func (g constGenerator) Generate() string { return string(g) }

var errStorageDown = errors.New("storage unavailable")

// mapCache is an in-process cache.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (m *mapCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *mapCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data), ttl)
}

func (m *mapCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (m *mapCache) Ping(context.Context) error { return nil }
func (m *mapCache) Close() error               { return nil }
