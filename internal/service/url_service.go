package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/apperr"
	"shortly-live/internal/cache"
	"shortly-live/internal/entities"
	"shortly-live/internal/metrics"
	"shortly-live/internal/models"
	"shortly-live/internal/repository"
	"shortly-live/internal/shortcode"
)

const (
	topReferrersLimit = 10
	recentVisitsLimit = 10
	defaultHours      = 24
	maxHours          = 30 * 24
)

// URLService defines the interface for URL business logic
type URLService interface {
	Create(ctx context.Context, ownerID, originalURL string) (*models.URLResponse, error)
	GetByCode(ctx context.Context, code string) (*entities.URL, error)
	GetByID(ctx context.Context, id, ownerID string) (*models.URLResponse, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.URLResponse, error)
	Delete(ctx context.Context, id, ownerID string) error
	Analytics(ctx context.Context, id, ownerID string, hours int) (*models.AnalyticsResponse, error)
}

type urlService struct {
	repo     repository.URLRepository
	clicks   repository.ClickRepository
	resolver *shortcode.Resolver
	cache    *cache.URLCache
	baseURL  string
}

// NewURLService creates a new URL service. urlCache may be nil.
func NewURLService(
	repo repository.URLRepository,
	clicks repository.ClickRepository,
	resolver *shortcode.Resolver,
	urlCache *cache.URLCache,
	baseURL string,
) URLService {
	return &urlService{
		repo:     repo,
		clicks:   clicks,
		resolver: resolver,
		cache:    urlCache,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Create claims a unique code and stores the URL with zero clicks
func (s *urlService) Create(ctx context.Context, ownerID, originalURL string) (*models.URLResponse, error) {
	originalURL = strings.TrimSpace(originalURL)
	if !models.IsAbsoluteURL(originalURL) {
		return nil, apperr.Validation("originalUrl: invalid URL format")
	}

	var created *entities.URL
	alloc, err := s.resolver.Claim(ctx, func(ctx context.Context, code string) error {
		url, err := s.repo.Create(ctx, ownerID, originalURL, code)
		if err != nil {
			return err
		}
		created = url
		return nil
	})
	if errors.Is(err, shortcode.ErrRetriesExhausted) {
		logrus.WithField("owner_id", ownerID).Warn("short code budget exhausted")
		return nil, apperr.Conflict("Failed to generate unique short code")
	}
	if err != nil {
		return nil, apperr.Internal("failed to create URL", err)
	}
	metrics.CodeAttempts.Observe(float64(alloc.Attempts))

	s.cache.Store(ctx, created)

	return models.NewURLResponse(created, s.baseURL), nil
}

// GetByCode resolves a short code, cache first
func (s *urlService) GetByCode(ctx context.Context, code string) (*entities.URL, error) {
	if url, ok := s.cache.Lookup(ctx, code); ok {
		return url, nil
	}

	url, err := s.repo.FindByShortCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("URL")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find URL", err)
	}

	s.cache.Store(ctx, url)
	return url, nil
}

// GetByID returns the URL only to its owner; anyone else sees NotFound
func (s *urlService) GetByID(ctx context.Context, id, ownerID string) (*models.URLResponse, error) {
	url, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return models.NewURLResponse(url, s.baseURL), nil
}

// ListByOwner returns the owner's URLs, newest first
func (s *urlService) ListByOwner(ctx context.Context, ownerID string) ([]*models.URLResponse, error) {
	urls, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list URLs", err)
	}

	responses := make([]*models.URLResponse, len(urls))
	for i, url := range urls {
		responses[i] = models.NewURLResponse(url, s.baseURL)
	}
	return responses, nil
}

// Delete removes an owned URL and its cached lookup
func (s *urlService) Delete(ctx context.Context, id, ownerID string) error {
	if uuid.Validate(id) != nil {
		return apperr.NotFound("URL")
	}

	deleted, err := s.repo.DeleteForOwner(ctx, id, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("URL")
	}
	if err != nil {
		return apperr.Internal("failed to delete URL", err)
	}

	s.cache.Invalidate(ctx, deleted.ShortCode)
	return nil
}

// Analytics aggregates visits for an owned URL over the last hours
func (s *urlService) Analytics(ctx context.Context, id, ownerID string, hours int) (*models.AnalyticsResponse, error) {
	url, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if hours <= 0 {
		hours = defaultHours
	}
	hours = min(hours, maxHours)

	summary, err := s.clicks.Summary(ctx, url.ID, topReferrersLimit)
	if err != nil {
		return nil, apperr.Internal("failed to load analytics", err)
	}
	recent, err := s.clicks.Recent(ctx, url.ID, recentVisitsLimit)
	if err != nil {
		return nil, apperr.Internal("failed to load recent visits", err)
	}
	timeline, err := s.clicks.Timeline(ctx, url.ID, hours)
	if err != nil {
		return nil, apperr.Internal("failed to load click timeline", err)
	}

	return &models.AnalyticsResponse{
		ClickSummary: *summary,
		RecentVisits: recent,
		Timeline:     timeline,
	}, nil
}

func (s *urlService) findOwned(ctx context.Context, id, ownerID string) (*entities.URL, error) {
	if uuid.Validate(id) != nil {
		return nil, apperr.NotFound("URL")
	}

	url, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("URL")
	}
	if err != nil {
		return nil, apperr.Internal("failed to get URL", err)
	}
	return url, nil
}
