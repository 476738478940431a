package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"shortly-live/internal/entities"
	"shortly-live/internal/live"
	"shortly-live/internal/metrics"
	"shortly-live/internal/shortcode"
)

// ErrNotShortCode marks a path segment that is not shaped like a short code,
// so the request belongs to whatever else would handle the path.
var ErrNotShortCode = errors.New("not a short code")

// Broadcaster delivers click updates to an owner's live connections
type Broadcaster interface {
	Publish(ownerID string, update live.ClickUpdate) live.PublishResult
}

// Resolution is a successful redirect plus what happened to its side effects.
type Resolution struct {
	Destination string
	URL         *entities.URL
	Click       ClickOutcome
	Broadcast   live.PublishResult
}

// RedirectService turns a short code into a destination, recording and announcing the visit
type RedirectService interface {
	Resolve(ctx context.Context, code string, visit Visit) (*Resolution, error)
}

type redirectService struct {
	urls     URLService
	recorder ClickRecorder
	notifier Broadcaster
	now      func() time.Time
}

func NewRedirectService(urls URLService, recorder ClickRecorder, notifier Broadcaster) RedirectService {
	return &redirectService{
		urls:     urls,
		recorder: recorder,
		notifier: notifier,
		now:      time.Now,
	}
}

// Resolve runs guard, lookup, record, notify. Only the guard and lookup can fail.
func (s *redirectService) Resolve(ctx context.Context, code string, visit Visit) (*Resolution, error) {
	if shortcode.IsReserved(code) || !shortcode.Valid(code) {
		return nil, ErrNotShortCode
	}

	record, err := s.urls.GetByCode(ctx, code)
	if err != nil {
		metrics.Redirects.WithLabelValues("not_found").Inc()
		return nil, err
	}

	res := &Resolution{
		Destination: NormalizeDestination(record.OriginalURL),
		URL:         record,
		Click:       s.recorder.Record(ctx, record.ID, visit),
	}

	// Only a counted click carries a count worth announcing.
	if res.Click.Counted {
		res.Broadcast = s.notifier.Publish(record.UserID, live.ClickUpdate{
			URLID:     record.ID,
			Clicks:    res.Click.Clicks,
			Timestamp: s.now().UTC(),
		})
		s.observeBroadcast(record, res.Broadcast)
	}

	metrics.Redirects.WithLabelValues("redirected").Inc()
	return res, nil
}

func (s *redirectService) observeBroadcast(record *entities.URL, result live.PublishResult) {
	metrics.BroadcastMessages.WithLabelValues("delivered").Add(float64(result.Delivered))
	metrics.BroadcastMessages.WithLabelValues("dropped").Add(float64(result.Dropped))
	if result.Err != nil || result.Dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"url_id":   record.ID,
			"owner_id": record.UserID,
			"dropped":  result.Dropped,
		}).WithError(result.Err).Debug("click update not fully delivered")
	}
}

// NormalizeDestination prefixes https:// when the stored URL has no scheme.
func NormalizeDestination(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return raw
	}
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}
