package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"shortly-live/internal/entities"
	"shortly-live/internal/metrics"
	"shortly-live/internal/repository"
)

// Visit is what is known about a redirect's client. Every field is best-effort.
type Visit struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// ClickOutcome reports what Record managed to store. Neither error is ever
// returned to the HTTP caller; the outcome exists so that choice is explicit.
type ClickOutcome struct {
	Counted      bool  // counter incremented
	Clicks       int64 // counter value after the increment
	IncrementErr error
	AppendErr    error // visit row not stored; the count still stands
}

// ClickRecorder accounts one visit to a URL
type ClickRecorder interface {
	Record(ctx context.Context, urlID string, visit Visit) ClickOutcome
}

type clickRecorder struct {
	urls   repository.URLRepository
	clicks repository.ClickRepository
}

func NewClickRecorder(urls repository.URLRepository, clicks repository.ClickRepository) ClickRecorder {
	return &clickRecorder{urls: urls, clicks: clicks}
}

// Record increments the counter first, then appends the visit. An append
// failure never undoes or blocks the increment.
func (r *clickRecorder) Record(ctx context.Context, urlID string, visit Visit) ClickOutcome {
	// The visitor may already be gone; the visit still counts.
	ctx = context.WithoutCancel(ctx)
	log := logrus.WithField("url_id", urlID)

	var outcome ClickOutcome
	clicks, err := r.urls.IncrementClicks(ctx, urlID)
	if err != nil {
		outcome.IncrementErr = err
		metrics.ClickRecords.WithLabelValues("increment_failed").Inc()
		log.WithError(err).Error("failed to increment clicks")
	} else {
		outcome.Counted = true
		outcome.Clicks = clicks
	}

	referrer := visit.Referrer
	if referrer == "" {
		referrer = entities.DirectReferrer
	}
	click := &entities.Click{
		URLID:     urlID,
		IPAddress: optional(visit.IPAddress),
		UserAgent: optional(visit.UserAgent),
		Referrer:  referrer,
	}
	if err := r.clicks.Insert(ctx, click); err != nil {
		outcome.AppendErr = err
		metrics.ClickRecords.WithLabelValues("append_failed").Inc()
		log.WithError(err).Warn("failed to log click")
	}

	if outcome.Counted && outcome.AppendErr == nil {
		metrics.ClickRecords.WithLabelValues("ok").Inc()
	}
	return outcome
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
