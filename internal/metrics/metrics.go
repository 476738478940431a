// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shortly_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	Redirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_redirects_total",
		Help: "Short-code lookups by outcome (redirected, not_found).",
	}, []string{"outcome"})

	ClickRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_click_records_total",
		Help: "Click recording results (ok, increment_failed, append_failed).",
	}, []string{"result"})

	CodeAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shortly_short_code_attempts",
		Help:    "Candidates tried per successful short-code allocation.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	BroadcastMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_broadcast_messages_total",
		Help: "Live click updates by delivery result (delivered, dropped).",
	}, []string{"result"})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shortly_live_connections",
		Help: "Open live-update connections.",
	})
)
