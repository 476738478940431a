package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is reported on /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthController struct {
	db    Pinger
	cache Pinger // nil when no cache is configured
	start time.Time
}

func NewHealthController(db, cache Pinger) *HealthController {
	return &HealthController{db: db, cache: cache, start: time.Now()}
}

// Health handles GET /health. The database is required; the cache is optional
// and only reported.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	database := "connected"
	if err := hc.db.PingContext(ctx); err != nil {
		status, code = "error", http.StatusServiceUnavailable
		database = "disconnected"
	}

	cache := "disabled"
	if hc.cache != nil {
		cache = "connected"
		if err := hc.cache.PingContext(ctx); err != nil {
			cache = "disconnected"
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  database,
		"cache":     cache,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(hc.start).Round(time.Second).String(),
	})
}
