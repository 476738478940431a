// Package router assembles the HTTP surface: middleware chain, rate limits and routes.
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"shortly-live/internal/config"
	"shortly-live/internal/controllers"
	"shortly-live/internal/jwt"
	"shortly-live/internal/live"
	"shortly-live/internal/middleware"
	"shortly-live/internal/models"
	"shortly-live/internal/service"
)

const maxBodyBytes = 10 << 10

// Deps are the services the routes are served by.
type Deps struct {
	Config    *config.Config
	Auth      service.AuthService
	URLs      service.URLService
	Redirects service.RedirectService
	Hub       *live.Hub
	Tokens    *jwt.JWTService
	DB        controllers.Pinger
	Cache     controllers.Pinger // optional
}

// Router is the configured engine plus the limiters it owns.
type Router struct {
	*gin.Engine
	limiters []*middleware.RateLimiter
}

// Stop releases the rate limiters' background cleanup.
func (r *Router) Stop() {
	for _, rl := range r.limiters {
		rl.Stop()
	}
}

func New(deps Deps) (*Router, error) {
	cfg := deps.Config

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := models.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	r := &Router{Engine: engine}
	limiter := func(rps float64, burst int) gin.HandlerFunc {
		rl := middleware.NewRateLimiter(rate.Limit(rps), burst)
		r.limiters = append(r.limiters, rl)
		return rl.LimitMiddleware()
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.ErrorHandler(cfg.Environment),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.SecurityHeaders(),
		middleware.BodyLimit(maxBodyBytes),
	)
	engine.NoRoute(middleware.NotFound)

	authController := controllers.NewAuthController(deps.Auth)
	shortenerController := controllers.NewShortenerController(deps.URLs, deps.Redirects)
	qrcodeController := controllers.NewQRCodeController(deps.URLs)
	liveController := controllers.NewLiveController(deps.Hub, cfg.CORSOrigins)
	healthController := controllers.NewHealthController(deps.DB, deps.Cache)

	requireAuth := middleware.AuthMiddleware(deps.Tokens, false)

	// Health and metrics endpoints (no rate limiting)
	engine.GET("/health", healthController.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/ws", middleware.AuthMiddleware(deps.Tokens, true), liveController.Connect)

	engine.GET("/:shortCode", limiter(cfg.RateLimitRedirectRPS, cfg.RateLimitRedirectBurst), shortenerController.RedirectToURL)

	api := engine.Group("/api")
	api.Use(limiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		auth := api.Group("/auth")
		auth.Use(limiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst))
		{
			auth.POST("/signup", authController.Signup)
			auth.POST("/login", authController.Login)
			auth.POST("/refresh", authController.Refresh)
			auth.GET("/profile", requireAuth, authController.Profile)
		}

		urls := api.Group("/urls")
		urls.Use(requireAuth)
		{
			urls.POST("", limiter(cfg.RateLimitShortenRPS, cfg.RateLimitShortenBurst), shortenerController.CreateShortURL)
			urls.GET("/list/all", shortenerController.GetUserURLs)
			urls.GET("/detail/:id", shortenerController.GetURL)
			urls.DELETE("/detail/:id", shortenerController.DeleteURL)
			urls.GET("/analytics/:id", shortenerController.GetClickAnalytics)
			urls.GET("/qrcode/:id", qrcodeController.GenerateQRCode)
		}
	}

	return r, nil
}
