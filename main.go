package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"shortly-live/internal/cache"
	"shortly-live/internal/config"
	"shortly-live/internal/controllers"
	"shortly-live/internal/database"
	"shortly-live/internal/jwt"
	"shortly-live/internal/live"
	"shortly-live/internal/repository"
	"shortly-live/internal/router"
	"shortly-live/internal/service"
	"shortly-live/internal/shortcode"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
		PingRetries:     5,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis is optional; without it every lookup goes to Postgres
	var cacheBackend cache.Cache
	if cfg.RedisURL != "" {
		cacheBackend, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("Failed to connect to Redis. Continuing without cache.")
			cacheBackend = nil
		} else {
			logrus.Info("Connected to Redis cache")
			defer cacheBackend.Close()
		}
	}
	urlCache := cache.NewURLCache(cacheBackend, cfg.CacheTTL)

	// Repositories
	userRepo := repository.NewUserRepository(db, cfg.DBQueryTimeout)
	urlRepo := repository.NewURLRepository(db, cfg.DBQueryTimeout)
	clickRepo := repository.NewClickRepository(db, cfg.DBQueryTimeout)

	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// Services
	resolver := shortcode.NewResolver(
		shortcode.NewRandomGenerator(cfg.ShortCodeLength),
		urlRepo,
		shortcode.DefaultMaxAttempts,
	)
	hub := live.NewHub()
	urlService := service.NewURLService(urlRepo, clickRepo, resolver, urlCache, cfg.BaseURL)
	authService := service.NewAuthService(userRepo, jwtService, bcrypt.DefaultCost)
	redirectService := service.NewRedirectService(urlService, service.NewClickRecorder(urlRepo, clickRepo), hub)

	deps := router.Deps{
		Config:    cfg,
		Auth:      authService,
		URLs:      urlService,
		Redirects: redirectService,
		Hub:       hub,
		Tokens:    jwtService,
		DB:        db,
	}
	if urlCache.Enabled() {
		deps.Cache = controllers.PingFunc(urlCache.Ping)
	}
	r, err := router.New(deps)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build router")
	}
	defer r.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"base_url": cfg.BaseURL,
			"env":      cfg.Environment,
		}).Info("Server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	case <-ctx.Done():
		logrus.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown; closing the hub ends them.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server stopped")
}

func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}
