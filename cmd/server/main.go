package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nearby/backend/internal/geo"
	"github.com/anonto42/nearby/backend/internal/geocode"
	"github.com/anonto42/nearby/backend/internal/handlers"
	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/posts"
	"github.com/anonto42/nearby/backend/internal/router"
	"github.com/anonto42/nearby/backend/pkg/config"
	"github.com/anonto42/nearby/backend/pkg/firebase"
	"github.com/anonto42/nearby/backend/pkg/logging"
	"github.com/anonto42/nearby/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)
	log := logger.WithField("service", "nearby")

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Geo index
	var index geo.Index
	switch cfg.GeoIndexBackend {
	case "redis":
		if db.Redis == nil {
			log.Fatal("GEO_INDEX_BACKEND=redis requires REDIS_URL")
		}
		index = geo.NewRedisIndex(db.Redis, cfg.GeoIndexKey)
	case "memory":
		index = geo.NewGridIndex()
	default:
		log.WithField("backend", cfg.GeoIndexBackend).Fatal("Unknown GEO_INDEX_BACKEND")
	}
	log.WithField("backend", cfg.GeoIndexBackend).Info("Geo index configured")

	// Reverse geocoder
	geocoder := geocode.NewCache(geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:    cfg.GeocoderURL,
		UserAgent:  cfg.GeocoderUserAgent,
		Timeout:    cfg.GeocoderTimeout,
		MaxRetries: cfg.GeocoderRetries,
		Logger:     log.WithField("component", "geocoder"),
	}), cfg.GeocoderCacheTTL, 0)

	// Firebase when credentials are configured; JWT otherwise
	ctx := context.Background()
	authClient, err := firebase.InitAuthClient(ctx, cfg.FirebaseCredentialsPath, cfg.JWTSecret, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize authentication")
	}

	reindexer := posts.NewReindexer(posts.ReindexerConfig{
		Index:       index,
		Logger:      log.WithField("component", "reindexer"),
		Metrics:     m,
		Interval:    cfg.ReindexInterval,
		MaxAttempts: cfg.ReindexMaxAttempts,
	})

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	// Setup global middleware
	config.SetupMiddleware(e, log)

	// Setup routes and dependencies
	postService, err := router.SetupRoutes(e, router.Options{
		Config:     cfg,
		DB:         db,
		Index:      index,
		Geocoder:   geocoder,
		Metrics:    m,
		Logger:     log,
		Queue:      reindexer,
		AuthClient: authClient,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to set up routes")
	}

	if _, ok := index.(*geo.GridIndex); ok {
		start := time.Now()
		n, err := postService.Warm(ctx, index)
		if err != nil {
			log.WithError(err).Fatal("Failed to load posts into the geo index")
		}
		log.WithField("posts", n).WithField("took", time.Since(start).String()).Info("Geo index warmed")
	}

	reindexer.Start()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics server shutdown failed")
	}
	reindexer.Stop()
}
