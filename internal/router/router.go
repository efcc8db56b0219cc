package router

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nearby/backend/internal/feed"
	"github.com/anonto42/nearby/backend/internal/geo"
	"github.com/anonto42/nearby/backend/internal/geocode"
	"github.com/anonto42/nearby/backend/internal/handlers"
	"github.com/anonto42/nearby/backend/internal/location"
	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/middleware"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/posts"
	"github.com/anonto42/nearby/backend/internal/reactions"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"github.com/anonto42/nearby/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options carries everything SetupRoutes wires together.
type Options struct {
	Config   *config.Config
	DB       *config.DB
	Index    geo.Index
	Geocoder geocode.Geocoder
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger
	// Queue receives posts whose geo index insert failed.
	Queue posts.Queue
	// AuthClient switches authentication from JWT to Firebase ID tokens when set.
	AuthClient *auth.Client
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB, logger logrus.FieldLogger) error {
	if err := db.AutoMigrate(&models.User{}, &models.Reaction{}, &models.Comment{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("PostgreSQL auto-migrations completed for all models.")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the post service so the caller can warm an in-process index.
func SetupRoutes(e *echo.Echo, opts Options) (*posts.Service, error) {
	cfg, log := opts.Config, opts.Logger

	if err := Migrate(opts.DB.Postgres, log); err != nil {
		return nil, err
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(opts.DB.Postgres)
	reactionRepo := repositories.NewPostgresReactionRepository(opts.DB.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(opts.DB.Postgres)
	postRepo := repositories.NewMongoPostRepository(opts.DB.Mongo.Database(cfg.MongoDatabase))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure post indexes: %w", err)
	}

	// --- Core services ---
	gate := location.NewGate(userRepo, cfg.LocationUpdateInterval, log.WithField("component", "location"), opts.Metrics)
	assembler := feed.NewAssembler(feed.Deps{
		Posts:     postRepo,
		Users:     userRepo,
		Reactions: reactionRepo,
		Comments:  commentRepo,
		Index:     opts.Index,
		Gate:      gate,
		Geocoder:  opts.Geocoder,
	}, cfg.DiscoveryRadiusKm, log.WithField("component", "feed"), opts.Metrics)
	machine := reactions.NewMachine(reactionRepo, log.WithField("component", "reactions"),
		reactions.WithMaxAttempts(cfg.ReactionMaxAttempts),
		reactions.WithMetrics(opts.Metrics),
	)
	postService := posts.NewService(postRepo, userRepo, commentRepo, opts.Index, opts.Queue, posts.Limits{
		MaxContentChars: cfg.MaxContentChars,
		MaxMediaItems:   cfg.MaxMediaItems,
	}, log.WithField("component", "posts"))

	// Health check - always accessible
	checks := map[string]handlers.Check{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := opts.DB.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"mongo": func(ctx context.Context) error { return opts.DB.Mongo.Ping(ctx, nil) },
	}
	if opts.DB.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return opts.DB.Redis.Ping(ctx).Err() }
	}
	e.GET("/health", handlers.NewHealthHandler(checks).HealthCheck)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if opts.AuthClient != nil {
		api.Use(middleware.FirebaseAuthMiddleware(opts.AuthClient, userRepo))
		log.Info("Firebase authentication middleware applied to /api/v1 group.")
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		log.Info("JWT authentication middleware applied to /api/v1 group.")
	}

	handlers.NewFeedHandler(assembler).RegisterFeedRoutes(api)
	log.Info("Feed routes configured.")

	handlers.NewPostHandler(postService, assembler).RegisterPostRoutes(api)
	log.Info("Post routes configured.")

	handlers.NewReactionHandler(machine, postRepo).RegisterReactionRoutes(api)
	log.Info("Reaction routes configured.")

	log.Info("All routes configured.")
	return postService, nil
}
