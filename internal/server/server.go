// Package server contains the HTTP handlers and middleware wiring of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"encore/internal/cache"
	"encore/internal/config"
	"encore/internal/database"
	"encore/internal/events"
	"encore/internal/middleware"
	"encore/internal/models"
	"encore/internal/pagination"
	"encore/internal/repository"
	"encore/internal/service"
	"encore/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	publisher      events.Publisher
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limits         pagination.Limits

	mediaService   *service.MediaService
	overlayService *service.OverlayService
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	chatService    *service.ChatService
	socialService  *service.SocialService
	profileService *service.ProfileService
}

// NewServer connects every backing service named in cfg and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), time.Minute)
	defer cancelSchema()
	if err := database.ApplySchema(schemaCtx, db, cfg); err != nil {
		return nil, fmt.Errorf("schema apply failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx, cfg.MediaRegion); err != nil {
		middleware.Logger.Warn("object store bucket check failed", slog.String("error", err.Error()))
	}

	publisher, err := events.New(cfg, redisClient)
	if err != nil {
		return nil, fmt.Errorf("events init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store, publisher)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the connections.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore, publisher events.Publisher) (*Server, error) {
	if publisher == nil {
		publisher = events.Noop{}
	}

	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	graphRepo := repository.NewGraphRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		publisher:      publisher,
		promMiddleware: middleware.InitMetrics("encore-api"),
		limits:         pagination.Limits{Default: cfg.PageDefaultLimit, Max: cfg.PageMaxLimit},
	}
	if s.limits.Default <= 0 {
		s.limits.Default = pagination.DefaultLimits.Default
	}
	if s.limits.Max <= 0 {
		s.limits.Max = pagination.DefaultLimits.Max
	}

	s.mediaService = service.NewMediaService(repository.NewMediaRepository(db), store, publisher, cfg)
	s.overlayService = service.NewOverlayService(repository.NewInteractionRepository(db), postRepo, profileRepo)
	s.feedService = service.NewFeedService(postRepo, profileRepo, s.overlayService, store)
	s.postService = service.NewPostService(postRepo, s.mediaService, s.feedService, publisher)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db), postRepo, profileRepo, graphRepo)
	s.chatService = service.NewChatService(repository.NewChatRepository(db), profileRepo, graphRepo, publisher)
	s.socialService = service.NewSocialService(profileRepo, graphRepo)
	s.profileService = service.NewProfileService(profileRepo, graphRepo)

	s.app = s.newApp()
	return s, nil
}

// App returns the configured fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Encore API",
		ErrorHandler: errorHandler,
		BodyLimit:    1 << 20,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escaped a handler, including fiber's own
// routing errors, as problem objects.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return models.RespondWithError(c, models.NewNotFoundError("route", c.Path()))
		case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest:
			p := models.Problem{Title: fe.Message, Status: fe.Code, Code: models.CodeValidation}
			c.Status(fe.Code)
			return c.JSON(p, "application/problem+json")
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Public reads; the overlay is added when the caller is signed in.
	optional := s.OptionalAuth()
	api.Get("/feed", optional, s.GetFeed)
	api.Get("/profiles/:handle", optional, s.GetProfile)
	api.Get("/profiles/:handle/posts", optional, s.GetTimeline)
	api.Get("/posts/:id", optional, s.GetPost)
	api.Get("/posts/:id/comments", optional, s.ListComments)

	protected := api.Group("", s.AuthRequired())

	me := protected.Group("/me")
	me.Get("/profiles", s.ListMyProfiles)
	me.Put("/active-profile", s.SetActiveProfile)

	profiles := protected.Group("/profiles")
	profiles.Post("/:handle/follow", s.Follow)
	profiles.Delete("/:handle/follow", s.Unfollow)
	profiles.Post("/:handle/block", s.Block)
	profiles.Delete("/:handle/block", s.Unblock)

	media := protected.Group("/media")
	media.Post("/uploads", middleware.RateLimit(s.redis, 30, time.Minute, "media-uploads"), s.BeginUpload)
	media.Post("/:id/confirm", s.ConfirmUpload)
	media.Get("/:id", s.GetMediaAsset)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "posts"), s.CreatePost)
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/save", s.SavePost)
	posts.Delete("/:id/save", s.UnsavePost)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 30, time.Minute, "comments"), s.AddComment)

	conversations := protected.Group("/conversations")
	conversations.Get("/", s.ListConversations)
	conversations.Post("/", s.StartConversation)
	conversations.Get("/:id/messages", s.ListMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(s.redis, 60, time.Minute, "messages"), s.PostMessage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database is reachable. Redis is optional:
// the cache degrades to direct reads without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
