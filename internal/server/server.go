// Package server contains the HTTP handlers for the HeartBridge API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"heartbridge/internal/ai"
	"heartbridge/internal/auth"
	"heartbridge/internal/bootstrap"
	"heartbridge/internal/config"
	"heartbridge/internal/featureflags"
	"heartbridge/internal/middleware"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/repository"
	"heartbridge/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenIssuer
	featureFlags   *featureflags.Manager
	moderation     *service.ModerationGate

	articleService  *service.ArticleService
	commentService  *service.CommentService
	favoriteService *service.FavoriteService
	profileService  *service.ProfileService
	authService     *service.AuthService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, fmt.Errorf("runtime initialization failed: %w", err)
	}
	return NewServerWithDeps(cfg, rt)
}

// NewServerWithDeps creates a Server over an already-initialized runtime.
// Tests use it with an in-memory store.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	if rt == nil || rt.Store == nil || rt.Auth == nil {
		return nil, errors.New("runtime needs a store and an auth backend")
	}

	userRepo := repository.NewUserRepository(rt.Store)
	articleRepo := repository.NewArticleRepository(rt.Store)
	commentRepo := repository.NewCommentRepository(rt.Store)
	favoriteRepo := repository.NewFavoriteRepository(rt.Store)

	// Events are published only when Redis is available
	var events notifications.Publisher
	if rt.Redis != nil {
		events = notifications.NewNotifier(rt.Redis)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	gate := service.NewModerationGate(ai.NewMockModerator(), flags)
	tokens := rt.TokenIssuer()

	return &Server{
		config:          cfg,
		runtime:         rt,
		promMiddleware:  middleware.InitMetrics("heartbridge-api"),
		tokens:          tokens,
		featureFlags:    flags,
		moderation:      gate,
		articleService:  service.NewArticleService(articleRepo, commentRepo, favoriteRepo, userRepo, gate, events),
		commentService:  service.NewCommentService(commentRepo, articleRepo, userRepo, gate, ai.MockSummarizer{}, flags, events),
		favoriteService: service.NewFavoriteService(favoriteRepo, articleRepo, events),
		profileService:  service.NewProfileService(userRepo, rt.Redis, events),
		authService:     service.NewAuthService(rt.Auth, tokens, userRepo),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	rdb := s.runtime.Redis
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(rdb, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(rdb, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/idp", middleware.RateLimit(rdb, 10, 5*time.Minute, "login"), s.LoginWithIDToken)
	auth.Post("/logout", authRequired, s.Logout)

	api.Get("/feature-flags", optionalAuth, s.GetFeatureFlags)
	api.Post("/moderation/check", authRequired,
		middleware.RateLimit(rdb, 30, time.Minute, "moderation_check"), s.CheckModeration)

	// Public article routes
	articles := api.Group("/articles")
	articles.Get("/", s.GetArticles)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	articles.Get("/:id/comments/summary", authRequired, s.GetCommentSummary)
	articles.Get("/:id/comments", s.GetComments)
	articles.Get("/:id", s.GetArticle)

	// Protected article routes
	articles.Post("/", authRequired,
		middleware.RateLimit(rdb, 5, 5*time.Minute, "create_article"), s.CreateArticle)
	articles.Post("/:id/like", authRequired, s.LikeArticle)
	articles.Post("/:id/favorite", authRequired, s.AddFavorite)
	articles.Delete("/:id/favorite", authRequired, s.RemoveFavorite)
	articles.Post("/:id/comments", authRequired,
		middleware.RateLimit(rdb, 10, time.Minute, "create_comment"), s.CreateComment)
	articles.Put("/:id", authRequired, s.UpdateArticle)
	articles.Delete("/:id", authRequired, s.DeleteArticle)

	comments := api.Group("/comments", authRequired)
	comments.Post("/:id/like", s.LikeComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	// Current member routes
	me := api.Group("/users/me", authRequired)
	me.Get("/", s.GetMyProfile)
	me.Put("/profile", s.CompleteMyProfile)
	me.Get("/theme", s.GetMyTheme)
	me.Put("/theme", s.SetMyTheme)
	me.Get("/articles", s.GetMyArticles)
	me.Get("/comments", s.GetMyComments)
	me.Get("/favorites", s.GetMyFavorites)

	// Live events; the token may also come as ?token= on the upgrade request
	api.Get("/ws", authRequired, RequireWebSocket, s.EventStream())
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether dependencies are reachable. Redis is optional, so
// only an unreachable configured Redis fails the check.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeErr, redisErr := s.runtime.Ping(ctx)

	storeStatus := "healthy"
	if storeErr != nil {
		storeStatus = "unhealthy"
	}
	redisStatus := "healthy"
	switch {
	case s.runtime.Redis == nil:
		redisStatus = "unavailable"
	case redisErr != nil:
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "HeartBridge API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.runtime.Close(); err != nil {
		log.Printf("error closing runtime: %v", err)
	}

	log.Println("Server shutdown complete")
	return nil
}
