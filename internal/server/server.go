// Package server contains the HTTP handlers and routing for the application.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"wanderlust/internal/bootstrap"
	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/featureflags"
	"wanderlust/internal/geocode"
	"wanderlust/internal/imaging"
	"wanderlust/internal/middleware"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	client         *mongo.Client
	db             *mongo.Database
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	campRepo    repository.CampgroundRepository
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository

	featureFlags *featureflags.Manager

	campgroundService *service.CampgroundService
	commentService    *service.CommentService
	reviewService     *service.ReviewService
	userService       *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, fmt.Errorf("runtime initialization failed: %w", err)
	}

	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderAPIKey)
	uploader := imaging.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)

	server := NewServerWithDeps(cfg, rt.DB, rt.Redis, geocoder, uploader)
	server.client = rt.Client
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes Mongo/Redis first.
func NewServerWithDeps(cfg *config.Config, db *mongo.Database, redisClient *redis.Client, geocoder geocode.Geocoder, uploader imaging.Uploader) *Server {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("wanderlust-api"),
		userRepo:       repository.NewUserRepository(db),
		campRepo:       repository.NewCampgroundRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.userService = service.NewUserService(server.userRepo)
	server.campgroundService = service.NewCampgroundService(
		server.campRepo, server.commentRepo, server.reviewRepo, server.userRepo,
		geocoder, uploader, server.isAdminByUserID)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.campRepo, server.userRepo, server.isAdminByUserID)
	server.reviewService = service.NewReviewService(
		server.reviewRepo, server.campRepo, server.userRepo,
		server.featureFlags, server.isAdminByUserID)

	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

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

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	app.Get("/login", s.LoginForm)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/signup", s.SignupForm)
	app.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Post("/logout", s.Logout)
	app.Post("/refresh", s.Refresh)

	campgrounds := app.Group("/campgrounds")

	// Public browse routes
	campgrounds.Get("/", s.ListCampgrounds)

	// Specific routes must precede the generic /:slug routes.
	campgrounds.Get("/new", s.AuthRequired(), s.NewCampgroundForm)
	campgrounds.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_campground"), s.CreateCampground)
	campgrounds.Get("/:slug/edit", s.AuthRequired(), s.EditCampgroundForm)
	campgrounds.Post("/:slug/like", s.AuthRequired(), s.ToggleLike)

	// Nested comment routes
	campgrounds.Get("/:slug/comments/new", s.AuthRequired(), s.NewCommentForm)
	campgrounds.Post("/:slug/comments", s.AuthRequired(), middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	campgrounds.Get("/:slug/comments/:id/edit", s.AuthRequired(), s.EditCommentForm)
	campgrounds.Put("/:slug/comments/:id", s.AuthRequired(), s.UpdateComment)
	campgrounds.Delete("/:slug/comments/:id", s.AuthRequired(), s.DeleteComment)

	// Nested review routes, behind the reviews feature flag
	reviews := campgrounds.Group("/:slug/reviews", s.AuthRequired(), s.ReviewsEnabled())
	reviews.Get("/new", s.NewReviewForm)
	reviews.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_review"), s.CreateReview)
	reviews.Get("/:id/edit", s.EditReviewForm)
	reviews.Put("/:id", s.UpdateReview)
	reviews.Delete("/:id", s.DeleteReview)

	// Generic slug routes last
	campgrounds.Get("/:slug", s.GetCampground)
	campgrounds.Put("/:slug", s.AuthRequired(), s.UpdateCampground)
	campgrounds.Delete("/:slug", s.AuthRequired(), s.DeleteCampground)

	// Current user
	app.Get("/users/me", s.AuthRequired(), s.GetMyProfile)

	// Admin routes
	admin := app.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.client == nil {
		dbStatus = "unavailable"
	} else if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// GetFeatureFlags handles GET /admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.featureFlags.Raw()})
}

// GetMyProfile handles GET /users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return redirectWithError(c, "/login", "You need to be logged in to do that")
	}
	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// ReviewsEnabled returns middleware gating the review routes behind the
// reviews feature flag. Must be placed after AuthRequired so that
// percentage rollouts bucket on the authenticated user's ID.
func (s *Server) ReviewsEnabled() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}
		if !s.reviewService.Enabled(userID) {
			return redirectWithError(c, backURL(c, "/campgrounds"), "Reviews are not available right now")
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users. Must be
// placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		admin, err := s.isAdminByUserID(c.Context(), userID)
		if err != nil || !admin {
			return redirectWithError(c, backURL(c, "/campgrounds"), "You don't have permission to do that")
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. A missing or invalid
// session sends the browser to the login page with a notice, before any
// mutation runs.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(tokenCookie)
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "wanderlust-api" {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "wanderlust-client" {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}
		if _, err := bson.ObjectIDFromHex(sub); err != nil {
			return redirectWithError(c, "/login", "You need to be logged in to do that")
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
			if err == nil && revoked > 0 {
				return redirectWithError(c, "/login", "Your session has expired, please log in again")
			}
		}

		c.Locals("userID", sub)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, sub)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Wanderlust",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

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

	if s.client != nil {
		if err := database.Disconnect(ctx, s.client); err != nil {
			log.Printf("error closing mongo client: %v", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
