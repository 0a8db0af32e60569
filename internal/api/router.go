package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidstream/account-service/internal/api/handler"
	"github.com/vidstream/account-service/internal/api/middleware"
	"github.com/vidstream/account-service/internal/core/ports"
	"github.com/vidstream/account-service/internal/core/service"
	"github.com/vidstream/account-service/internal/core/token"
	mongodb "github.com/vidstream/account-service/internal/infrastructure/db/mongo"
	redisdb "github.com/vidstream/account-service/internal/infrastructure/db/redis"
	"github.com/vidstream/account-service/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router needs to assemble the API.
type Dependencies struct {
	DB       *mongo.Database
	Redis    *redis.Client
	Tokens   *token.Manager
	Uploader ports.MediaUploader
	Audit    ports.AuditRecorder
	Cookies  handler.CookieConfig
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("account"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(deps.DB)
	sessions := service.NewSessionService(userRepo, deps.Tokens, deps.Logger)
	sessionHandler := handler.NewSessionHandler(sessions, deps.Uploader, deps.Audit, deps.Cookies)
	jokeHandler := handler.NewJokeHandler(redisdb.NewJokeCache(deps.Redis), deps.Logger)
	authRequired := middleware.Auth(deps.Tokens)

	// --- Session routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", sessionHandler.Register)
	users.POST("/login", sessionHandler.Login)
	users.POST("/refresh-token", sessionHandler.Refresh)
	users.POST("/logout", sessionHandler.Logout, authRequired)
	users.POST("/change-password", sessionHandler.ChangePassword, authRequired)
	users.GET("/me", sessionHandler.Me, authRequired)
	users.PATCH("/me", sessionHandler.UpdateMe, authRequired)

	// --- Misc content ---
	e.GET("/api/jokes", jokeHandler.List)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
