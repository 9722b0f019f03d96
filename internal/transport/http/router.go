package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/jwt-auth/internal/repository"
	"github.com/ErlanBelekov/jwt-auth/internal/token"
	"github.com/ErlanBelekov/jwt-auth/internal/transport/http/handler"
	"github.com/ErlanBelekov/jwt-auth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, healthHandler *handler.HealthHandler, issuer *token.Issuer, users repository.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	// Request bodies carry passwords and are never logged.
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		Filters:          []sloggin.Filter{sloggin.IgnorePath("/api/health")},
	}))
	r.Use(middleware.Metrics())

	api := r.Group("/api")
	api.GET("/health", healthHandler.Health)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	// Protected routes
	api.GET("/me", middleware.Auth(issuer), middleware.CurrentUser(users, logger), authHandler.Me)

	return r
}
