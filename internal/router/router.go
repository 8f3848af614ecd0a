package router

import (
	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/handlers"
	"github.com/anonto42/snapgram/backend/internal/middleware"
	"github.com/anonto42/snapgram/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies are the wired services the routes need
type Dependencies struct {
	Backend  *backend.Backend
	Sessions middleware.SessionParser
	Forms    *services.PostFormService
	Logger   *zap.Logger
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	requireSession := middleware.JWTAuthMiddleware(deps.Sessions)

	// --- Public routes ---
	public := e.Group("/api/v1")
	fileHandler := handlers.NewFileHandler(deps.Backend, logger.Named("files"))
	fileHandler.RegisterFileRoutes(public)

	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(deps.Backend)
	authHandler.RegisterAuthRoutes(authGroup, requireSession)

	// --- Protected routes (require a session and its user profile) ---
	api := e.Group("/api/v1", requireSession, middleware.CurrentUserMiddleware(deps.Backend))

	handlers.NewUserHandler().RegisterProfileRoutes(api)
	handlers.NewFeedHandler(deps.Backend).RegisterFeedRoutes(api)
	handlers.NewPostHandler(deps.Backend, deps.Forms).RegisterPostRoutes(api)
	handlers.NewLikeHandler(deps.Backend).RegisterLikeRoutes(api)
	handlers.NewSavedPostHandler(deps.Backend).RegisterSavedPostRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
}
