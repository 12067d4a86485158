package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"punkdir/internal/config"
	"punkdir/internal/db"
	"punkdir/internal/email"
	"punkdir/internal/handlers"
	"punkdir/internal/handlers/api"
	"punkdir/internal/middleware"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB, bootstrap *config.BootstrapConfig, notifier *email.Notifier) error {
	authMiddleware := middleware.NewAuthMiddleware(s.SessionStore, database)

	editsHandler := api.NewEditsHandler(database, notifier)
	usersHandler := api.NewUsersHandler(database)
	submissionsHandler := api.NewSubmissionsHandler(database)
	healthHandler := api.NewHealthHandler(database)

	// Auth routes - OIDC is required for all write access
	if s.Cfg.OIDCIssuer == "" {
		log.Fatal("OIDC_ISSUER is required. All users must be authenticated.")
	}

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, bootstrap, database)
	if err != nil {
		return err
	}

	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Edit suggestion workflow
	s.App.Post("/api/edits", authMiddleware.RequireAuth, editsHandler.Submit)
	s.App.Get("/api/edits", authMiddleware.RequireAuth, editsHandler.List)
	s.App.Post("/api/edits/:id/review", authMiddleware.RequireAuth, editsHandler.Review)

	// Account administration
	s.App.Get("/api/users", authMiddleware.RequireAuth, usersHandler.List)
	s.App.Post("/api/users/:id/tier", authMiddleware.RequireAuth, usersHandler.UpdateTier)
	s.App.Delete("/api/users/:id", authMiddleware.RequireAuth, usersHandler.Delete)

	// Current user
	s.App.Get("/api/me", authMiddleware.RequireAuth, submissionsHandler.Me)
	s.App.Get("/api/submissions", authMiddleware.RequireAuth, submissionsHandler.List)

	// Operational endpoints
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return nil
}
