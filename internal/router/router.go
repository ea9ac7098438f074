package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check; ping
// probes the configured store and may be nil.
func RegisterRoutes(e *echo.Echo, ping func(ctx context.Context) error) {
	// Used by load balancers and monitoring systems.
	e.GET("/healthz", handler.Health(ping))
}

// RegisterAuth registers all authentication-related routes.  Register and
// login live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCustomer))
	auth.GET("/me", a.Me)
}

// RegisterTrains registers the catalog and availability endpoints.  Reads
// are public; creating a train requires the administrator API key.  cache
// wraps the single-train read only, since availability must never be
// served stale.
func RegisterTrains(e *echo.Echo, h *handler.TrainHandler, adminKey string, cache echo.MiddlewareFunc) {
	e.POST("/v1/trains", h.CreateTrain, middleware.RequireAPIKey(adminKey))
	e.GET("/v1/trains/:id", h.GetTrain, cache)
	e.GET("/v1/trains/:id/availability", h.Availability)

	// Route search accepts either a JSON body or query parameters.
	e.POST("/v1/availability", h.SearchAvailability)
	e.GET("/v1/availability", h.SearchAvailability)
}
