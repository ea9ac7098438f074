package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// RegisterBookings registers the booking endpoints under /v1.  All routes
// require a valid JWT; the token subject owns every booking created or
// read here.  limit throttles booking creation per user and route.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCustomer),
	)
	g.POST("/bookings", h.Create, limit)
	g.GET("/bookings/:id", h.Get)
	g.GET("/my-bookings", h.ListMine)
}
