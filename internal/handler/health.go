package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health returns the health-check endpoint used by load balancers and
// monitoring systems.  When ping is non-nil the store is probed too and a
// failure answers 503.
func Health(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping == nil {
			return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "store": "unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "store": "ok"})
	}
}
