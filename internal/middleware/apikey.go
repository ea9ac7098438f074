package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader carries the administrator key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose X-API-Key header does not match
// key.  The comparison runs in constant time.  An empty key locks the
// route entirely.
func RequireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ValidAPIKey(key, c.Request().Header.Get(APIKeyHeader)) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid api key"})
			}
			return next(c)
		}
	}
}

// ValidAPIKey reports whether got matches the configured key.
func ValidAPIKey(key, got string) bool {
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(got)) == 1
}
