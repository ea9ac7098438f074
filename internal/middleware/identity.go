package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// identity returns a stable string for the caller, used in rate limit
// keys.  Unauthenticated requests share the "guest" identity.
func identity(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
