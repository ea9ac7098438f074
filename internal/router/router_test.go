package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/clock"
	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/repository/memory"
)

func TestRoutes(t *testing.T) {
	store := memory.New(memory.WithLockWait(time.Second))
	logger := zap.NewNop()
	calc := booking.NewCalculator(store, store, logger)
	coord := booking.NewCoordinator(store, calc, clock.NewSystem())

	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(account.NewService(store, "s", 5, bcrypt.MinCost), "k", logger), "s")
	RegisterTrains(e, handler.NewTrainHandler(booking.NewCatalog(store), calc, logger), "k",
		middleware.NewRedisCache(config.CacheConfig{}, nil))
	RegisterBookings(e, handler.NewBookingHandler(coord, booking.NewQueryService(store), logger), "s",
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil, logger))

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/v1/me", http.StatusUnauthorized},
		{http.MethodPost, "/v1/bookings", http.StatusUnauthorized},
		{http.MethodGet, "/v1/my-bookings", http.StatusUnauthorized},
		{http.MethodPost, "/v1/trains", http.StatusUnauthorized},
		{http.MethodGet, "/v1/trains/1", http.StatusNotFound},
		{http.MethodGet, "/v1/availability?source=a&destination=b", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
