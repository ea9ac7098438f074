package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

// apiError is the body of every non-2xx response.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorKind struct {
	target  error
	status  int
	code    string
	message string
}

// errorKinds maps domain errors to stable codes.  Order matters: the
// first match wins.
var errorKinds = []errorKind{
	{booking.ErrNotFound, http.StatusNotFound, "not_found", "resource not found"},
	{booking.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded", "no seats available"},
	{booking.ErrSeatTaken, http.StatusConflict, "seat_taken", "seat already booked"},
	{booking.ErrIdempotencyConflict, http.StatusConflict, "idempotency_conflict", "idempotency key was used for a different booking"},
	{booking.ErrInvalidSeat, http.StatusBadRequest, "invalid_seat", "seat_number must be between 1 and 2147483647"},
	{booking.ErrInvalidTrain, http.StatusBadRequest, "invalid_train", ""},
	{booking.ErrTrainExists, http.StatusConflict, "train_exists", "train number already exists"},
	{booking.ErrConflictRetryable, http.StatusServiceUnavailable, "conflict_retry", "train is busy, retry shortly"},
	{booking.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "storage temporarily unavailable"},
	{account.ErrUserExists, http.StatusConflict, "user_exists", "username already exists"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid username or password"},
	{account.ErrPasswordTooLong, http.StatusBadRequest, "password_too_long", "password must be at most 72 bytes"},
	{account.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "username and password are required"},
}

// writeError renders err.  Unknown errors become a 500 and are logged;
// their text never reaches the client.
func writeError(c echo.Context, logger *zap.Logger, err error) error {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		msg := k.message
		if msg == "" {
			msg = err.Error()
		}
		if k.status == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", "1")
		}
		return c.JSON(k.status, apiError{Error: k.code, Message: msg})
	}
	logger.Error("unhandled error",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, apiError{Error: "internal_error", Message: "internal server error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, apiError{Error: "bad_request", Message: msg})
}
