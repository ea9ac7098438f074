package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
)

// IdempotencyHeader lets clients retry a booking request safely.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKey = 128

// BookingHandler serves the authenticated booking endpoints.  The owner of
// every booking is the subject of the access token; request bodies never
// name a user.
type BookingHandler struct {
	Coord  *booking.Coordinator
	Query  *booking.QueryService
	Logger *zap.Logger
}

func NewBookingHandler(coord *booking.Coordinator, query *booking.QueryService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Coord: coord, Query: query, Logger: logger}
}

type createBookingReq struct {
	TrainID    uint64 `json:"train_id"`
	SeatNumber int    `json:"seat_number"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, apiError{Error: "unauthorized", Message: "unauthorized"})
}

// Create handles POST /v1/bookings.  A new booking answers 201; a retry
// carrying the same Idempotency-Key answers 200 with the original booking.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKey {
		return badRequest(c, "Idempotency-Key is too long")
	}

	res, err := h.Coord.Reserve(c.Request().Context(), booking.ReserveInput{
		UserID:         userID,
		TrainID:        req.TrainID,
		SeatNumber:     req.SeatNumber,
		IdempotencyKey: key,
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, echo.Map{"message": "Booking successful", "booking": res.Booking})
}

// Get handles GET /v1/bookings/:id.  Bookings of other users answer 404.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return writeError(c, h.Logger, booking.ErrNotFound)
	}
	d, err := h.Query.GetBooking(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": d})
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Query.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}
