package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// TrainHandler serves the train catalog and seat availability.
type TrainHandler struct {
	Catalog *booking.Catalog
	Calc    *booking.Calculator
	Logger  *zap.Logger
}

func NewTrainHandler(catalog *booking.Catalog, calc *booking.Calculator, logger *zap.Logger) *TrainHandler {
	return &TrainHandler{Catalog: catalog, Calc: calc, Logger: logger}
}

type createTrainReq struct {
	TrainNumber string `json:"train_number"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	TotalSeats  int    `json:"total_seats"`
}

// trainAvailability is a train flattened together with its free seats.
type trainAvailability struct {
	model.Train
	AvailableSeats int `json:"available_seats"`
}

func flatten(a model.Availability) trainAvailability {
	return trainAvailability{Train: a.Train, AvailableSeats: a.AvailableSeats}
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// CreateTrain handles POST /v1/trains (admin API key).
func (h *TrainHandler) CreateTrain(c echo.Context) error {
	var req createTrainReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Catalog.CreateTrain(c.Request().Context(), model.Train{
		Number:      req.TrainNumber,
		Source:      req.Source,
		Destination: req.Destination,
		TotalSeats:  req.TotalSeats,
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Train added successfully", "train": t})
}

// GetTrain handles GET /v1/trains/:id.
func (h *TrainHandler) GetTrain(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return writeError(c, h.Logger, booking.ErrNotFound)
	}
	t, err := h.Catalog.GetTrain(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"train": t})
}

// Availability handles GET /v1/trains/:id/availability.
func (h *TrainHandler) Availability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return writeError(c, h.Logger, booking.ErrNotFound)
	}
	a, err := h.Calc.Available(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, flatten(a))
}

type routeQuery struct {
	Source      string `json:"source" query:"source"`
	Destination string `json:"destination" query:"destination"`
}

// SearchAvailability handles POST /v1/availability with a JSON body and
// GET /v1/availability?source=&destination=.
func (h *TrainHandler) SearchAvailability(c echo.Context) error {
	var q routeQuery
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "invalid body")
	}
	q.Source, q.Destination = strings.TrimSpace(q.Source), strings.TrimSpace(q.Destination)
	if q.Source == "" || q.Destination == "" {
		return badRequest(c, "source and destination are required")
	}
	list, err := h.Calc.ByRoute(c.Request().Context(), q.Source, q.Destination)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	out := make([]trainAvailability, 0, len(list))
	for _, a := range list {
		out = append(out, flatten(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": out})
}
