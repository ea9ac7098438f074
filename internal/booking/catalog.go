package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// Catalog is the write path for trains used by the admin API.  The
// booking core itself only ever reads trains.
type Catalog struct {
	registry Registry
}

// NewCatalog returns a Catalog over the registry.
func NewCatalog(registry Registry) *Catalog {
	return &Catalog{registry: registry}
}

// CreateTrain validates and stores a new train.  Surrounding whitespace is
// trimmed from the text fields.
func (c *Catalog) CreateTrain(ctx context.Context, t model.Train) (model.Train, error) {
	t.Number = strings.TrimSpace(t.Number)
	t.Source = strings.TrimSpace(t.Source)
	t.Destination = strings.TrimSpace(t.Destination)
	switch {
	case t.Number == "":
		return model.Train{}, fmt.Errorf("%w: train_number is required", ErrInvalidTrain)
	case t.Source == "" || t.Destination == "":
		return model.Train{}, fmt.Errorf("%w: source and destination are required", ErrInvalidTrain)
	case t.TotalSeats <= 0 || t.TotalSeats > MaxSeatNumber:
		return model.Train{}, fmt.Errorf("%w: total_seats must be between 1 and %d", ErrInvalidTrain, MaxSeatNumber)
	}
	t.ID = 0
	if err := c.registry.CreateTrain(ctx, &t); err != nil {
		return model.Train{}, err
	}
	return t, nil
}

// GetTrain returns a single train.
func (c *Catalog) GetTrain(ctx context.Context, id uint64) (model.Train, error) {
	if id == 0 {
		return model.Train{}, ErrNotFound
	}
	return c.registry.GetTrain(ctx, id)
}
