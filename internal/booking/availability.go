package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// Calculator derives the remaining seats of a train from the registry and
// the ledger.  Called with a plain context it is a point-in-time read;
// called with the coordinator's transaction context it reads under the
// train hold, so the result is exactly what the following insert commits
// against.
type Calculator struct {
	registry Registry
	ledger   Ledger
	logger   *zap.Logger
}

// NewCalculator builds a Calculator.  A nil logger disables the
// consistency alarm output.
func NewCalculator(registry Registry, ledger Ledger, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{registry: registry, ledger: ledger, logger: logger}
}

// Available returns the train summary and its free seats.
func (c *Calculator) Available(ctx context.Context, trainID uint64) (model.Availability, error) {
	t, err := c.registry.GetTrain(ctx, trainID)
	if err != nil {
		return model.Availability{}, err
	}
	n, err := c.remaining(ctx, t)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{Train: t, AvailableSeats: clamp(n)}, nil
}

// ByRoute lists every train running from source to destination together
// with its free seats.  An unknown route yields an empty slice.
func (c *Calculator) ByRoute(ctx context.Context, source, destination string) ([]model.Availability, error) {
	trains, err := c.registry.FindByRoute(ctx, source, destination)
	if err != nil {
		return nil, err
	}
	out := make([]model.Availability, 0, len(trains))
	for _, t := range trains {
		n, err := c.remaining(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Availability{Train: t, AvailableSeats: clamp(n)})
	}
	return out, nil
}

// remaining returns capacity minus granted seats without clamping.  A
// negative value means the capacity invariant was already broken
// upstream; it is reported at error level every time it is seen.
func (c *Calculator) remaining(ctx context.Context, t model.Train) (int, error) {
	taken, err := c.ledger.CountByTrain(ctx, t.ID)
	if err != nil {
		return 0, fmt.Errorf("count bookings for train %d: %w", t.ID, err)
	}
	n := t.TotalSeats - taken
	if n < 0 {
		c.logger.Error("capacity invariant violated",
			zap.Uint64("train_id", t.ID),
			zap.Int("total_seats", t.TotalSeats),
			zap.Int("booked", taken))
	}
	return n, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
