package booking

import (
	"context"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// QueryService is the read path for bookings.  It never locks and only
// ever sees committed bookings.
type QueryService struct {
	ledger Ledger
}

// NewQueryService returns a QueryService over the ledger.
func NewQueryService(ledger Ledger) *QueryService {
	return &QueryService{ledger: ledger}
}

// GetBooking returns the booking joined with its train summary.  A
// booking that exists but belongs to another user is reported as
// ErrNotFound, exactly like a missing one.
func (s *QueryService) GetBooking(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error) {
	if bookingID == 0 || userID == 0 {
		return model.BookingDetail{}, ErrNotFound
	}
	return s.ledger.GetForUser(ctx, bookingID, userID)
}

// ListBookings returns every booking owned by the user, newest first.
func (s *QueryService) ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	out, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.BookingDetail{}
	}
	return out, nil
}
