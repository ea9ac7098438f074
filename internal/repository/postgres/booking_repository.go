package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

func (s *Store) CountByTrain(ctx context.Context, trainID uint64) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE train_id = $1`, trainID).Scan(&n); err != nil {
		return 0, translate("count bookings", err)
	}
	return n, nil
}

func (s *Store) SeatTaken(ctx context.Context, trainID uint64, seat int) (bool, error) {
	var taken bool
	err := s.queryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE train_id = $1 AND seat_number = $2)`,
		trainID, seat).Scan(&taken)
	if err != nil {
		return false, translate("check seat", err)
	}
	return taken, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, userID uint64, key string) (*model.Booking, error) {
	const query = `
SELECT id, user_id, train_id, seat_number, booking_date, COALESCE(idempotency_key, '')
FROM bookings
WHERE user_id = $1 AND idempotency_key = $2`

	var b model.Booking
	err := s.queryRow(ctx, query, userID, key).
		Scan(&b.ID, &b.UserID, &b.TrainID, &b.SeatNumber, &b.BookedAt, &b.IdempotencyKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find booking by idempotency key", err)
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *model.Booking) error {
	const stmt = `
INSERT INTO bookings (user_id, train_id, seat_number, idempotency_key, booking_date)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
RETURNING id`

	err := s.queryRow(ctx, stmt, b.UserID, b.TrainID, b.SeatNumber, b.IdempotencyKey, b.BookedAt).Scan(&b.ID)
	if err != nil {
		switch uniqueConstraint(err) {
		case "uq_bookings_seat":
			return booking.ErrSeatTaken
		case "uq_bookings_idem":
			return booking.ErrDuplicateKey
		}
		return translate("insert booking", err)
	}
	return nil
}

const detailQuery = `
SELECT b.id, b.user_id, b.train_id, b.seat_number, b.booking_date, COALESCE(b.idempotency_key, ''),
       t.train_number, t.source, t.destination
FROM bookings b
JOIN trains t ON t.id = b.train_id`

func scanDetail(row pgx.Row) (model.BookingDetail, error) {
	var d model.BookingDetail
	err := row.Scan(&d.ID, &d.UserID, &d.TrainID, &d.SeatNumber, &d.BookedAt, &d.IdempotencyKey,
		&d.TrainNumber, &d.Source, &d.Destination)
	return d, err
}

// GetForUser filters by owner in SQL; a foreign booking reads as missing.
func (s *Store) GetForUser(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error) {
	d, err := scanDetail(s.queryRow(ctx, detailQuery+` WHERE b.id = $1 AND b.user_id = $2`, bookingID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BookingDetail{}, booking.ErrNotFound
	}
	if err != nil {
		return model.BookingDetail{}, translate("get booking", err)
	}
	return d, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	rows, err := s.query(ctx, detailQuery+` WHERE b.user_id = $1 ORDER BY b.id DESC`, userID)
	if err != nil {
		return nil, translate("list bookings", err)
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list bookings", err)
	}
	return out, nil
}
