package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// BookingRepo provides access to the bookings table, the ledger of seats
// granted to users.  Rows are only ever inserted.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CountByTrain counts the bookings of a train.  Inside a transaction that
// holds the train's row lock the result cannot change until commit.
func (r *BookingRepo) CountByTrain(ctx context.Context, trainID uint64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE train_id = ?`, trainID).Scan(&n)
	if err != nil {
		return 0, translate("count bookings", err)
	}
	return n, nil
}

// SeatTaken reports whether a seat of the train is already booked.
func (r *BookingRepo) SeatTaken(ctx context.Context, trainID uint64, seat int) (bool, error) {
	var taken bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE train_id = ? AND seat_number = ?)`,
		trainID, seat).Scan(&taken)
	if err != nil {
		return false, translate("check seat", err)
	}
	return taken, nil
}

// FindByIdempotencyKey returns the booking a user created under key, or
// nil when there is none.
func (r *BookingRepo) FindByIdempotencyKey(ctx context.Context, userID uint64, key string) (*model.Booking, error) {
	var (
		b   model.Booking
		idk sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, train_id, seat_number, booking_date, idempotency_key
		   FROM bookings WHERE user_id = ? AND idempotency_key = ?`,
		userID, key).Scan(&b.ID, &b.UserID, &b.TrainID, &b.SeatNumber, &b.BookedAt, &idk)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find booking by key", err)
	}
	b.IdempotencyKey = idk.String
	return &b, nil
}

// Insert appends a booking and populates its ID.  A duplicate seat yields
// booking.ErrSeatTaken and a duplicate idempotency key
// booking.ErrDuplicateKey.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	var idk sql.NullString
	if b.IdempotencyKey != "" {
		idk = sql.NullString{String: b.IdempotencyKey, Valid: true}
	}
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO bookings (user_id, train_id, seat_number, idempotency_key, booking_date)
		 VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.TrainID, b.SeatNumber, idk, b.BookedAt)
	if err != nil {
		switch duplicateIndex(err) {
		case idxBookingSeat:
			return booking.ErrSeatTaken
		case idxBookingIdem:
			return booking.ErrDuplicateKey
		}
		return translate("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate("insert booking", err)
	}
	b.ID = uint64(id)
	return nil
}

const detailQuery = `SELECT b.id, b.user_id, b.train_id, b.seat_number, b.booking_date, b.idempotency_key,
                            t.train_number, t.source, t.destination
                       FROM bookings b
                       JOIN trains t ON t.id = b.train_id`

func scanDetail(row interface{ Scan(...any) error }) (model.BookingDetail, error) {
	var (
		d   model.BookingDetail
		idk sql.NullString
	)
	err := row.Scan(&d.ID, &d.UserID, &d.TrainID, &d.SeatNumber, &d.BookedAt, &idk,
		&d.TrainNumber, &d.Source, &d.Destination)
	d.IdempotencyKey = idk.String
	return d, err
}

// GetForUser returns a booking joined with its train.  Ownership is part
// of the WHERE clause, so another user's booking is indistinguishable from
// a missing one: both yield booking.ErrNotFound.
func (r *BookingRepo) GetForUser(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error) {
	d, err := scanDetail(conn(ctx, r.db).QueryRowContext(ctx,
		detailQuery+` WHERE b.id = ? AND b.user_id = ?`, bookingID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BookingDetail{}, booking.ErrNotFound
	}
	if err != nil {
		return model.BookingDetail{}, translate("get booking", err)
	}
	return d, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		detailQuery+` WHERE b.user_id = ? ORDER BY b.id DESC`, userID)
	if err != nil {
		return nil, translate("list bookings", err)
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, translate("scan booking", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list bookings", err)
	}
	return out, nil
}
