// Package queue defines the booking.confirmed message and the background
// consumer that turns it into a line of logs/booking.log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// BookingQueue is the durable queue booking events are published to.
const BookingQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking commits.  It carries
// enough of the train to be logged without querying the database.
type BookingConfirmedEvent struct {
	EventID     string `json:"event_id"`
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	TrainID     uint64 `json:"train_id"`
	TrainNumber string `json:"train_number"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	SeatNumber  int    `json:"seat_number"`
	BookedAt    string `json:"booked_at"`
}

// NewBookingConfirmedEvent builds the event for a committed booking.
func NewBookingConfirmedEvent(b model.Booking, t model.Train) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		EventID:     uuid.NewString(),
		BookingID:   b.ID,
		UserID:      b.UserID,
		TrainID:     t.ID,
		TrainNumber: t.Number,
		Source:      t.Source,
		Destination: t.Destination,
		SeatNumber:  b.SeatNumber,
		BookedAt:    b.BookedAt.UTC().Format(time.RFC3339),
	}
}
