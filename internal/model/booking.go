package model

import "time"

// Booking records that one seat of a train has been granted to a user.
// A booking is created exactly once by a successful reservation
// transaction and is never mutated afterwards.
//
// Fields:
//
//	ID             – primary key identifier, assigned by the store.
//	UserID         – owner of the booking.
//	TrainID        – train whose capacity the booking consumes.
//	SeatNumber     – caller-supplied seat number, unique per train.
//	BookedAt       – server-assigned UTC timestamp.
//	IdempotencyKey – optional client token used to dedupe retries.
type Booking struct {
	ID             uint64    `json:"id"`                        // bookings.id
	UserID         uint64    `json:"user_id"`                   // bookings.user_id
	TrainID        uint64    `json:"train_id"`                  // bookings.train_id
	SeatNumber     int       `json:"seat_number"`               // bookings.seat_number
	BookedAt       time.Time `json:"booking_date"`              // bookings.booking_date
	IdempotencyKey string    `json:"idempotency_key,omitempty"` // bookings.idempotency_key (nullable)
}

// BookingDetail is a booking joined with the summary of the train it
// belongs to.  It is the shape returned to the owning user.
type BookingDetail struct {
	Booking
	TrainNumber string `json:"train_number"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}
