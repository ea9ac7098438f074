package model

import "time"

// Train represents a scheduled train service with a fixed number of
// seats.  Trains are created by catalog management (the admin API) and
// are read by the booking core for the lifetime of the service.  The
// capacity recorded in TotalSeats is never edited by the booking path.
//
// Fields:
//
//	ID          – primary key identifier.
//	Number      – external train code (unique).
//	Source      – origin station.
//	Destination – destination station.
//	TotalSeats  – capacity of the train; always greater than zero.
//	CreatedAt   – creation timestamp.
type Train struct {
	ID          uint64    `json:"id"`           // trains.id
	Number      string    `json:"train_number"` // trains.train_number
	Source      string    `json:"source"`       // trains.source
	Destination string    `json:"destination"`  // trains.destination
	TotalSeats  int       `json:"total_seats"`  // trains.total_seats
	CreatedAt   time.Time `json:"created_at"`   // trains.created_at
}

// Availability pairs a train with the number of seats still free at the
// moment it was computed.  Values are point-in-time reads and may be
// stale by the time a caller acts on them.
type Availability struct {
	Train          Train `json:"train"`
	AvailableSeats int   `json:"available_seats"`
}
