package booking

import (
	"errors"
	"math"
)

// MaxSeatNumber is the largest seat number and capacity every store can
// hold in its INTEGER columns.
const MaxSeatNumber = math.MaxInt32

// Error kinds returned by the booking core.  Stores wrap these with
// fmt.Errorf("...: %w") so callers match them with errors.Is; the HTTP
// layer maps each kind to a stable status and code and never forwards
// the wrapped driver text.
var (
	// ErrNotFound covers unknown trains, unknown bookings and bookings
	// owned by someone else.  The last two are deliberately the same.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded means the train was full when re-checked under
	// the hold.
	ErrCapacityExceeded = errors.New("no seats available")

	// ErrConflictRetryable is raised when the hold could not be obtained
	// (lock wait timeout, deadlock victim, serialization failure).  The
	// coordinator retries it a bounded number of times.
	ErrConflictRetryable = errors.New("reservation conflict")

	// ErrStoreUnavailable means the underlying database could not be
	// reached.  It is never retried by the core.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSeatTaken means another booking on the same train already holds
	// the requested seat number.
	ErrSeatTaken = errors.New("seat already booked")

	// ErrInvalidSeat rejects seat numbers outside 1..MaxSeatNumber.
	ErrInvalidSeat = errors.New("invalid seat number")

	// ErrIdempotencyConflict is returned when an idempotency key is reused
	// for a different train or seat.
	ErrIdempotencyConflict = errors.New("idempotency key reused for a different booking")

	// ErrDuplicateKey is returned by stores when an insert collides with an
	// existing (user, idempotency key) pair committed by a concurrent
	// transaction.  The coordinator turns it into a retry so the winner's
	// booking is replayed.
	ErrDuplicateKey = errors.New("duplicate idempotency key")

	// ErrTrainExists is returned by CreateTrain for a duplicate train number.
	ErrTrainExists = errors.New("train already exists")

	// ErrInvalidTrain rejects catalog entries without a number, route or
	// positive capacity.
	ErrInvalidTrain = errors.New("invalid train")
)
