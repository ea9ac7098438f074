package booking

import (
	"context"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// TxRunner opens an isolated unit of work.  fn receives a context that
// carries the transaction; every Registry and Ledger call made with that
// context joins it.  The transaction commits when fn returns nil and
// rolls back otherwise.  Nested calls reuse the outer transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Registry holds trains and their capacity.
type Registry interface {
	GetTrain(ctx context.Context, id uint64) (model.Train, error)
	// GetTrainForUpdate resolves the train and takes the exclusive hold on
	// its seat accounting for the rest of the surrounding transaction.
	// Holds on different trains never block each other.
	GetTrainForUpdate(ctx context.Context, id uint64) (model.Train, error)
	CreateTrain(ctx context.Context, t *model.Train) error
	ListTrains(ctx context.Context) ([]model.Train, error)
	FindByRoute(ctx context.Context, source, destination string) ([]model.Train, error)
}

// Ledger is the append-only record of granted seats.  Counts are always
// derived from the stored rows; there is no cached counter.
type Ledger interface {
	CountByTrain(ctx context.Context, trainID uint64) (int, error)
	SeatTaken(ctx context.Context, trainID uint64, seat int) (bool, error)
	// FindByIdempotencyKey returns nil, nil when no booking carries the key.
	FindByIdempotencyKey(ctx context.Context, userID uint64, key string) (*model.Booking, error)
	// Insert assigns the booking ID.
	Insert(ctx context.Context, b *model.Booking) error
	GetForUser(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
}

// Store bundles everything a storage backend provides.
type Store interface {
	TxRunner
	Registry
	Ledger
}

// HeldLock describes a train hold that is currently taken.
type HeldLock struct {
	TrainID uint64
	Since   time.Time
}

// HoldInspector is implemented by stores that manage holds in process
// and can therefore report ones that were never released.
type HoldInspector interface {
	HeldLocks() []HeldLock
}

// Publisher is notified after a booking has been committed.  Reserve calls
// it before returning, so implementations must not wait on a broker.
type Publisher interface {
	BookingConfirmed(ctx context.Context, b model.Booking, t model.Train) error
}
