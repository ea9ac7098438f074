package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/clock"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 50 * time.Millisecond
	defaultTxTimeout    = 10 * time.Second
)

// Coordinator is the only component allowed to create bookings.  Each
// Reserve call runs its own transaction; the only state shared between
// calls lives in the store.
type Coordinator struct {
	tx        TxRunner
	registry  Registry
	ledger    Ledger
	calc      *Calculator
	clock     clock.Clock
	logger    *zap.Logger
	publisher Publisher

	maxAttempts int
	backoff     time.Duration
	txTimeout   time.Duration
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxAttempts bounds how many times a conflicting transaction is
// attempted in total.  Values below 1 are ignored.
func WithMaxAttempts(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between attempts.  The delay grows
// linearly with the attempt number.
func WithRetryBackoff(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithTxTimeout bounds a whole reservation, retries included.
func WithTxTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.txTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPublisher registers a publisher that is told about every new
// booking after it commits.  Publish failures are logged and dropped.
func WithPublisher(p Publisher) CoordinatorOption {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// NewCoordinator wires a Coordinator against a store.
func NewCoordinator(store Store, calc *Calculator, clk clock.Clock, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		tx:          store,
		registry:    store,
		ledger:      store,
		calc:        calc,
		clock:       clk,
		logger:      zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultRetryBackoff,
		txTimeout:   defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReserveInput is one booking request on behalf of an authenticated user.
type ReserveInput struct {
	UserID         uint64
	TrainID        uint64
	SeatNumber     int
	IdempotencyKey string
}

// Result is the outcome of a successful Reserve.  Replayed is true when
// the booking already existed under the same idempotency key.
type Result struct {
	Booking  model.Booking
	Replayed bool
}

// Reserve grants one seat of a train to a user or fails without leaving
// any trace in the ledger.
//
// The transaction is detached from the caller's cancellation: once
// started it either commits or rolls back within the configured timeout
// even if the client has gone away.
func (c *Coordinator) Reserve(ctx context.Context, in ReserveInput) (Result, error) {
	if in.SeatNumber < 1 || in.SeatNumber > MaxSeatNumber {
		return Result{}, ErrInvalidSeat
	}
	if in.TrainID == 0 {
		return Result{}, ErrNotFound
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.txTimeout)
	defer cancel()

	log := c.logger.With(
		zap.Uint64("user_id", in.UserID),
		zap.Uint64("train_id", in.TrainID),
		zap.Int("seat_number", in.SeatNumber))

	var (
		res   Result
		train model.Train
		err   error
	)
	for attempt := 1; ; attempt++ {
		res, train, err = c.attempt(txCtx, in)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateKey) {
			err = fmt.Errorf("%w: %w", ErrConflictRetryable, err)
		}
		if !errors.Is(err, ErrConflictRetryable) {
			if !isRejection(err) {
				log.Error("reservation failed", zap.Int("attempt", attempt), zap.Error(err))
			}
			return Result{}, err
		}
		if attempt >= c.maxAttempts {
			log.Warn("reservation conflict, giving up", zap.Int("attempt", attempt), zap.Error(err))
			return Result{}, ErrConflictRetryable
		}
		log.Info("reservation conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if !sleep(txCtx, c.backoff*time.Duration(attempt)) {
			return Result{}, ErrConflictRetryable
		}
	}

	if res.Replayed {
		log.Info("reservation replayed", zap.Uint64("booking_id", res.Booking.ID))
		return res, nil
	}
	log.Info("seat booked", zap.Uint64("booking_id", res.Booking.ID))
	if c.publisher != nil {
		if perr := c.publisher.BookingConfirmed(txCtx, res.Booking, train); perr != nil {
			log.Warn("publish booking confirmed failed", zap.Error(perr))
		}
	}
	return res, nil
}

// attempt runs one transaction: lock the train, re-check capacity under
// the hold, insert, commit.
func (c *Coordinator) attempt(ctx context.Context, in ReserveInput) (Result, model.Train, error) {
	var (
		res   Result
		train model.Train
	)
	err := c.tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := c.registry.GetTrainForUpdate(ctx, in.TrainID)
		if err != nil {
			return err
		}

		// Under the hold, a concurrent retry with the same key has either
		// committed or not started.
		if in.IdempotencyKey != "" {
			existing, err := c.ledger.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.TrainID != in.TrainID || existing.SeatNumber != in.SeatNumber {
					return ErrIdempotencyConflict
				}
				res = Result{Booking: *existing, Replayed: true}
				return nil
			}
		}

		// Any earlier availability read by the caller is not binding.
		n, err := c.calc.remaining(ctx, t)
		if err != nil {
			return err
		}
		if n <= 0 {
			return ErrCapacityExceeded
		}

		taken, err := c.ledger.SeatTaken(ctx, t.ID, in.SeatNumber)
		if err != nil {
			return err
		}
		if taken {
			return ErrSeatTaken
		}

		b := model.Booking{
			UserID:         in.UserID,
			TrainID:        t.ID,
			SeatNumber:     in.SeatNumber,
			BookedAt:       c.clock.Now(),
			IdempotencyKey: in.IdempotencyKey,
		}
		if err := c.ledger.Insert(ctx, &b); err != nil {
			return err
		}
		res = Result{Booking: b}
		train = t
		return nil
	})
	if err != nil {
		return Result{}, model.Train{}, err
	}
	return res, train, nil
}

// isRejection reports whether err is an expected, client-facing outcome.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrCapacityExceeded, ErrSeatTaken, ErrInvalidSeat, ErrIdempotencyConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
