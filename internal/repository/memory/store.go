// Package memory is an in-process store for trains, bookings and users.
// It gives the same transactional guarantees as the SQL stores for a
// single process: per-train holds, all-or-nothing commits and reads that
// only ever see committed bookings.  It backs STORE_DRIVER=memory and the
// tests of the booking core.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

const defaultLockWait = 5 * time.Second

var errNoTx = errors.New("memory: GetTrainForUpdate requires a transaction")

// Store implements booking.Store, booking.HoldInspector and account.Store.
type Store struct {
	mu         sync.RWMutex
	trains     map[uint64]model.Train
	bookings   []model.Booking
	users      map[string]model.User
	trainSeq   uint64
	bookingSeq uint64
	userSeq    uint64
	locks      *keyedLock
	lockWait   time.Duration
	now        func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithLockWait bounds how long a transaction waits for a train hold.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		trains:   make(map[uint64]model.Train),
		users:    make(map[string]model.User),
		locks:    newKeyedLock(),
		lockWait: defaultLockWait,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txKey struct{}

type tx struct {
	staged []model.Booking
	locked []uint64
}

func txFromContext(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// WithTx runs fn in a transaction.  Bookings inserted by fn become visible
// to others only when fn succeeds, and they are published before any
// train hold taken by fn is released.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	t := &tx{}
	defer func() {
		for i := len(t.locked) - 1; i >= 0; i-- {
			s.locks.release(t.locked[i])
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	if len(t.staged) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range t.staged {
		for _, c := range s.bookings {
			if b.IdempotencyKey != "" && c.UserID == b.UserID && c.IdempotencyKey == b.IdempotencyKey {
				return booking.ErrDuplicateKey
			}
			if c.TrainID == b.TrainID && c.SeatNumber == b.SeatNumber {
				return booking.ErrSeatTaken
			}
		}
	}
	s.bookings = append(s.bookings, t.staged...)
	return nil
}

// HeldLocks reports the train holds currently taken.
func (s *Store) HeldLocks() []booking.HeldLock {
	return s.locks.held()
}

// ---- Registry ----

func (s *Store) GetTrain(_ context.Context, id uint64) (model.Train, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trains[id]
	if !ok {
		return model.Train{}, booking.ErrNotFound
	}
	return t, nil
}

func (s *Store) GetTrainForUpdate(ctx context.Context, id uint64) (model.Train, error) {
	t := txFromContext(ctx)
	if t == nil {
		return model.Train{}, errNoTx
	}
	if _, err := s.GetTrain(ctx, id); err != nil {
		return model.Train{}, err
	}
	if !t.holds(id) {
		if err := s.locks.acquire(ctx, id, s.lockWait); err != nil {
			return model.Train{}, err
		}
		t.locked = append(t.locked, id)
	}
	return s.GetTrain(ctx, id)
}

func (t *tx) holds(id uint64) bool {
	for _, l := range t.locked {
		if l == id {
			return true
		}
	}
	return false
}

func (s *Store) CreateTrain(_ context.Context, t *model.Train) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.trains {
		if strings.EqualFold(existing.Number, t.Number) {
			return booking.ErrTrainExists
		}
	}
	s.trainSeq++
	t.ID = s.trainSeq
	t.CreatedAt = s.now()
	s.trains[t.ID] = *t
	return nil
}

func (s *Store) ListTrains(_ context.Context) ([]model.Train, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Train, 0, len(s.trains))
	for _, t := range s.trains {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindByRoute(ctx context.Context, source, destination string) ([]model.Train, error) {
	all, _ := s.ListTrains(ctx)
	out := make([]model.Train, 0)
	for _, t := range all {
		if strings.EqualFold(t.Source, source) && strings.EqualFold(t.Destination, destination) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ---- Ledger ----

// visible returns committed bookings plus the ones staged by the
// transaction in ctx, if any.
func (s *Store) visible(ctx context.Context, keep func(model.Booking) bool) []model.Booking {
	s.mu.RLock()
	var out []model.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()
	if t := txFromContext(ctx); t != nil {
		for _, b := range t.staged {
			if keep(b) {
				out = append(out, b)
			}
		}
	}
	return out
}

func (s *Store) CountByTrain(ctx context.Context, trainID uint64) (int, error) {
	return len(s.visible(ctx, func(b model.Booking) bool { return b.TrainID == trainID })), nil
}

func (s *Store) SeatTaken(ctx context.Context, trainID uint64, seat int) (bool, error) {
	return len(s.visible(ctx, func(b model.Booking) bool {
		return b.TrainID == trainID && b.SeatNumber == seat
	})) > 0, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, userID uint64, key string) (*model.Booking, error) {
	found := s.visible(ctx, func(b model.Booking) bool {
		return b.UserID == userID && b.IdempotencyKey == key
	})
	if len(found) == 0 {
		return nil, nil
	}
	b := found[0]
	return &b, nil
}

// Insert stages the booking in the surrounding transaction, or commits it
// directly when called outside one.
func (s *Store) Insert(ctx context.Context, b *model.Booking) error {
	if ok, _ := s.SeatTaken(ctx, b.TrainID, b.SeatNumber); ok {
		return booking.ErrSeatTaken
	}
	if b.IdempotencyKey != "" {
		if existing, _ := s.FindByIdempotencyKey(ctx, b.UserID, b.IdempotencyKey); existing != nil {
			return booking.ErrDuplicateKey
		}
	}
	s.mu.Lock()
	s.bookingSeq++
	b.ID = s.bookingSeq
	s.mu.Unlock()
	if t := txFromContext(ctx); t != nil {
		t.staged = append(t.staged, *b)
		return nil
	}
	return s.commit(&tx{staged: []model.Booking{*b}})
}

func (s *Store) GetForUser(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == bookingID && b.UserID == userID {
			return s.detail(b), nil
		}
	}
	return model.BookingDetail{}, booking.ErrNotFound
}

func (s *Store) ListByUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BookingDetail, 0)
	for i := len(s.bookings) - 1; i >= 0; i-- {
		if s.bookings[i].UserID == userID {
			out = append(out, s.detail(s.bookings[i]))
		}
	}
	return out, nil
}

// detail must be called with s.mu held.
func (s *Store) detail(b model.Booking) model.BookingDetail {
	t := s.trains[b.TrainID]
	return model.BookingDetail{
		Booking:     b,
		TrainNumber: t.Number,
		Source:      t.Source,
		Destination: t.Destination,
	}
}

// ---- Users ----

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return account.ErrUserExists
	}
	s.userSeq++
	u.ID = s.userSeq
	u.CreatedAt = s.now()
	s.users[u.Username] = *u
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return model.User{}, account.ErrUserNotFound
	}
	return u, nil
}

var (
	_ booking.Store         = (*Store)(nil)
	_ booking.HoldInspector = (*Store)(nil)
	_ account.Store         = (*Store)(nil)
)
