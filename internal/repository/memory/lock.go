package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

// keyedLock hands out one exclusive hold per train.  Each key owns a
// channel with a single slot; blocked senders on a channel are queued in
// arrival order, so waiters for the same train are served first come
// first served.  Keys never contend with each other.
type keyedLock struct {
	mu    sync.Mutex
	slots map[uint64]*slot
}

type slot struct {
	ch    chan struct{}
	refs  int
	held  bool
	since time.Time
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[uint64]*slot)}
}

// acquire blocks until the hold on key is taken, wait elapses or ctx is
// done.  The last two cases return booking.ErrConflictRetryable.
func (k *keyedLock) acquire(ctx context.Context, key uint64, wait time.Duration) error {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case s.ch <- struct{}{}:
		k.mu.Lock()
		s.held = true
		s.since = time.Now()
		k.mu.Unlock()
		return nil
	case <-ctx.Done():
	case <-timeout:
	}
	k.unref(key)
	return booking.ErrConflictRetryable
}

// release gives the hold on key to the next waiter.
func (k *keyedLock) release(key uint64) {
	k.mu.Lock()
	s := k.slots[key]
	s.held = false
	s.since = time.Time{}
	k.mu.Unlock()
	<-s.ch
	k.unref(key)
}

func (k *keyedLock) unref(key uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// held lists the holds currently taken, ordered by train.
func (k *keyedLock) held() []booking.HeldLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]booking.HeldLock, 0, len(k.slots))
	for id, s := range k.slots {
		if s.held {
			out = append(out, booking.HeldLock{TrainID: id, Since: s.since})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainID < out[j].TrainID })
	return out
}
