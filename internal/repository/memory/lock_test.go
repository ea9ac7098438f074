package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

func TestKeyedLock_ServesWaitersInOrder(t *testing.T) {
	l := newKeyedLock()
	ctx := context.Background()
	require.NoError(t, l.acquire(ctx, 1, 0))

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, l.acquire(ctx, 1, 0))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			l.release(1)
		}(i)
		// Let each waiter park on the channel before starting the next one.
		require.Eventually(t, func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.slots[1].refs == i+2
		}, time.Second, time.Millisecond)
		time.Sleep(2 * time.Millisecond)
	}

	l.release(1)
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Empty(t, l.slots)
}

func TestKeyedLock_TimeoutAndCancel(t *testing.T) {
	l := newKeyedLock()
	ctx := context.Background()
	require.NoError(t, l.acquire(ctx, 7, 0))

	err := l.acquire(ctx, 7, 10*time.Millisecond)
	assert.ErrorIs(t, err, booking.ErrConflictRetryable)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = l.acquire(cctx, 7, time.Second)
	assert.ErrorIs(t, err, booking.ErrConflictRetryable)

	// Another key is never blocked by the first one.
	require.NoError(t, l.acquire(ctx, 8, 10*time.Millisecond))

	held := l.held()
	require.Len(t, held, 2)
	assert.Equal(t, uint64(7), held[0].TrainID)
	assert.Equal(t, uint64(8), held[1].TrainID)

	l.release(7)
	l.release(8)
	assert.Empty(t, l.held())
	assert.Empty(t, l.slots)
}
