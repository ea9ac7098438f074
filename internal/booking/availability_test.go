package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/repository/memory"
)

func TestCalculator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newMemHarness(t)
	a := addTrain(t, h.store, "A1", 2)
	b := addTrain(t, h.store, "B1", 3)
	other := model.Train{Number: "C1", Source: "Lyon", Destination: "Nice", TotalSeats: 9}
	require.NoError(t, h.store.CreateTrain(ctx, &other))

	_, err := h.coord.Reserve(ctx, booking.ReserveInput{UserID: 1, TrainID: a.ID, SeatNumber: 1})
	require.NoError(t, err)

	t.Run("single train", func(t *testing.T) {
		av, err := h.calc.Available(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "A1", av.Train.Number)
		assert.Equal(t, 1, av.AvailableSeats)
	})

	t.Run("unknown train", func(t *testing.T) {
		_, err := h.calc.Available(ctx, 9999)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("by route", func(t *testing.T) {
		list, err := h.calc.ByRoute(ctx, "paris", "LYON")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, a.ID, list[0].Train.ID)
		assert.Equal(t, 1, list[0].AvailableSeats)
		assert.Equal(t, b.ID, list[1].Train.ID)
		assert.Equal(t, 3, list[1].AvailableSeats)

		none, err := h.calc.ByRoute(ctx, "Paris", "Berlin")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

type staticHolds []booking.HeldLock

func (s staticHolds) HeldLocks() []booking.HeldLock { return s }

func TestAuditor_Check(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := memory.New()
	full := addTrain(t, mem, "OV1", 1)
	ok := addTrain(t, mem, "OK1", 4)

	// Writes that bypass the coordinator are the only way to break the
	// capacity invariant.
	require.NoError(t, mem.Insert(ctx, &model.Booking{UserID: 1, TrainID: full.ID, SeatNumber: 1}))
	require.NoError(t, mem.Insert(ctx, &model.Booking{UserID: 2, TrainID: full.ID, SeatNumber: 2}))
	require.NoError(t, mem.Insert(ctx, &model.Booking{UserID: 2, TrainID: ok.ID, SeatNumber: 1}))

	calc := booking.NewCalculator(mem, mem, nil)
	holds := staticHolds{
		{TrainID: ok.ID, Since: time.Now().Add(-time.Hour)},
		{TrainID: full.ID, Since: time.Now()},
	}
	aud := booking.NewAuditor(mem, calc, holds, time.Minute, 30*time.Second, nil)

	rep, err := aud.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Trains)
	assert.Equal(t, []uint64{full.ID}, rep.Overbooked)
	require.Len(t, rep.StaleHolds, 1)
	assert.Equal(t, ok.ID, rep.StaleHolds[0].TrainID)

	av, err := calc.Available(ctx, full.ID)
	require.NoError(t, err)
	assert.Zero(t, av.AvailableSeats)
}

func TestAuditor_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	mem := memory.New()
	aud := booking.NewAuditor(mem, booking.NewCalculator(mem, mem, nil), mem, time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		aud.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auditor did not stop")
	}
}

func TestCatalog_CreateTrain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat := booking.NewCatalog(memory.New())

	tr, err := cat.CreateTrain(ctx, model.Train{Number: " 12951 ", Source: "Mumbai", Destination: "Delhi", TotalSeats: 72})
	require.NoError(t, err)
	assert.NotZero(t, tr.ID)
	assert.Equal(t, "12951", tr.Number)

	_, err = cat.CreateTrain(ctx, model.Train{Number: "12951", Source: "Mumbai", Destination: "Delhi", TotalSeats: 72})
	assert.ErrorIs(t, err, booking.ErrTrainExists)

	for _, bad := range []model.Train{
		{Source: "A", Destination: "B", TotalSeats: 1},
		{Number: "X", Destination: "B", TotalSeats: 1},
		{Number: "X", Source: "A", Destination: "B", TotalSeats: 0},
		{Number: "X", Source: "A", Destination: "B", TotalSeats: booking.MaxSeatNumber + 1},
	} {
		_, err := cat.CreateTrain(ctx, bad)
		assert.ErrorIs(t, err, booking.ErrInvalidTrain)
	}

	got, err := cat.GetTrain(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
	_, err = cat.GetTrain(ctx, 0)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}
