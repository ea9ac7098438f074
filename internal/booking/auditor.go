package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Auditor periodically recomputes every train's accounting from the
// stored rows and raises alarms for states that must never happen: a
// train with more bookings than seats, or an in-process hold that has
// outlived any sane transaction.
type Auditor struct {
	registry  Registry
	calc      *Calculator
	holds     HoldInspector
	interval  time.Duration
	holdAlarm time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Report is the outcome of one audit pass.
type Report struct {
	Trains     int
	Overbooked []uint64
	StaleHolds []HeldLock
}

// NewAuditor returns an Auditor.  holds may be nil for stores whose locks
// are owned by the database.
func NewAuditor(registry Registry, calc *Calculator, holds HoldInspector, interval, holdAlarm time.Duration, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		registry:  registry,
		calc:      calc,
		holds:     holds,
		interval:  interval,
		holdAlarm: holdAlarm,
		now:       time.Now,
		logger:    logger,
	}
}

// Run audits on every tick until ctx is cancelled.  A non-positive
// interval disables the loop.
func (a *Auditor) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Check(ctx); err != nil {
				a.logger.Warn("audit pass failed", zap.Error(err))
			}
		}
	}
}

// Check performs a single audit pass.
func (a *Auditor) Check(ctx context.Context) (Report, error) {
	var rep Report
	trains, err := a.registry.ListTrains(ctx)
	if err != nil {
		return rep, err
	}
	rep.Trains = len(trains)
	for _, t := range trains {
		n, err := a.calc.remaining(ctx, t)
		if err != nil {
			return rep, err
		}
		if n < 0 {
			rep.Overbooked = append(rep.Overbooked, t.ID)
		}
	}
	if a.holds != nil && a.holdAlarm > 0 {
		now := a.now()
		for _, h := range a.holds.HeldLocks() {
			if now.Sub(h.Since) < a.holdAlarm {
				continue
			}
			rep.StaleHolds = append(rep.StaleHolds, h)
			a.logger.Error("train hold not released",
				zap.Uint64("train_id", h.TrainID),
				zap.Duration("held_for", now.Sub(h.Since)))
		}
	}
	return rep, nil
}
