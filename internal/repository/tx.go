package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

type txKey struct{}

// querier is the part of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or db outside one.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// TxRunner starts the transactions the booking coordinator runs in.
type TxRunner struct {
	db       *sql.DB
	lockWait time.Duration
}

// NewTxRunner returns a TxRunner.  lockWait bounds how long a statement
// waits for a row lock held by another transaction; MySQL counts it in
// whole seconds.
func NewTxRunner(db *sql.DB, lockWait time.Duration) *TxRunner {
	return &TxRunner{db: db, lockWait: lockWait}
}

// WithTx runs fn inside a READ COMMITTED transaction.  Every statement
// fn issues after taking a row lock therefore reads the latest committed
// rows rather than a snapshot from before the lock was granted.  Nested
// calls join the outer transaction.
func (r *TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translate("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// MySQL has no SET LOCAL: this outlives the tx and stays on the pooled
	// connection.  Every transaction sets the same value, so later users of
	// the connection see no change.
	if secs := lockWaitSeconds(r.lockWait); secs > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", secs)); err != nil {
			return translate("set lock wait", err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate("commit", err)
	}
	committed = true
	return nil
}

func lockWaitSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Store bundles the MySQL repositories into a booking.Store.
type Store struct {
	*TxRunner
	*TrainRepo
	*BookingRepo
}

// NewStore returns a Store over db.
func NewStore(db *sql.DB, lockWait time.Duration) *Store {
	return &Store{
		TxRunner:    NewTxRunner(db, lockWait),
		TrainRepo:   NewTrainRepo(db),
		BookingRepo: NewBookingRepo(db),
	}
}

var _ booking.Store = (*Store)(nil)
