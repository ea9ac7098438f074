// Package postgres is the pgx-backed store for trains, bookings and users.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

type txKey struct{}

// withTx runs fn in a READ COMMITTED transaction carried by the context.
// When lockWait is positive a row lock that cannot be taken in time fails
// the statement with lock_not_available.
func withTx(ctx context.Context, pool *pgxpool.Pool, lockWait time.Duration, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return translate("begin tx", err)
	}
	// Rolls back on every exit that is not a commit, panics included, so
	// the row lock and the pooled connection are always released.
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if lockWait > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", lockWait.Milliseconds())); err != nil {
			return translate("set lock timeout", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate("commit", err)
	}
	committed = true
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// SQLSTATE codes handled by the store.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeTooManyConnections   = "53300"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// uniqueConstraint returns the constraint name of a unique violation, or
// "" when err is something else.
func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %v", op, booking.ErrConflictRetryable, err)
		case codeTooManyConnections, codeAdminShutdown, codeCannotConnectNow:
			return fmt.Errorf("%s: %w: %v", op, booking.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var ne net.Error
	if pgconn.SafeToRetry(err) || errors.As(err, &ne) {
		return fmt.Errorf("%s: %w: %v", op, booking.ErrStoreUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %v", op, booking.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
