// Package repository is the MySQL store.  It keeps trains, bookings and
// users in InnoDB tables and implements booking.Store and account.Store.
//
// Driver errors never leave this package raw: lock conflicts become
// booking.ErrConflictRetryable, lost connections become
// booking.ErrStoreUnavailable and unique violations are translated
// according to the index that fired.
package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

// MySQL server error numbers handled by the store.
const (
	errDupEntry         = 1062
	errLockWaitTimeout  = 1205
	errLockDeadlock     = 1213
	errTooManyConns     = 1040
	errServerShutdown   = 1053
	errQueryInterrupted = 1317
)

// Unique index names from the schema.
const (
	idxBookingSeat   = "uq_bookings_seat"
	idxBookingIdem   = "uq_bookings_idem"
	idxTrainNumber   = "uq_trains_number"
	idxUsersUsername = "uq_users_username"
)

// duplicateIndex returns the name of the unique index a 1062 error refers
// to, or "" when err is not a duplicate entry.
func duplicateIndex(err error) string {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != errDupEntry {
		return ""
	}
	for _, idx := range []string{idxBookingSeat, idxBookingIdem, idxTrainNumber, idxUsersUsername} {
		if strings.Contains(me.Message, idx) {
			return idx
		}
	}
	return "unknown"
}

// translate maps driver errors onto the booking error kinds.  Errors it
// does not recognise are wrapped with op and returned as is.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errLockDeadlock, errLockWaitTimeout, errQueryInterrupted:
			return fmt.Errorf("%s: %w: %v", op, booking.ErrConflictRetryable, err)
		case errTooManyConns, errServerShutdown:
			return fmt.Errorf("%s: %w: %v", op, booking.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var ne net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &ne) {
		return fmt.Errorf("%s: %w: %v", op, booking.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
