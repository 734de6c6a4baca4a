package storage

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry   = 1062
	errLockWaitTimeout  = 1205
	errDeadlock         = 1213
	errServerShutdown   = 1053
	errTooManyConnected = 1040
)

// IsRetryableError reports MySQL failures that may succeed on a fresh attempt.
func IsRetryableError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errLockWaitTimeout, errDeadlock, errServerShutdown, errTooManyConnected:
			return true
		}
	}
	return false
}

func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}
