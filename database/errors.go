package database

import (
	"context"
	"errors"
	"net/http"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	apperrors "github.com/kbukum/mysqlsvc/errors"
)

var (
	// ErrNotReady is matched (via errors.Is) by Instance and DB before
	// Start and after Stop.
	ErrNotReady = apperrors.NotReady("mysql")

	// ErrAlreadyStarted is matched by Start when the service is not stopped.
	ErrAlreadyStarted = apperrors.Conflict("service already started")
)

// MySQL server error numbers worth classifying.
const (
	erTooManyConnections = 1040
	erAccessDenied       = 1045
	erBadDB              = 1049
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mysqldriver.ErrInvalidConn) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no such host",
		"no route to host",
		"network is unreachable",
		"connection closed",
		"connection lost",
		"driver: bad connection",
		"invalid connection",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erTooManyConnections, erLockWaitTimeout, erLockDeadlock:
			return true
		}
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range []string{"deadlock", "lock wait timeout", "too many connections"} {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a driver error to an AppError. An AppError already
// in the chain is returned as a copy, so callers may add details freely.
func FromDatabase(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Clone()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("database").WithCause(err)
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erAccessDenied, erBadDB:
			return (&apperrors.AppError{
				Code:       apperrors.ErrCodeConnectionFailed,
				Message:    "Database rejected the connection.",
				HTTPStatus: http.StatusServiceUnavailable,
				Retryable:  false,
			}).WithCause(err).WithDetail("mysql_error", int(myErr.Number))
		}
	}

	if IsConnectionError(err) {
		return apperrors.ConnectionFailed("database").WithCause(err)
	}

	if IsRetryableError(err) {
		return (&apperrors.AppError{
			Code:       apperrors.ErrCodeDatabaseError,
			Message:    "Database operation failed. Please try again.",
			HTTPStatus: http.StatusServiceUnavailable,
			Retryable:  true,
		}).WithCause(err)
	}

	return apperrors.DatabaseError(err)
}
