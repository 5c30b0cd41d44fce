package errors

// Database error classification for the goal cache

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the goal cache cares about
const (
	pgErrUniqueViolation     = "23505"
	pgErrNotNullViolation    = "23502"
	pgErrCheckViolation      = "23514"
	pgErrSerializationFailed = "40001"
	pgErrDeadlockDetected    = "40P01"
	pgErrLockNotAvailable    = "55P03"
	pgErrReadOnlyTx          = "25006"
	pgErrCannotConnectNow    = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error with the given SQLSTATE
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique constraint violation on either backend
func IsDuplicateKey(err error) bool {
	if IsSQLState(err, pgErrUniqueViolation) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(Root(err).Error()), "unique constraint failed")
}

// DBErrorCode maps a Postgres error to an ErrorCode; !ok means err was not a PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgErrNotNullViolation, pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErrReadOnlyTx, pgErrCannotConnectNow:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromDB wraps a storage error with a mapped code; nil stays nil
func FromDB(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, a...)
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	if IsDuplicateKey(err) {
		return Wrap(err, ErrorCodeDuplicateKey, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryable reports whether a database error is transient contention
// Local cancellations are never retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	root := Root(err)

	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailed, pgErrDeadlockDetected, pgErrLockNotAvailable:
			return true
		}
		return false
	}

	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "database is locked"),
		strings.Contains(s, "sqlite_busy"):
		return true
	}
	return false
}
