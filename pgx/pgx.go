/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package pgx registers the pgx stdlib driver and the retryable-error check
// for Postgres transient errors. Import it for side effects when a backend
// uses the "pgx" dialect.
package pgx

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/acronis/go-dualmigrate"
)

// ErrCode is a type for Postgres error codes (SQLSTATE).
type ErrCode string

// Postgres error codes that are considered transient.
const (
	ErrCodeSerializationFailure ErrCode = "40001"
	ErrCodeDeadlockDetected     ErrCode = "40P01"
)

func init() {
	dualmigrate.RegisterIsRetryableFunc(&stdlib.Driver{}, func(err error) bool {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch ErrCode(pgErr.Code) {
			case ErrCodeSerializationFailure, ErrCodeDeadlockDetected:
				return true
			}
		}
		return CheckInvalidCachedPlanError(err)
	})
}

// CheckInvalidCachedPlanError reports whether the error is a Postgres
// "cached plan must not change result type" failure. It occurs when a prepared
// statement's result schema changed under the statement cache (typical during
// schema migrations) and is safe to retry because the driver flushes the
// invalid statement from the cache on failure.
func CheckInvalidCachedPlanError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "0A000" &&
		strings.Contains(pgErr.Message, "cached plan must not change result type")
}
