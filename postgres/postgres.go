/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package postgres registers the github.com/lib/pq driver and the
// retryable-error check for Postgres transient errors. Import it for side
// effects when a backend uses the "postgres" dialect.
package postgres

import (
	"errors"

	"github.com/lib/pq"

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
	dualmigrate.RegisterIsRetryableFunc(&pq.Driver{}, func(err error) bool {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch ErrCode(pqErr.Code) {
			case ErrCodeSerializationFailure, ErrCodeDeadlockDetected:
				return true
			}
		}
		return false
	})
}
