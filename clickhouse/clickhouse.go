/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package clickhouse registers the ClickHouse driver and the retryable-error
// check for ClickHouse transient errors. Import it for side effects when the
// analytics backend runs on ClickHouse.
package clickhouse

import (
	"database/sql"
	"errors"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/acronis/go-dualmigrate"
)

// ErrCode is a type for ClickHouse server error codes.
type ErrCode int32

// ClickHouse error codes that are considered transient.
const (
	ErrCodeTimeoutExceeded            ErrCode = 159
	ErrCodeTooManySimultaneousQueries ErrCode = 202
	ErrCodeSocketTimeout              ErrCode = 209
	ErrCodeNetworkError               ErrCode = 210
)

func init() {
	// The stdlib driver type is not exported by clickhouse-go;
	// obtain an instance through sql.Open (which does not connect).
	db, err := sql.Open("clickhouse", "")
	if err != nil {
		return
	}
	defer db.Close()
	dualmigrate.RegisterIsRetryableFunc(db.Driver(), IsRetryableError)
}

// IsRetryableError reports whether the error is a transient ClickHouse failure.
func IsRetryableError(err error) bool {
	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		switch ErrCode(exception.Code) {
		case ErrCodeTimeoutExceeded, ErrCodeTooManySimultaneousQueries,
			ErrCodeSocketTimeout, ErrCodeNetworkError:
			return true
		}
	}
	return false
}
