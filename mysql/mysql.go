/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package mysql registers the MySQL driver and the retryable-error check for
// MySQL transient errors (like deadlocks). Import it for side effects when the
// primary backend runs on MySQL.
package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/acronis/go-dualmigrate"
)

// ErrCode is a type for MySQL error codes.
type ErrCode uint16

// MySQL error codes that are considered transient.
const (
	ErrCodeLockWaitTimeout ErrCode = 1205
	ErrCodeDeadlock        ErrCode = 1213
)

func init() {
	dualmigrate.RegisterIsRetryableFunc(&mysql.MySQLDriver{}, func(err error) bool {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			switch ErrCode(mysqlErr.Number) {
			case ErrCodeDeadlock, ErrCodeLockWaitTimeout:
				return true
			}
		}
		return false
	})
}
