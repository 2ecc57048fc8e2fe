/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package sqlite registers the SQLite driver and the retryable-error check for
// SQLite transient errors. Import it for side effects when a backend uses the
// "sqlite3" dialect.
package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/acronis/go-dualmigrate"
)

func init() {
	dualmigrate.RegisterIsRetryableFunc(&sqlite3.SQLiteDriver{}, func(err error) bool {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
		}
		return false
	})
}
