/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package sqlite

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-dualmigrate"
)

func TestSQLiteIsRetryable(t *testing.T) {
	isRetryable := dualmigrate.GetIsRetryable(&sqlite3.SQLiteDriver{})
	require.NotNil(t, isRetryable)

	for _, code := range []sqlite3.ErrNo{sqlite3.ErrBusy, sqlite3.ErrLocked} {
		var err error
		err = sqlite3.Error{Code: code}
		require.True(t, isRetryable(err))
		err = fmt.Errorf("wrapped error: %w", err)
		require.True(t, isRetryable(err))
	}

	require.False(t, isRetryable(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	require.False(t, isRetryable(driver.ErrBadConn))
}
