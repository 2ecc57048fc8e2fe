/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package mysql

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-dualmigrate"
)

func TestMySQLIsRetryable(t *testing.T) {
	isRetryable := dualmigrate.GetIsRetryable(&mysql.MySQLDriver{})
	require.NotNil(t, isRetryable)

	retriable := []ErrCode{
		ErrCodeLockWaitTimeout,
		ErrCodeDeadlock,
	}
	for _, code := range retriable {
		var err error
		err = &mysql.MySQLError{Number: uint16(code)}
		require.True(t, isRetryable(err))
		err = fmt.Errorf("wrapped error: %w", err)
		require.True(t, isRetryable(err))
	}

	require.False(t, isRetryable(&mysql.MySQLError{Number: 1062})) // duplicate entry
	require.False(t, isRetryable(driver.ErrBadConn))
}
