/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dualmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/acronis/go-appkit/retry"
	"github.com/cenkalti/backoff/v4"
)

const pingMaxRetries = 2

// Open opens a database connection for the specified backend configuration.
// If ping is true, the connection is verified (with a short exponential backoff)
// before returning.
func Open(cfg *BackendConfig, ping bool) (*sql.DB, error) {
	driverName, dsn := cfg.DriverNameAndDSN()
	if driverName == "" {
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	dbConn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime))

	if ping {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = time.Millisecond * 100
		if err := backoff.Retry(dbConn.Ping, backoff.WithMaxRetries(bo, pingMaxRetries)); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
	}

	return dbConn, nil
}

// TxOption is a functional option for DoInTx.
type TxOption func(*txOptions)

type txOptions struct {
	retryPolicy retry.Policy
}

// WithRetryPolicy makes DoInTx retry the whole transaction on errors that are
// recognized as retryable by the function registered for the connection's driver
// (see RegisterIsRetryableFunc).
func WithRetryPolicy(policy retry.Policy) TxOption {
	return func(o *txOptions) {
		o.retryPolicy = policy
	}
}

// DoInTx begins a new transaction, calls the passed function, and commits the transaction.
// The transaction is rolled back if the function returns an error or panics;
// the function's error (or panic) is propagated unchanged.
func DoInTx(ctx context.Context, dbConn *sql.DB, fn func(tx *sql.Tx) error, options ...TxOption) error {
	var opts txOptions
	for _, opt := range options {
		opt(&opts)
	}

	if opts.retryPolicy == nil {
		return doInTx(ctx, dbConn, fn)
	}

	isRetryable := GetIsRetryable(dbConn.Driver())
	if isRetryable == nil {
		return doInTx(ctx, dbConn, fn)
	}

	op := func() error {
		if err := doInTx(ctx, dbConn, fn); err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(opts.retryPolicy.NewBackOff(), ctx))
}

func doInTx(ctx context.Context, dbConn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := dbConn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
