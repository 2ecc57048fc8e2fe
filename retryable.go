/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dualmigrate

import (
	"database/sql/driver"
	"reflect"
	"sync"
)

// IsRetryableFunc is a function that reports whether an error is transient
// and the failed operation may be retried.
type IsRetryableFunc func(err error) bool

var (
	isRetryableFuncsMu sync.RWMutex
	isRetryableFuncs   = make(map[reflect.Type][]IsRetryableFunc)
)

// RegisterIsRetryableFunc registers a new IsRetryableFunc for the passed driver.
// Multiple functions may be registered for the same driver; an error is considered
// retryable if any of them reports true. Drivers are distinguished by their dynamic
// type, so any instance of the driver may be passed.
func RegisterIsRetryableFunc(d driver.Driver, f IsRetryableFunc) {
	isRetryableFuncsMu.Lock()
	defer isRetryableFuncsMu.Unlock()
	t := reflect.TypeOf(d)
	isRetryableFuncs[t] = append(isRetryableFuncs[t], f)
}

// UnregisterAllIsRetryableFuncs unregisters all IsRetryableFuncs for the passed driver.
func UnregisterAllIsRetryableFuncs(d driver.Driver) {
	isRetryableFuncsMu.Lock()
	defer isRetryableFuncsMu.Unlock()
	delete(isRetryableFuncs, reflect.TypeOf(d))
}

// GetIsRetryable returns a combined IsRetryableFunc for the passed driver
// or nil if nothing was registered for it.
func GetIsRetryable(d driver.Driver) IsRetryableFunc {
	isRetryableFuncsMu.RLock()
	funcs := isRetryableFuncs[reflect.TypeOf(d)]
	isRetryableFuncsMu.RUnlock()
	if len(funcs) == 0 {
		return nil
	}
	return func(err error) bool {
		for _, f := range funcs {
			if f(err) {
				return true
			}
		}
		return false
	}
}
