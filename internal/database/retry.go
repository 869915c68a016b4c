package database

import (
	"strings"
	"time"
)

const (
	maxConflictRetries   = 3
	conflictRetryBackoff = 25 * time.Millisecond
)

// transientMarkers are substrings of driver error messages that indicate a
// conflict worth retrying rather than a real failure. Covers SQLite write
// locks, PostgreSQL serialization failures and MySQL deadlocks.
var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"could not serialize access",
	"deadlock found",
	"lock wait timeout",
}

// IsTransient reports whether err looks like a transient concurrency conflict
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WithRetry runs fn, retrying a bounded number of times on transient
// conflicts. The last error is returned once retries are exhausted.
func WithRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * conflictRetryBackoff)
		}
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}
