// Package lock provides named, time-bounded mutual exclusion for the spend
// and usage write paths. The production implementation is Redis-backed so the
// guarantee holds across service instances; tests inject MemoryLocker.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned when every acquisition attempt failed. The
// critical section is never invoked in that case.
var ErrNotAcquired = errors.New("lock not acquired")

// Options bounds an acquisition attempt. Up to Retries+1 tries are made,
// sleeping RetryInterval between them; the held lock expires after TTL.
type Options struct {
	Retries       int
	RetryInterval time.Duration
	TTL           time.Duration
}

// Locker acquires a named lock, runs fn exactly once while holding it, and
// releases the lock on every exit path. If the critical section outlives the
// TTL the lock alone no longer excludes a second holder; writers guard
// against that with an optimistic version check on persist.
type Locker interface {
	WithLock(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error
}

// PerformanceKey names the lock serializing spend-performance updates for one
// (user, card) pair.
func PerformanceKey(userID, cardID fmt.Stringer) string {
	return fmt.Sprintf("performance:%s:%s", userID, cardID)
}

// UsageKey names the lock serializing usage updates for one
// (user, card, kind) triple. Different kinds update independently.
func UsageKey(userID, cardID fmt.Stringer, kind string) string {
	return fmt.Sprintf("benefit:%s:%s:%s", userID, cardID, kind)
}
