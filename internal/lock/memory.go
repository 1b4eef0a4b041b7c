package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryLease records one acquisition; the token ties a release to the
// acquisition it belongs to, like the Redis implementation's random token.
type memoryLease struct {
	token  uint64
	expiry time.Time
}

// MemoryLocker is an in-process Locker with the same try/retry/TTL semantics
// as the Redis implementation. It backs unit tests and single-instance
// deployments without Redis.
type MemoryLocker struct {
	mu   sync.Mutex
	next uint64
	held map[string]memoryLease
}

// NewMemoryLocker creates a MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]memoryLease{}}
}

func (l *MemoryLocker) tryAcquire(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lease, ok := l.held[key]; ok && time.Now().Before(lease.expiry) {
		return 0, false
	}
	l.next++
	l.held[key] = memoryLease{token: l.next, expiry: time.Now().Add(ttl)}
	return l.next, true
}

// release frees the key only when it still holds the given token, so a
// holder that outlived its TTL cannot free a successor's lock.
func (l *MemoryLocker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lease, ok := l.held[key]; ok && lease.token == token {
		delete(l.held, key)
	}
}

// WithLock implements Locker.
func (l *MemoryLocker) WithLock(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	var (
		token    uint64
		acquired bool
	)
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(opts.RetryInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if t, ok := l.tryAcquire(key, opts.TTL); ok {
			token = t
			acquired = true
			break
		}
	}
	if !acquired {
		return fmt.Errorf("%w: %s after %d attempts", ErrNotAcquired, key, opts.Retries+1)
	}
	defer l.release(key, token)

	return fn(ctx)
}
