package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryHold struct {
	holder    string
	expiresAt time.Time
}

// MemoryLocker implements Locker with in-process state. It mirrors the
// Redis semantics (bounded holder lifetime, holder-checked release) and is
// intended for tests and single-process deployments.
type MemoryLocker struct {
	mu            sync.Mutex
	held          map[string]memoryHold
	holderTTL     time.Duration
	retryInterval time.Duration
	nowFunc       func() time.Time
}

// MemoryOption configures a MemoryLocker.
type MemoryOption func(*MemoryLocker)

// WithMemoryHolderTTL bounds the holder lifetime.
func WithMemoryHolderTTL(ttl time.Duration) MemoryOption {
	return func(l *MemoryLocker) {
		if ttl > 0 {
			l.holderTTL = ttl
		}
	}
}

// WithMemoryRetryInterval sets the pause between contended attempts.
func WithMemoryRetryInterval(interval time.Duration) MemoryOption {
	return func(l *MemoryLocker) {
		if interval > 0 {
			l.retryInterval = interval
		}
	}
}

// WithMemoryClock overrides the time source for deterministic tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLocker) {
		if now != nil {
			l.nowFunc = now
		}
	}
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker(opts ...MemoryOption) *MemoryLocker {
	l := &MemoryLocker{
		held:          make(map[string]memoryHold),
		holderTTL:     10 * time.Second,
		retryInterval: 5 * time.Millisecond,
		nowFunc:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire obtains the lock for key, polling until timeout elapses.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error) {
	holder := newHolder()
	deadline := l.nowFunc().Add(timeout)

	for {
		if l.tryAcquire(key, holder) {
			return &Handle{key: key, holder: holder}, nil
		}

		if !l.nowFunc().Before(deadline) {
			return nil, ErrAcquireTimeout
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrAcquireTimeout, ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}
}

// Release frees the lock if handle still owns it.
func (l *MemoryLocker) Release(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return ErrNilHandle
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if hold, ok := l.held[handle.key]; ok && hold.holder == handle.holder {
		delete(l.held, handle.key)
	}
	return nil
}

func (l *MemoryLocker) tryAcquire(key, holder string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if hold, ok := l.held[key]; ok && now.Before(hold.expiresAt) {
		return false
	}

	l.held[key] = memoryHold{holder: holder, expiresAt: now.Add(l.holderTTL)}
	return true
}

var _ Locker = (*MemoryLocker)(nil)
