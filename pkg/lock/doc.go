// Package lock provides a short-lived distributed mutual-exclusion
// primitive backed by the session cache tier.
//
// Locks serialize critical sections that must not race across processes,
// such as refresh-and-rotate or revocation of a single session. The
// implementation is the classic set-if-absent-with-expiry pattern: each
// acquisition writes a unique holder value with a bounded lifetime, so a
// crashed holder can never wedge the lock, and release only deletes the
// key when the holder value still matches. Releasing an expired handle
// after another caller re-acquired the lock is a safe no-op.
//
// # Guarantees
//
//   - At most one holder per key at any time.
//   - Holder lifetime is bounded by the configured TTL.
//   - Release is idempotent and never releases another holder's lock.
//
// # Usage
//
//	locker := lock.NewRedisLocker(redisClient)
//
//	handle, err := locker.Acquire(ctx, "session_lock:"+id, 5*time.Second)
//	if err != nil {
//	    return err // lock.ErrAcquireTimeout if contended past the deadline
//	}
//	defer locker.Release(ctx, handle)
//
// A MemoryLocker with identical semantics ships for tests and single
// process deployments.
package lock
