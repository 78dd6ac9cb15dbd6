// Package session provides distributed session management over a two-tier
// store: a fast cache tier (Redis) in front of an authoritative durable
// tier (PostgreSQL).
//
// Sessions are typed (web, mobile, api, sso) with per-type lifetimes,
// bound to a client fingerprint, capped per user, and fully auditable.
// Tokens are 256-bit random credentials; only their SHA-256 digest is ever
// stored. Mutating operations on a single session (refresh, revoke, SSO
// migration) are serialized through a per-session distributed lock.
//
// # Basic Usage
//
// Without options the manager runs fully in-process, which is the setup
// for tests and single-node deployments:
//
//	manager := session.New()
//
//	sess, err := manager.Create(ctx, userID, session.TypeWeb, fingerprint.ClientContext{
//		IP:        "203.0.113.7",
//		UserAgent: r.UserAgent(),
//	}, nil)
//	if err != nil {
//		// Handle error
//		return
//	}
//
//	// sess.Token is the plaintext credential, available exactly once.
//	setCookie(w, sess.Token)
//
// Validate on every request:
//
//	sess, err := manager.Validate(ctx, tokenFromCookie, clientContext(r))
//	switch {
//	case errors.Is(err, session.ErrSessionExpired):
//		// Re-authenticate
//	case errors.Is(err, session.ErrFingerprintMismatch):
//		// Possible token theft, force re-authentication
//	case err != nil:
//		// Backend failure
//	}
//
// # Production Setup
//
// Wire the Redis cache tier, the Postgres durable tier, and the Redis
// locker explicitly:
//
//	store := session.NewTieredStore(
//		session.NewRedisCacheStore(redisClient),
//		session.NewPGDurableStore(pool),
//		session.WithTieredLogger(log),
//	)
//
//	manager := session.New(
//		session.WithConfig(cfg),
//		session.WithStore(store),
//		session.WithLocker(lock.NewRedisLocker(redisClient)),
//		session.WithAuditTrail(audit.NewTrail(audit.NewPGStorage(pool))),
//		session.WithLogger(log),
//	)
//
// The durable tier is the source of truth: every state change lands there
// first and the cache follows. A cold or unavailable cache degrades read
// latency, never correctness.
//
// # Lifecycle
//
// A session is active until it expires (time) or is revoked (explicit).
// Both terminal states are permanent. Expiry is applied lazily on read and
// swept in batches by CleanupExpired; revocation removes the session from
// the cache tier immediately and appends an audit entry before the call
// returns, so the trail survives the session row itself.
package session
