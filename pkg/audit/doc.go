// Package audit maintains the append-only trail of session lifecycle
// events: creation, expiry, token rotation, SSO migration, and above all
// revocation.
//
// The trail is intentionally separate from the mutable session record.
// Cleanup may remove a session's live row long after expiry or revocation,
// but the audit entries persist independently, so "why was this session
// revoked" stays answerable for compliance review.
//
// A Trail writes entries through a pluggable Storage backend and reads them
// back by Criteria (session, user, action, time range). A Postgres-backed
// storage ships for production and an in-memory one for tests.
//
// # Usage
//
//	trail := audit.NewTrail(audit.NewPGStorage(pool))
//
//	err := trail.Record(ctx, audit.Entry{
//	    SessionID: sessionID,
//	    UserID:    userID,
//	    Action:    audit.ActionRevoked,
//	    Reason:    "user_logout",
//	})
//
//	entries, err := trail.Find(ctx, audit.Criteria{SessionID: &sessionID})
package audit
