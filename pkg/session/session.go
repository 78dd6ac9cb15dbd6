package session

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
)

// SessionType classifies a session and selects its default TTL.
type SessionType string

const (
	TypeWeb    SessionType = "web"
	TypeMobile SessionType = "mobile"
	TypeAPI    SessionType = "api"
	TypeSSO    SessionType = "sso"
)

// Valid reports whether the type is one of the supported kinds.
func (t SessionType) Valid() bool {
	switch t {
	case TypeWeb, TypeMobile, TypeAPI, TypeSSO:
		return true
	}
	return false
}

// Status is the lifecycle state of a session. Active is the only live
// state; expired and revoked are terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusRevoked
}

// ReasonConcurrentLimit is the revocation reason recorded when a session is
// evicted to admit a newer one under the concurrent-session ceiling.
const ReasonConcurrentLimit = "concurrent_limit_exceeded"

// Session is a server-side record of an authenticated client's ongoing
// access grant.
//
// Token is plaintext and only populated on the value returned by Create and
// by Refresh with rotation; both tiers persist TokenHash instead, so the
// credential is retrievable exactly once.
type Session struct {
	ID               uuid.UUID               `json:"id"`
	UserID           uuid.UUID               `json:"user_id"`
	Type             SessionType             `json:"session_type"`
	Token            string                  `json:"-"`
	TokenHash        string                  `json:"token_hash"`
	Fingerprint      fingerprint.Fingerprint `json:"fingerprint"`
	Status           Status                  `json:"status"`
	Metadata         map[string]string       `json:"metadata,omitempty"`
	RevocationReason string                  `json:"revocation_reason,omitempty"`
	SSOProvider      string                  `json:"sso_provider,omitempty"`
	SSOData          map[string]string       `json:"sso_data,omitempty"`
	AccessCount      int64                   `json:"access_count"`
	RefreshCount     int64                   `json:"refresh_count"`
	CreatedAt        time.Time               `json:"created_at"`
	LastActivityAt   time.Time               `json:"last_activity_at"`
	ExpiresAt        time.Time               `json:"expires_at"`
}

// IsExpired reports whether the session's expiry has passed, regardless of
// the recorded status.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// IsActive reports whether the session is live: active status and an
// unexpired deadline.
func (s *Session) IsActive(now time.Time) bool {
	return s != nil && s.Status == StatusActive && !s.IsExpired(now)
}

// Clone returns a deep copy so store implementations can hand out sessions
// without sharing mutable map state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	clone := *s
	if s.Metadata != nil {
		clone.Metadata = make(map[string]string, len(s.Metadata))
		maps.Copy(clone.Metadata, s.Metadata)
	}
	if s.SSOData != nil {
		clone.SSOData = make(map[string]string, len(s.SSOData))
		maps.Copy(clone.SSOData, s.SSOData)
	}
	return &clone
}
