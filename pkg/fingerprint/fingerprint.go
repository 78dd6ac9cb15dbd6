package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"strings"
)

// Strictness controls how many fingerprint components must match during
// validation.
type Strictness string

const (
	// StrictnessStrict requires subnet, user agent, and device id to match.
	StrictnessStrict Strictness = "strict"

	// StrictnessLenient accepts a matching device id alone or a matching
	// IP subnet alone.
	StrictnessLenient Strictness = "lenient"
)

// Valid reports whether the strictness value is a recognized policy.
func (s Strictness) Valid() bool {
	return s == StrictnessStrict || s == StrictnessLenient
}

// ClientContext carries the raw client attributes supplied by the caller
// (API middleware or the authentication flow) on create and validate.
type ClientContext struct {
	IP        string
	UserAgent string
	DeviceID  string
}

// Fingerprint is the derived client signature stored on a session. Only
// digests are persisted; raw IP and user agent never leave the request path.
type Fingerprint struct {
	SubnetHash string `json:"subnet_hash,omitempty"`
	UAHash     string `json:"ua_hash,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

// Generate derives a fingerprint from the client context. Empty components
// yield empty digests rather than digests of the empty string, so a missing
// attribute can never satisfy a match against a present one.
func Generate(client ClientContext) Fingerprint {
	fp := Fingerprint{DeviceID: client.DeviceID}

	if subnet := normalizeSubnet(client.IP); subnet != "" {
		fp.SubnetHash = digest(subnet)
	}
	if ua := strings.TrimSpace(client.UserAgent); ua != "" {
		fp.UAHash = digest(ua)
	}

	return fp
}

// Match compares a stored fingerprint against a freshly derived one under
// the given policy. Unknown strictness values fall back to strict, never to
// a weaker check.
func (f Fingerprint) Match(current Fingerprint, strictness Strictness) bool {
	if strictness == StrictnessLenient {
		if f.DeviceID != "" && current.DeviceID != "" {
			return equal(f.DeviceID, current.DeviceID)
		}
		return f.SubnetHash != "" && equal(f.SubnetHash, current.SubnetHash)
	}

	return equal(f.SubnetHash, current.SubnetHash) &&
		equal(f.UAHash, current.UAHash) &&
		equal(f.DeviceID, current.DeviceID)
}

// IsZero reports whether no component was derived at all.
func (f Fingerprint) IsZero() bool {
	return f.SubnetHash == "" && f.UAHash == "" && f.DeviceID == ""
}

// normalizeSubnet reduces an IP to its containing subnet: /24 for IPv4,
// /64 for IPv6. Invalid addresses normalize to the empty string.
func normalizeSubnet(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(64, 128)).String() + "/64"
}

// digest returns the first 16 bytes of SHA-256 as a 32-character hex string.
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// equal is a constant-time string comparison.
func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
