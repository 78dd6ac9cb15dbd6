package fingerprint

import (
	"net"
	"net/http"
	"strings"
)

// DeviceIDHeader carries an optional client-assigned device identifier.
const DeviceIDHeader = "X-Device-ID"

// FromRequest builds a ClientContext from an HTTP request: client IP from
// proxy headers with a connection-address fallback, the User-Agent header,
// and the device id header when the client supplies one.
func FromRequest(r *http.Request) ClientContext {
	return ClientContext{
		IP:        requestIP(r),
		UserAgent: r.UserAgent(),
		DeviceID:  r.Header.Get(DeviceIDHeader),
	}
}

// requestIP resolves the client address, preferring proxy headers in trust
// order and validating every candidate before using it.
func requestIP(r *http.Request) string {
	if ip := validIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For may hold a chain; the first valid hop is the client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for candidate := range strings.SplitSeq(forwarded, ",") {
			if ip := validIP(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := validIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return validIP(r.RemoteAddr)
	}
	return validIP(host)
}

// validIP returns the normalized address, or empty for anything that does
// not parse.
func validIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
