// Package fingerprint derives a stable signature of a client's network and
// device characteristics, used to detect stolen or replayed session tokens.
//
// A Fingerprint is computed once at session creation from a ClientContext
// (IP address, user agent, optional device identifier) and re-derived on
// every validation. The IP component is normalized to its subnet (/24 for
// IPv4, /64 for IPv6) before hashing so mobile clients roaming within a
// carrier network do not trip the check, while a token replayed from a
// different network does.
//
// Two match policies are supported:
//
//   - StrictnessStrict: every component must match.
//   - StrictnessLenient: a matching device identifier alone, or a matching
//     IP subnet alone, is sufficient.
//
// All comparisons are constant time.
//
// # Usage
//
//	fp := fingerprint.Generate(fingerprint.ClientContext{
//	    IP:        "203.0.113.7",
//	    UserAgent: r.UserAgent(),
//	    DeviceID:  deviceID,
//	})
//
//	if !stored.Match(fp, fingerprint.StrictnessStrict) {
//	    // reject the token
//	}
package fingerprint
