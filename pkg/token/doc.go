// Package token generates and hashes opaque bearer tokens for session
// credentials.
//
// Tokens carry no embedded payload: they are 256 bits of cryptographically
// secure randomness, URL-safe base64 encoded. The plaintext token is handed
// to the client exactly once; storage layers keep only the SHA-256 digest so
// a datastore compromise never exposes a usable credential.
//
// # Usage
//
//	raw, err := token.Generate()
//	if err != nil {
//	    return err
//	}
//	store.Save(token.Hash(raw)) // persist the digest, return raw to client
//
// Incoming tokens are matched by hashing the presented value and comparing
// digests. Equal performs a constant-time comparison for the rare cases where
// plaintext values must be compared directly.
package token
