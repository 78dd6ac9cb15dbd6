package token

import "errors"

var (
	// ErrGeneration indicates the system entropy source failed
	ErrGeneration = errors.New("token.generation_failed")
)
