package config

import "errors"

var (
	// ErrParseFailed indicates the environment could not be parsed into
	// the config struct
	ErrParseFailed = errors.New("config.parse_failed")

	// ErrNilTarget indicates a nil pointer was passed to Load
	ErrNilTarget = errors.New("config.nil_target")
)
