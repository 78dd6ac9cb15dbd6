package audit

import "errors"

var (
	// ErrEntryValidation indicates the entry is missing required fields
	ErrEntryValidation = errors.New("audit.entry_validation")

	// ErrStorageFailed indicates the backing store rejected the write or read
	ErrStorageFailed = errors.New("audit.storage_failed")
)
