package source

import "errors"

var (
	// ErrEnumeration is returned when a pattern cannot be scanned.
	// It is fatal for the run that requested the scan.
	ErrEnumeration = errors.New("document enumeration failed")

	// ErrNoPatterns is returned when an enumerator is built without patterns.
	ErrNoPatterns = errors.New("at least one source pattern is required")
)
