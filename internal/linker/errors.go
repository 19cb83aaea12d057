package linker

import "errors"

var (
	// ErrNotFound is returned when discovery yields no bridge, or none at
	// the requested address.
	ErrNotFound = errors.New("no bridge found")

	// ErrLinkFailed is returned when the bridge refuses or fails to pair.
	ErrLinkFailed = errors.New("cannot link")
)
