package store

import "errors"

var (
	// ErrNotConfigured is returned when no bridge address has been stored yet.
	ErrNotConfigured = errors.New(`bridge not configured, run "hue setup"`)

	// ErrNotLinked is returned when a bridge is known but pairing never succeeded.
	ErrNotLinked = errors.New(`bridge not linked, run "hue setup"`)
)
