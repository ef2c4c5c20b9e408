// Package common defines shared constants and sentinel errors used across
// the echosync client and relay. Callers should use errors.Is to match these
// values; producers wrap them with fmt.Errorf("...: %w", err).
package common

import "errors"

var (
	// Connection-level errors. Only these change the observable sync status.
	ErrTransport = errors.New("transport error")

	// Per-message errors. A frame failing with one of these is dropped.
	ErrAuthentication   = errors.New("message authentication failed")
	ErrMalformedMessage = errors.New("malformed message")

	// Local secure store could not be reached.
	ErrStorage = errors.New("secure store unavailable")

	// OS clipboard denied access.
	ErrPlatform = errors.New("clipboard access denied")

	// History / repository errors.
	ErrNotFound = errors.New("not found")

	// Key material errors.
	ErrCorruptKey = errors.New("stored key is corrupt")
	ErrInvalidKey = errors.New("invalid key length")

	// Linking errors.
	ErrInvalidLink = errors.New("invalid link uri")

	// Auth errors (invalid or malformed bearer token).
	ErrInvalidToken = errors.New("invalid token")
)
