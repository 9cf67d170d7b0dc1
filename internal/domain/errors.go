package domain

import "errors"

var (
	// ErrNotFound is returned by stores when the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSession is returned when a sessionId does not match the active
	// session recorded for the user. This is a consistency check, not a
	// security boundary.
	ErrInvalidSession = errors.New("invalid session")
)
