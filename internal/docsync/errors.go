package docsync

import "errors"

var (
	// ErrLoadFailure wraps any failure to fetch or decode the initial document.
	ErrLoadFailure = errors.New("document load failed")

	// ErrClosed is returned by Bootstrap after the session was torn down.
	ErrClosed = errors.New("sync controller closed")
)
