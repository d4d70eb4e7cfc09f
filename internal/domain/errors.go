package domain

import "errors"

// ErrUnauthorized marks authentication or permission failures surfaced by the
// remote collaborator. It is the one error kind the feed layer never recovers
// from locally: callers must propagate it so the UI can force re-auth.
var ErrUnauthorized = errors.New("unauthorized")

// IsUnauthorized reports whether err is (or wraps) an auth failure.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
