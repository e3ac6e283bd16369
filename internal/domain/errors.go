package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrMalformedEvent = errors.New("malformed webhook payload")
	ErrStaleEvent     = errors.New("webhook emitted outside the replay window")
	ErrNotFound       = errors.New("not found")
)
