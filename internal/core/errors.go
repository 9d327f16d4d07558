package core

import "errors"

// Error codes surfaced over the socket for protocol-level failures.
// Authorization failures are never surfaced; they are dropped silently.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeNotJoined      = "not_joined"
)

// ErrBadEnvelope is returned when a message sets neither or both of
// receiver and group.
var ErrBadEnvelope = errors.New("exactly one of receiver_id and group_id must be set")
