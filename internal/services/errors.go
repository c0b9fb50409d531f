package services

import "errors"

// ErrInvalidInput marks request-shaped failures such as an empty title
// or a negative duration. Handlers map it to a client error instead of
// a server fault.
var ErrInvalidInput = errors.New("invalid input")
