package auth

import (
	"errors"
	"time"
)

// ErrInFlight is returned when a login or register is submitted while another is pending.
var ErrInFlight = errors.New("a request is already in progress")

// PreconditionError is a local validation failure tied to one form field.
// It never reaches the network.
type PreconditionError struct {
	Field   string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// RateLimitError is returned while the local lockout is active (Local) or
// when the server answered 429.
type RateLimitError struct {
	Message   string
	Local     bool
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RejectedError is an authoritative refusal from the server: 401 on login,
// 409 or 422 on register.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// FailureError covers every other failure: unexpected statuses and transport errors.
type FailureError struct {
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	return e.Message
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

func withServerMessage(base, msg string) string {
	if msg == "" {
		return base
	}
	return base + ": " + msg
}
