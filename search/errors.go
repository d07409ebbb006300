package search

import (
	"fmt"

	"github.com/aluiziolira/smartmarket/api"
)

// TransportError is a failed analysis call. The previous dataset is left in place.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	switch api.ErrorTypeLabel(e.Err) {
	case "timeout":
		return "search timed out"
	case "connection":
		return "analysis service unreachable"
	default:
		return "search failed"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(err error) error {
	return &TransportError{Status: api.StatusCode(err), Err: err}
}
