package akinator

import (
	"errors"
	"fmt"

	"github.com/eolso/akinator/internal/resilience"
	"github.com/eolso/akinator/store"
)

var (
	// ErrSessionNotFound is returned for game ids that were never started or
	// whose cached state expired.
	ErrSessionNotFound = errors.New("akinator: game session not found")
	ErrInvalidAnswer   = errors.New("akinator: invalid answer")
	ErrCannotGoBack    = errors.New("akinator: unable to go back")
	ErrSessionExpired  = errors.New("akinator: session timed out upstream")
	ErrNoMoreQuestions = errors.New("akinator: no more questions")

	ErrUpstreamUnavailable = errors.New("akinator: host unreachable or transport failure")
	ErrUpstreamStatus      = errors.New("akinator: unexpected HTTP status")
	ErrUpstreamRejected    = errors.New("akinator: request rejected")
	ErrBadResponse         = errors.New("akinator: invalid response format or malformed data")
	ErrCircuitOpen         = resilience.ErrCircuitOpen
)

// APIError wraps one of the sentinel errors with the context of the failed call.
type APIError struct {
	Sentinel   error
	Op         string
	Status     int
	Completion string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Completion != "" {
		msg = fmt.Sprintf("%s: completion %q", msg, e.Completion)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

func completionError(op, completion string) error {
	var sentinel error
	switch completion {
	case "", "OK":
		return nil
	case "KO - TIMEOUT":
		sentinel = ErrSessionExpired
	case "KO - ELEM LIST IS EMPTY", "WARN - NO QUESTION":
		sentinel = ErrNoMoreQuestions
	default:
		sentinel = ErrUpstreamRejected
	}
	return &APIError{Sentinel: sentinel, Op: op, Completion: completion}
}

func sessionError(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return fmt.Errorf("load session %s: %w", id, err)
}
