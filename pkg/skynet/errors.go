package skynet

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a required response field is absent or null.
var ErrMissingField = errors.New("missing required field")

// FailureKind classifies why an assessment call could not produce a service result.
type FailureKind string

const (
	// FailureRequest covers request construction: bad endpoint, marshal errors, rate limiting.
	FailureRequest FailureKind = "request"
	// FailureTransport covers unreachable hosts, resets and caller cancellation.
	FailureTransport FailureKind = "transport"
	// FailureTimeout means the round trip exceeded the client timeout.
	FailureTimeout FailureKind = "timeout"
	// FailureProtocol covers non-2xx statuses and unreadable or unparsable bodies.
	FailureProtocol FailureKind = "protocol"
	// FailureSchema covers missing envelopes or fields, mistyped values and unknown states.
	FailureSchema FailureKind = "schema"
)

// FailureKinds lists every failure kind. All of them lead to the fallback record.
var FailureKinds = []FailureKind{FailureRequest, FailureTransport, FailureTimeout, FailureProtocol, FailureSchema}

func (k FailureKind) String() string { return string(k) }

// FailureError describes a failed assessment call.
type FailureError struct {
	Op     string      // pressure, verbosity or half-life
	Kind   FailureKind // failure category
	Status int         // HTTP status, when a response was received
	// RequestID is the X-Request-ID sent with the call, if one was built.
	RequestID string
	Err       error
}

func (e *FailureError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("skynet %s: %s failure (HTTP %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("skynet %s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// KindOf returns the failure kind carried by err, or "" if err is not a *FailureError.
func KindOf(err error) FailureKind {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsFallbackCause reports whether err is an assessment failure, i.e. one
// that the fallback wrappers absorb.
func IsFallbackCause(err error) bool {
	return KindOf(err) != ""
}
