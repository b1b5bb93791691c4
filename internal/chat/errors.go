package chat

import "fmt"

// ErrorKind classifies chat-service failures so callers can show an
// actionable message instead of a raw transport error.
type ErrorKind string

const (
	// KindUnreachable means the service itself could not be reached
	// (connection refused, DNS failure, timeout).
	KindUnreachable ErrorKind = "unreachable"
	// KindModelNotFound means the service is up but does not have the
	// requested model.
	KindModelNotFound ErrorKind = "model_not_found"
	// KindBadResponse covers everything else: non-2xx statuses and
	// responses we cannot decode.
	KindBadResponse ErrorKind = "bad_response"
)

// ServiceError is returned for all chat-service failures.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat service error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("chat service error (%s): %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
