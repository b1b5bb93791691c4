package discovery

import "fmt"

// ProviderError represents a failure calling the discovery provider that is
// not attributable to a single address (network, auth, quota).
type ProviderError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery provider error (%s): %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery provider error (%s): %s", e.Operation, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
