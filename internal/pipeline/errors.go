package pipeline

import "fmt"

// ValidationError rejects a malformed request synchronously, without
// touching session state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ApprovalError reports a decision that cannot be applied: wrong approval
// id, wrong gate, or an expired gate.
type ApprovalError struct {
	Message string
}

func (e *ApprovalError) Error() string {
	return "approval error: " + e.Message
}
