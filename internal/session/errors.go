// Package session provides the concurrency-safe store of active pipeline
// sessions, keyed by owner, with compare-and-set stage transitions.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// ErrBusy indicates a session is already mid-stage and a second concurrent
// trigger was rejected rather than queued.
type ErrBusy struct {
	OwnerID uuid.UUID
	State   types.State
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("pipeline busy for owner %s (state %s)", e.OwnerID, e.State)
}

// ErrConflict indicates a compare-and-set stage advancement observed a
// different state than expected.
type ErrConflict struct {
	Expected types.State
	Actual   types.State
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("state conflict: expected %s, found %s", e.Expected, e.Actual)
}

// ErrNoSession indicates no active session exists for the owner.
type ErrNoSession struct {
	OwnerID uuid.UUID
}

func (e *ErrNoSession) Error() string {
	return fmt.Sprintf("no active session for owner %s", e.OwnerID)
}
