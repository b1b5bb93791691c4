package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Store holds at most one active PipelineSession per owner. Stage advancement
// is an atomic compare-and-set on the session state; that is the sole
// serialization mechanism for pipeline progress.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*types.PipelineSession
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*types.PipelineSession)}
}

// Create starts a new session for the owner. If a non-terminal session
// already exists, the call is rejected with ErrBusy.
func (s *Store) Create(ownerID uuid.UUID, profile *types.CandidateProfile, role, location string) (*types.PipelineSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[ownerID]; ok && !existing.State.Terminal() {
		return nil, &ErrBusy{OwnerID: ownerID, State: existing.State}
	}

	now := time.Now()
	sess := &types.PipelineSession{
		SessionID:        uuid.New(),
		OwnerID:          ownerID,
		State:            types.StateWaitingProfile,
		CandidateProfile: profile,
		TargetRole:       role,
		TargetLocation:   location,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.sessions[ownerID] = sess
	return s.snapshotLocked(sess), nil
}

// Advance performs a compare-and-set transition from the expected state to
// the next one. A concurrent trigger that lost the race observes a state
// mismatch and gets ErrConflict instead of double-running a stage.
func (s *Store) Advance(ownerID uuid.UUID, from, to types.State) error {
	return s.AdvanceWith(ownerID, from, to, nil)
}

// AdvanceWith performs the compare-and-set transition and applies fn to the
// session inside the same critical section. Mutations that belong to a
// transition (installing or resolving an approval gate) must ride along
// here: a polling reader must never observe the new state without them.
func (s *Store) AdvanceWith(ownerID uuid.UUID, from, to types.State, fn func(*types.PipelineSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return &ErrNoSession{OwnerID: ownerID}
	}
	if sess.State != from {
		return &ErrConflict{Expected: from, Actual: sess.State}
	}
	sess.State = to
	if fn != nil {
		fn(sess)
	}
	sess.UpdatedAt = time.Now()
	return nil
}

// Update applies a mutation to the owner's session under the store lock.
// Only the pipeline controller may call this.
func (s *Store) Update(ownerID uuid.UUID, fn func(*types.PipelineSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return &ErrNoSession{OwnerID: ownerID}
	}
	fn(sess)
	sess.UpdatedAt = time.Now()
	return nil
}

// Fail moves the session to the error state with the given reason,
// preserving partial results for inspection.
func (s *Store) Fail(ownerID uuid.UUID, reason string) error {
	return s.Update(ownerID, func(sess *types.PipelineSession) {
		sess.State = types.StateError
		sess.Error = reason
		sess.PendingApproval = nil
	})
}

// Get returns a deep snapshot of the owner's session for polling reads,
// or nil if none exists.
func (s *Store) Get(ownerID uuid.UUID) *types.PipelineSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return nil
	}
	return s.snapshotLocked(sess)
}

// Reset removes the owner's session so a fresh start succeeds.
func (s *Store) Reset(ownerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ownerID)
}

// snapshotLocked deep-copies a session via JSON round-trip. Sessions are
// small (bounded activity log, tens of jobs) so this is cheap enough for a
// polling endpoint.
func (s *Store) snapshotLocked(sess *types.PipelineSession) *types.PipelineSession {
	data, err := json.Marshal(sess)
	if err != nil {
		copied := *sess
		return &copied
	}
	var copied types.PipelineSession
	if err := json.Unmarshal(data, &copied); err != nil {
		fallback := *sess
		return &fallback
	}
	return &copied
}
