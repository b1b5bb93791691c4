package types

import (
	"time"

	"github.com/google/uuid"
)

// State is a stage of the pipeline state machine.
type State string

// Pipeline states, in order of normal progression. Error is reachable from
// any non-terminal state; Cancelled from either review state.
const (
	StateWaitingProfile State = "waiting_profile"
	StateSearching      State = "searching"
	StateGeneratingCVs  State = "generating_cvs"
	StateCVReview       State = "cv_review"
	StateFindingEmails  State = "finding_emails"
	StateEmailReview    State = "email_review"
	StateSending        State = "sending"
	StateDone           State = "done"
	StateError          State = "error"
	StateCancelled      State = "cancelled"
)

// Terminal reports whether the state ends a pipeline run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError || s == StateCancelled
}

// Review reports whether the state is an approval checkpoint.
func (s State) Review() bool {
	return s == StateCVReview || s == StateEmailReview
}

// ActivityEntry is one line of the live progress feed.
type ActivityEntry struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineSession holds all state for one user's active pipeline run.
// Mutated exclusively by the pipeline controller through the session store;
// readers poll snapshots.
type PipelineSession struct {
	SessionID        uuid.UUID         `json:"session_id"`
	OwnerID          uuid.UUID         `json:"owner_id"`
	State            State             `json:"state"`
	CandidateProfile *CandidateProfile `json:"candidate_profile,omitempty"`
	TargetRole       string            `json:"target_role"`
	TargetLocation   string            `json:"target_location"`
	JobCandidates    []JobCandidate    `json:"job_candidates,omitempty"`
	CVResults        []CVResult        `json:"cv_results,omitempty"`
	EmailDrafts      []EmailDraft      `json:"email_drafts,omitempty"`
	SendResults      []SendResult      `json:"send_results,omitempty"`
	ActivityLog      []ActivityEntry   `json:"activity_log,omitempty"`
	PendingApproval  *ApprovalRecord   `json:"pending_approval,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
