package types

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalType names the review checkpoint an approval belongs to.
type ApprovalType string

// Approval checkpoint types.
const (
	ApprovalCVReview  ApprovalType = "cv_review"
	ApprovalEmailSend ApprovalType = "email_send"
)

// Resolution is the lifecycle state of an approval record.
type Resolution string

// Approval resolutions.
const (
	ResolutionPending  Resolution = "pending"
	ResolutionApproved Resolution = "approved"
	ResolutionRejected Resolution = "rejected"
)

// ApprovalRecord is a first-class suspension point: the pipeline halts when
// one is created and resumes (or tears down) when its resolution is
// finalized. ContentOriginal snapshots the proposed artifacts at creation;
// ContentModified carries any user edits submitted with the decision.
type ApprovalRecord struct {
	ApprovalID      uuid.UUID    `json:"approval_id"`
	ApprovalType    ApprovalType `json:"approval_type"`
	CreatedAt       time.Time    `json:"created_at"`
	ContentOriginal any          `json:"content_original,omitempty"`
	ContentModified any          `json:"content_modified,omitempty"`
	Resolution      Resolution   `json:"resolution"`
}

// NewApprovalRecord creates a pending approval of the given type holding a
// snapshot of the proposed content.
func NewApprovalRecord(approvalType ApprovalType, content any) *ApprovalRecord {
	return &ApprovalRecord{
		ApprovalID:      uuid.New(),
		ApprovalType:    approvalType,
		CreatedAt:       time.Now(),
		ContentOriginal: content,
		Resolution:      ResolutionPending,
	}
}
