package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// checkGate verifies that the session is parked at the expected gate with a
// matching pending approval.
func (c *Controller) checkGate(ownerID, approvalID uuid.UUID, gate types.ApprovalType, state types.State) (*types.PipelineSession, error) {
	c.expireGateIfDue(ownerID)

	sess := c.store.Get(ownerID)
	if sess == nil {
		return nil, &ApprovalError{Message: "no active pipeline session"}
	}
	if sess.State != state || sess.PendingApproval == nil {
		return nil, &ApprovalError{Message: fmt.Sprintf("no pending %s approval", gate)}
	}
	if sess.PendingApproval.ApprovalType != gate {
		return nil, &ApprovalError{Message: fmt.Sprintf("pending approval is %s, not %s", sess.PendingApproval.ApprovalType, gate)}
	}
	if sess.PendingApproval.ApprovalID != approvalID {
		return nil, &ApprovalError{Message: "approval id does not match the pending request"}
	}
	return sess, nil
}

// ApproveCVReview resolves the CV review gate. keepJobIDs optionally narrows
// the run to a subset of jobs; an empty list keeps everything. The state
// transition is the compare-and-set, so a concurrent duplicate decision
// loses cleanly.
func (c *Controller) ApproveCVReview(ctx context.Context, ownerID, approvalID uuid.UUID, keepJobIDs []string) error {
	if _, err := c.checkGate(ownerID, approvalID, types.ApprovalCVReview, types.StateCVReview); err != nil {
		return err
	}

	err := c.store.AdvanceWith(ownerID, types.StateCVReview, types.StateFindingEmails, func(s *types.PipelineSession) {
		if s.PendingApproval != nil {
			s.PendingApproval.Resolution = types.ResolutionApproved
			if len(keepJobIDs) > 0 {
				s.PendingApproval.ContentModified = keepJobIDs
			}
		}
		s.PendingApproval = nil

		if len(keepJobIDs) > 0 {
			keep := make(map[string]bool, len(keepJobIDs))
			for _, id := range keepJobIDs {
				keep[id] = true
			}
			kept := s.CVResults[:0]
			for _, r := range s.CVResults {
				if keep[r.JobID] {
					kept = append(kept, r)
				}
			}
			s.CVResults = kept
		}
	})
	if err != nil {
		return err
	}
	c.logActivity(ownerID, "✅ Resumes approved, finding recruiting contacts")

	go c.runDiscoveryAndDrafting(context.WithoutCancel(ctx), ownerID)
	return nil
}

// ApproveEmailReview resolves the email review gate. The submitted rows are
// what get sent: subject, body and recipient edits override the originals,
// and a draft omitted from the submission is dropped from the run. An empty
// submission sends every draft unchanged.
func (c *Controller) ApproveEmailReview(ctx context.Context, ownerID, approvalID uuid.UUID, edited []types.EmailDraft) error {
	sess, err := c.checkGate(ownerID, approvalID, types.ApprovalEmailSend, types.StateEmailReview)
	if err != nil {
		return err
	}

	final := resolveDrafts(sess.EmailDrafts, edited)

	err = c.store.AdvanceWith(ownerID, types.StateEmailReview, types.StateSending, func(s *types.PipelineSession) {
		if s.PendingApproval != nil {
			s.PendingApproval.Resolution = types.ResolutionApproved
			s.PendingApproval.ContentModified = edited
		}
		s.PendingApproval = nil
		s.EmailDrafts = final
	})
	if err != nil {
		return err
	}
	c.logActivity(ownerID, fmt.Sprintf("✅ Drafts approved, sending %d applications", len(final)))

	go c.runSending(context.WithoutCancel(ctx), ownerID, final)
	return nil
}

// resolveDrafts merges user edits into the original drafts. Rows are
// matched by job id; unknown ids are ignored, and when any rows were
// submitted, originals not among them are dropped.
func resolveDrafts(originals, edited []types.EmailDraft) []types.EmailDraft {
	if len(edited) == 0 {
		return originals
	}

	byID := make(map[string]types.EmailDraft, len(originals))
	for _, d := range originals {
		byID[d.JobID] = d
	}

	final := make([]types.EmailDraft, 0, len(edited))
	for _, row := range edited {
		original, ok := byID[row.JobID]
		if !ok {
			continue
		}
		if strings.TrimSpace(row.Subject) != "" {
			original.Subject = row.Subject
		}
		if strings.TrimSpace(row.Body) != "" {
			original.Body = row.Body
		}
		if strings.TrimSpace(row.HREmail) != "" && row.HREmail != original.HREmail {
			original.HREmail = row.HREmail
			// A hand-entered address invalidates any earlier verification.
			original.EmailVerified = false
			original.EmailVerifyResult = types.VerifyUnknown
		}
		final = append(final, original)
	}
	return final
}

// Reject resolves either review gate as rejected: a hard cancellation that
// discards the run's in-progress artifacts. A fresh start succeeds
// afterwards.
func (c *Controller) Reject(ownerID, approvalID uuid.UUID) error {
	c.expireGateIfDue(ownerID)

	sess := c.store.Get(ownerID)
	if sess == nil {
		return &ApprovalError{Message: "no active pipeline session"}
	}
	if !sess.State.Review() || sess.PendingApproval == nil {
		return &ApprovalError{Message: "no pending approval to reject"}
	}
	if sess.PendingApproval.ApprovalID != approvalID {
		return &ApprovalError{Message: "approval id does not match the pending request"}
	}

	err := c.store.AdvanceWith(ownerID, sess.State, types.StateCancelled, func(s *types.PipelineSession) {
		s.PendingApproval = nil
		s.CVResults = nil
		s.EmailDrafts = nil
	})
	if err != nil {
		return err
	}
	c.logActivity(ownerID, "⚠️ Run cancelled, artifacts discarded")
	return nil
}
