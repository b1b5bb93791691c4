package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-autopilot/internal/discovery"
	"github.com/jonathan/job-autopilot/internal/types"
)

// tailorConcurrency bounds how many resumes are tailored at once so a
// large batch cannot flood the completion provider.
const tailorConcurrency = 3

// runSearch executes the job-search stage and, on success, feeds the
// tailoring stage.
func (c *Controller) runSearch(ctx context.Context, ownerID uuid.UUID, role, location string, maxJobs int) {
	jobs, err := c.deps.Search.Search(ctx, role, location, maxJobs)
	if err != nil {
		c.fail(ownerID, fmt.Sprintf("job search failed: %v", err))
		return
	}
	if len(jobs) == 0 {
		// Recoverable terminal: the user may start over with a different
		// role or location without an explicit reset.
		c.fail(ownerID, fmt.Sprintf("no jobs found for %q in %q", role, location))
		return
	}

	c.store.Update(ownerID, func(s *types.PipelineSession) {
		s.JobCandidates = jobs
	})
	if err := c.store.Advance(ownerID, types.StateSearching, types.StateGeneratingCVs); err != nil {
		log.Printf("[pipeline] %s: search stage lost transition: %v", ownerID, err)
		return
	}
	c.logActivity(ownerID, fmt.Sprintf("✅ Found %d matching jobs, tailoring resumes", len(jobs)))

	c.runTailoring(ctx, ownerID)
}

// runTailoring produces one CVResult per JobCandidate, then enters the CV
// review gate. Per-item failures are recorded on the result, never fatal.
func (c *Controller) runTailoring(ctx context.Context, ownerID uuid.UUID) {
	sess := c.store.Get(ownerID)
	if sess == nil {
		return
	}
	profile := sess.CandidateProfile
	jobs := sess.JobCandidates

	results := make([]types.CVResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tailorConcurrency)
	for i := range jobs {
		g.Go(func() error {
			job := jobs[i]
			result, err := c.deps.Tailor.TailorCV(gctx, profile, job)
			if err != nil {
				results[i] = types.CVResult{JobID: job.JobID, Error: err.Error()}
				c.logActivity(ownerID, fmt.Sprintf("⚠️ Tailoring failed for %s at %s", job.Title, job.Company))
				return nil
			}
			results[i] = *result
			c.logActivity(ownerID, fmt.Sprintf("📄 Tailored resume for %s at %s (ATS %d)", job.Title, job.Company, result.ATSScore.Overall))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[pipeline] %s: tailoring worker error: %v", ownerID, err)
	}

	// The gate record rides along with the transition: a status poll must
	// never see cv_review without a pending approval.
	approval := types.NewApprovalRecord(types.ApprovalCVReview, results)
	err := c.store.AdvanceWith(ownerID, types.StateGeneratingCVs, types.StateCVReview, func(s *types.PipelineSession) {
		s.CVResults = results
		s.PendingApproval = approval
	})
	if err != nil {
		log.Printf("[pipeline] %s: tailoring stage lost transition: %v", ownerID, err)
		return
	}
	c.logActivity(ownerID, fmt.Sprintf("✅ %d resumes ready, waiting for your review", len(results)))

	// Documents are a value-add: render concurrently with the review so a
	// slow or broken engine never blocks the gate.
	go c.renderDocuments(ctx, ownerID, profile.Name, jobs)
}

// renderDocuments runs the batch renderer and folds artifact paths back
// into the session. Failures degrade to no documents.
func (c *Controller) renderDocuments(ctx context.Context, ownerID uuid.UUID, owner string, jobs []types.JobCandidate) {
	if c.deps.Renderer == nil {
		return
	}
	sess := c.store.Get(ownerID)
	if sess == nil {
		return
	}

	jobsByID := make(map[string]types.JobCandidate, len(jobs))
	for _, job := range jobs {
		jobsByID[job.JobID] = job
	}

	rendered := c.deps.Renderer.RenderBatch(ctx, owner, sess.CVResults, jobsByID)

	c.store.Update(ownerID, func(s *types.PipelineSession) {
		paths := make(map[string]string, len(rendered))
		for _, r := range rendered {
			if r.HasDocument {
				paths[r.JobID] = r.DocumentPath
			}
		}
		for i := range s.CVResults {
			if path, ok := paths[s.CVResults[i].JobID]; ok {
				s.CVResults[i].DocumentPath = path
				s.CVResults[i].HasDocument = true
			}
		}
	})
}

// runDiscoveryAndDrafting finds a recruiting contact and drafts an outreach
// email for every retained job, then enters the email review gate.
func (c *Controller) runDiscoveryAndDrafting(ctx context.Context, ownerID uuid.UUID) {
	sess := c.store.Get(ownerID)
	if sess == nil {
		return
	}
	profile := sess.CandidateProfile

	retained := make(map[string]bool, len(sess.CVResults))
	for _, r := range sess.CVResults {
		if r.CV != nil && r.Error == "" {
			retained[r.JobID] = true
		}
	}

	drafts := make([]types.EmailDraft, 0, len(retained))
	for _, job := range sess.JobCandidates {
		if !retained[job.JobID] {
			continue
		}
		draft := c.draftForJob(ctx, ownerID, profile, job)
		drafts = append(drafts, draft)
	}

	approval := types.NewApprovalRecord(types.ApprovalEmailSend, drafts)
	err := c.store.AdvanceWith(ownerID, types.StateFindingEmails, types.StateEmailReview, func(s *types.PipelineSession) {
		s.EmailDrafts = drafts
		s.PendingApproval = approval
	})
	if err != nil {
		log.Printf("[pipeline] %s: discovery stage lost transition: %v", ownerID, err)
		return
	}
	c.logActivity(ownerID, fmt.Sprintf("✅ %d email drafts ready, waiting for your review", len(drafts)))
}

// draftForJob resolves a recruiting address for one job (discovery first,
// LLM estimate as fallback, none as last resort) and generates the outreach
// email. All failures are item-level.
func (c *Controller) draftForJob(ctx context.Context, ownerID uuid.UUID, profile *types.CandidateProfile, job types.JobCandidate) types.EmailDraft {
	draft := types.EmailDraft{
		JobID:       job.JobID,
		Company:     job.Company,
		JobTitle:    job.Title,
		EmailSource: types.EmailSourceNone,
	}

	result, err := c.deps.Discover.FindRecruitingEmail(ctx, job.Company, "")
	switch {
	case err != nil:
		log.Printf("[pipeline] %s: discovery failed for %s: %v", ownerID, job.Company, err)
	case result.Found:
		draft.HREmail = result.Email
		draft.EmailSource = types.EmailSourceDiscovery
		draft.EmailVerified = result.VerifyResult == types.VerifyDeliverable
		draft.EmailVerifyResult = result.VerifyResult
		c.logActivity(ownerID, fmt.Sprintf("📧 Found recruiting contact %s for %s (%s)", result.Email, job.Company, result.VerifyResult))
	default:
		c.logActivity(ownerID, fmt.Sprintf("🔍 No recruiting contact found for %s (%s)", job.Company, result.Reason))
	}

	if draft.HREmail == "" {
		domain := discovery.DeriveDomain(job.Company, "")
		if domain != "" {
			if estimate, estErr := c.deps.Drafter.EstimateHREmail(ctx, job.Company, domain); estErr == nil {
				draft.HREmail = estimate
				draft.EmailSource = types.EmailSourceEstimate
				draft.EmailVerifyResult = types.VerifyUnknown
				c.logActivity(ownerID, fmt.Sprintf("📧 Estimated recruiting address %s for %s", estimate, job.Company))
			}
		}
	}

	subject, body, err := c.deps.Drafter.DraftEmail(ctx, profile, job, draft.HREmail)
	if err != nil {
		draft.Error = err.Error()
		c.logActivity(ownerID, fmt.Sprintf("⚠️ Draft generation failed for %s", job.Company))
		return draft
	}
	draft.Subject = subject
	draft.Body = body
	return draft
}

// runSending dispatches the approved drafts one at a time. Per-row failure
// is recorded in SendResults and never blocks the rest of the batch.
func (c *Controller) runSending(ctx context.Context, ownerID uuid.UUID, drafts []types.EmailDraft) {
	results := make([]types.SendResult, 0, len(drafts))
	for _, draft := range drafts {
		result := types.SendResult{JobID: draft.JobID, Company: draft.Company, HREmail: draft.HREmail}

		switch {
		case strings.TrimSpace(draft.HREmail) == "":
			result.Error = "no recipient address"
			c.logActivity(ownerID, fmt.Sprintf("⚠️ Skipped %s: no recipient address", draft.Company))
		case c.deps.Sender == nil:
			result.Error = "email sending is not configured"
		default:
			if err := c.deps.Sender.Send(ctx, draft); err != nil {
				result.Error = err.Error()
				c.logActivity(ownerID, fmt.Sprintf("❌ Send failed for %s: %v", draft.Company, err))
			} else {
				result.Sent = true
				c.logActivity(ownerID, fmt.Sprintf("✅ Application sent to %s at %s", draft.HREmail, draft.Company))
			}
		}
		results = append(results, result)
	}

	c.store.Update(ownerID, func(s *types.PipelineSession) {
		s.SendResults = results
	})
	if err := c.store.Advance(ownerID, types.StateSending, types.StateDone); err != nil {
		log.Printf("[pipeline] %s: sending stage lost transition: %v", ownerID, err)
		return
	}

	sent := 0
	for _, r := range results {
		if r.Sent {
			sent++
		}
	}
	c.logActivity(ownerID, fmt.Sprintf("✅ Pipeline complete: %d of %d applications sent", sent, len(results)))

	c.persistHistory(ctx, ownerID)
}

// persistHistory writes the finished run to the application-history store.
// Persistence is best effort: a missing or failing database never affects
// the completed run.
func (c *Controller) persistHistory(ctx context.Context, ownerID uuid.UUID) {
	if c.deps.History == nil {
		return
	}
	sess := c.store.Get(ownerID)
	if sess == nil {
		return
	}
	if err := c.deps.History.SaveApplicationHistory(ctx, ownerID, sess); err != nil {
		log.Printf("[pipeline] %s: history persistence failed: %v", ownerID, err)
	}
}
