// Package pipeline sequences the job-application workflow: search postings,
// tailor a resume per posting, pause for CV review, discover recruiting
// contacts, draft outreach emails, pause for email review, then send.
// Stages run in background goroutines; clients observe progress by polling
// session snapshots.
package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/discovery"
	"github.com/jonathan/job-autopilot/internal/drafting"
	"github.com/jonathan/job-autopilot/internal/jobsearch"
	"github.com/jonathan/job-autopilot/internal/rendering"
	"github.com/jonathan/job-autopilot/internal/sending"
	"github.com/jonathan/job-autopilot/internal/session"
	"github.com/jonathan/job-autopilot/internal/tailoring"
	"github.com/jonathan/job-autopilot/internal/types"
)

const (
	defaultMaxJobs = 5
	maxJobsCap     = 10
)

// ProgressEvent mirrors one activity-log line for push-style consumers.
// Polling the session snapshot remains the baseline contract; the callback
// is a seam so a subscription feed can be added without touching the state
// machine.
type ProgressEvent struct {
	OwnerID uuid.UUID
	State   types.State
	Message string
}

// Deps are the controller's collaborators. Sender and History may be nil in
// degraded configurations; everything else is required.
type Deps struct {
	Search   jobsearch.Provider
	Tailor   tailoring.Tailor
	Discover *discovery.Service
	Drafter  drafting.Drafter
	Renderer *rendering.BatchRenderer
	Sender   sending.Sender
	History  *db.DB

	// GateTTL expires an unanswered approval gate, resolving it as
	// rejected. Zero disables expiry.
	GateTTL time.Duration

	// OnProgress receives a copy of every activity line. Optional.
	OnProgress func(ProgressEvent)
}

// Controller owns pipeline execution for all sessions in the store.
type Controller struct {
	store *session.Store
	deps  Deps
}

// NewController creates a pipeline controller over the given session store.
func NewController(store *session.Store, deps Deps) *Controller {
	return &Controller{store: store, deps: deps}
}

// Start validates the request, creates the session and begins background
// execution. It returns the session id immediately; progress is observed
// via Status.
func (c *Controller) Start(ownerID uuid.UUID, profile *types.CandidateProfile, role, location string, maxJobs int) (uuid.UUID, error) {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return uuid.Nil, &ValidationError{Field: "profile", Message: "a parsed candidate profile is required"}
	}
	if strings.TrimSpace(role) == "" {
		return uuid.Nil, &ValidationError{Field: "role", Message: "target role is required"}
	}
	if strings.TrimSpace(location) == "" {
		return uuid.Nil, &ValidationError{Field: "location", Message: "target location is required"}
	}
	if maxJobs <= 0 {
		maxJobs = defaultMaxJobs
	}
	if maxJobs > maxJobsCap {
		maxJobs = maxJobsCap
	}

	sess, err := c.store.Create(ownerID, profile, role, location)
	if err != nil {
		return uuid.Nil, err
	}

	if err := c.store.Advance(ownerID, types.StateWaitingProfile, types.StateSearching); err != nil {
		return uuid.Nil, err
	}
	c.logActivity(ownerID, "🔍 Searching for "+role+" roles in "+location)

	go c.runSearch(context.Background(), ownerID, role, location, maxJobs)

	return sess.SessionID, nil
}

// Status returns a snapshot of the owner's session, first resolving an
// expired approval gate if a TTL is configured.
func (c *Controller) Status(ownerID uuid.UUID) *types.PipelineSession {
	c.expireGateIfDue(ownerID)
	return c.store.Get(ownerID)
}

// Reset discards the owner's session so a fresh start succeeds.
func (c *Controller) Reset(ownerID uuid.UUID) {
	c.store.Reset(ownerID)
}

// expireGateIfDue resolves an overdue approval gate as rejected. Expiry is
// checked lazily on reads and decisions rather than by a background timer.
func (c *Controller) expireGateIfDue(ownerID uuid.UUID) {
	if c.deps.GateTTL <= 0 {
		return
	}
	sess := c.store.Get(ownerID)
	if sess == nil || sess.PendingApproval == nil {
		return
	}
	if time.Since(sess.PendingApproval.CreatedAt) < c.deps.GateTTL {
		return
	}
	err := c.store.AdvanceWith(ownerID, sess.State, types.StateCancelled, func(s *types.PipelineSession) {
		s.PendingApproval = nil
		s.CVResults = nil
		s.EmailDrafts = nil
	})
	if err != nil {
		return
	}
	c.logActivity(ownerID, "⚠️ Approval request expired, run cancelled")
}

// logActivity appends to the session activity feed, mirrors the line to the
// progress callback and the server log.
func (c *Controller) logActivity(ownerID uuid.UUID, message string) {
	c.store.AppendActivity(ownerID, message)
	log.Printf("[pipeline] %s: %s", ownerID, message)
	if c.deps.OnProgress != nil {
		state := types.State("")
		if sess := c.store.Get(ownerID); sess != nil {
			state = sess.State
		}
		c.deps.OnProgress(ProgressEvent{OwnerID: ownerID, State: state, Message: message})
	}
}

// fail moves the session to the error state and records the reason in the
// activity feed.
func (c *Controller) fail(ownerID uuid.UUID, reason string) {
	if err := c.store.Fail(ownerID, reason); err != nil {
		log.Printf("[pipeline] %s: failed to record error: %v", ownerID, err)
		return
	}
	c.logActivity(ownerID, "❌ "+reason)
}
