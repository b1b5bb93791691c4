package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/server/middleware"
	"github.com/jonathan/job-autopilot/internal/types"
)

// StartRequest represents the request body for /pipeline/start. Exactly one
// of Profile (already structured) or ProfileText (raw resume) is required.
type StartRequest struct {
	Role        string                  `json:"role" validate:"required,min=2"`
	Location    string                  `json:"location" validate:"required,min=2"`
	MaxJobs     int                     `json:"max_jobs" validate:"omitempty,min=1,max=10"`
	Profile     *types.CandidateProfile `json:"profile,omitempty"`
	ProfileText string                  `json:"profile_text,omitempty"`
}

// StartResponse represents the response for /pipeline/start
type StartResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// StatusResponse is the polled pipeline snapshot.
type StatusResponse struct {
	State           types.State           `json:"state"`
	Error           string                `json:"error,omitempty"`
	JobCandidates   []types.JobCandidate  `json:"job_candidates,omitempty"`
	CVResults       []types.CVResult      `json:"cv_results,omitempty"`
	EmailDrafts     []types.EmailDraft    `json:"email_drafts,omitempty"`
	SendResults     []types.SendResult    `json:"send_results,omitempty"`
	PendingApproval *types.ApprovalRecord `json:"pending_approval,omitempty"`
	Activity        []types.ActivityEntry `json:"activity,omitempty"`
}

// handleStart validates the request and kicks off a pipeline run.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	profile := req.Profile
	if profile == nil {
		if req.ProfileText == "" {
			s.errorResponse(w, http.StatusBadRequest, "Either profile or profile_text is required")
			return
		}
		if s.parseProfile == nil {
			s.errorResponse(w, http.StatusServiceUnavailable, "Resume parsing is not configured")
			return
		}
		parsed, err := s.parseProfile(r.Context(), req.ProfileText)
		if err != nil {
			s.errorResponse(w, http.StatusUnprocessableEntity, "Could not parse the resume: "+err.Error())
			return
		}
		profile = parsed
	}

	sessionID, err := s.controller.Start(ownerID, profile, req.Role, req.Location, req.MaxJobs)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, StartResponse{
		SessionID: sessionID.String(),
		State:     string(types.StateSearching),
	})
}

// handleStatus returns the full session snapshot for polling clients.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess := s.controller.Status(ownerID)
	if sess == nil {
		s.errorResponse(w, http.StatusNotFound, "No active pipeline session")
		return
	}

	s.jsonResponse(w, http.StatusOK, StatusResponse{
		State:           sess.State,
		Error:           sess.Error,
		JobCandidates:   sess.JobCandidates,
		CVResults:       sess.CVResults,
		EmailDrafts:     sess.EmailDrafts,
		SendResults:     sess.SendResults,
		PendingApproval: sess.PendingApproval,
		Activity:        sess.ActivityLog,
	})
}

// CVApproveRequest optionally narrows the approved run to a job subset.
type CVApproveRequest struct {
	KeepJobIDs []string `json:"keep_job_ids,omitempty"`
}

// handleApproveCVReview resolves the CV review gate as approved.
func (s *Server) handleApproveCVReview(w http.ResponseWriter, r *http.Request) {
	ownerID, approvalID, ok := s.approvalIdentity(w, r)
	if !ok {
		return
	}

	var req CVApproveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := s.controller.ApproveCVReview(r.Context(), ownerID, approvalID, req.KeepJobIDs); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "approved"})
}

// EmailApproveRequest carries the reviewed drafts. Rows may be edited;
// omitted rows are dropped; an empty list sends everything unchanged.
type EmailApproveRequest struct {
	Drafts []types.EmailDraft `json:"drafts,omitempty"`
}

// handleApproveEmailReview resolves the email review gate as approved.
func (s *Server) handleApproveEmailReview(w http.ResponseWriter, r *http.Request) {
	ownerID, approvalID, ok := s.approvalIdentity(w, r)
	if !ok {
		return
	}

	var req EmailApproveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := s.controller.ApproveEmailReview(r.Context(), ownerID, approvalID, req.Drafts); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "approved"})
}

// RejectRequest identifies the pending approval being rejected.
type RejectRequest struct {
	ApprovalID string `json:"approval_id" validate:"required,uuid"`
}

// handleReject resolves the pending gate as rejected, cancelling the run.
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	approvalID, err := uuid.Parse(req.ApprovalID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid approval_id")
		return
	}

	if err := s.controller.Reject(ownerID, approvalID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// handleReset discards the owner's session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	s.controller.Reset(ownerID)
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleActivity returns just the live progress feed.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess := s.controller.Status(ownerID)
	if sess == nil {
		s.errorResponse(w, http.StatusNotFound, "No active pipeline session")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"activity": sess.ActivityLog})
}

// handleHistory returns persisted application outcomes from earlier runs.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := s.history.ListApplicationHistory(r.Context(), ownerID, 50)
	if err != nil {
		log.Printf("[server] history lookup failed for %s: %v", ownerID, err)
		s.errorResponse(w, http.StatusInternalServerError, "History lookup failed")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"history": entries})
}

// approvalIdentity extracts the owner ID and the approval_id path segment.
func (s *Server) approvalIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	approvalID, err := uuid.Parse(r.PathValue("approval_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid approval_id")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, approvalID, true
}
