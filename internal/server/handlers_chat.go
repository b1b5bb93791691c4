package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/job-autopilot/internal/chat"
)

// chatSystemPreamble frames the assistant for job-application questions.
const chatSystemPreamble = "You are a helpful assistant for a job application tool. " +
	"Answer questions about resumes, job postings and outreach emails concisely."

// ChatRequest represents the request body for /chat
type ChatRequest struct {
	Message string         `json:"message" validate:"required,min=1"`
	Model   string         `json:"model,omitempty"`
	History []chat.Message `json:"history,omitempty"`
}

// ChatResponse represents the response for /chat
type ChatResponse struct {
	Reply string `json:"reply"`
	Kind  string `json:"error_kind,omitempty"`
}

// handleChat forwards one message to the local chat service.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	reply, err := s.chat.Chat(r.Context(), req.Model, chatSystemPreamble, req.History, req.Message)
	if err != nil {
		kind := ""
		if svcErr, ok := err.(*chat.ServiceError); ok {
			kind = string(svcErr.Kind)
		}
		s.jsonResponse(w, HTTPStatus(err), map[string]string{
			"error":      err.Error(),
			"error_kind": kind,
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, ChatResponse{Reply: reply})
}

// handleChatStatus reports whether the chat service is reachable and which
// models are available.
func (s *Server) handleChatStatus(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonResponse(w, http.StatusOK, chat.Status{Reachable: false})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.chat.CheckStatus(r.Context()))
}
