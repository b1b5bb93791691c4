package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/job-autopilot/internal/chat"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/session"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validation *pipeline.ValidationError
		approval   *pipeline.ApprovalError
		busy       *session.ErrBusy
		conflict   *session.ErrConflict
		noSession  *session.ErrNoSession
		chatErr    *chat.ServiceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &busy), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &approval):
		return http.StatusConflict
	case errors.As(err, &noSession):
		return http.StatusNotFound
	case errors.As(err, &chatErr):
		switch chatErr.Kind {
		case chat.KindUnreachable:
			return http.StatusServiceUnavailable
		case chat.KindModelNotFound:
			return http.StatusNotFound
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}
