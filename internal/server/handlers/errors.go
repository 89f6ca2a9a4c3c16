package handlers

import (
	"errors"
	"net/http"

	"github.com/mamadbah2/scantrak/internal/decoder"
	"github.com/mamadbah2/scantrak/internal/identity"
	"github.com/mamadbah2/scantrak/internal/service/session"
	"github.com/mamadbah2/scantrak/internal/service/workflow"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownSession), errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrSessionClosed),
		errors.Is(err, decoder.ErrNotRunning):
		return http.StatusConflict
	case workflow.IsInputError(err):
		return http.StatusUnprocessableEntity
	case workflow.IsConnectivityError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
