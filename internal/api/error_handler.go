package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/portal"
)

// StatusClientClosedRequest is returned when the caller abandoned the
// operation before it resolved.
const StatusClientClosedRequest = 499

// errorResponse is the canonical error envelope for all API errors. View is
// set when the failed action still left the device on a screen.
type errorResponse struct {
	Error string       `json:"error"`
	View  *portal.View `json:"view,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Attaches the device's view when the error carries one.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		resp := errorResponse{Error: msg}
		if rej, ok := portal.IsRejection(err); ok {
			view := rej.View
			resp.View = &view
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, rate limits, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrPinRejected):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusUnauthorized, domain.ErrInvalidCredential.Error()
	case errors.Is(err, domain.ErrNoActiveMember):
		return http.StatusUnauthorized, domain.ErrNoActiveMember.Error()
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, domain.ErrMemberNotFound.Error()
	case errors.Is(err, domain.ErrPauseRestricted):
		return http.StatusForbidden, domain.ErrPauseRestricted.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrOperationInProgress):
		return http.StatusConflict, domain.ErrOperationInProgress.Error()
	case errors.Is(err, domain.ErrOperationCancelled):
		return StatusClientClosedRequest, domain.ErrOperationCancelled.Error()
	case errors.Is(err, domain.ErrTransport):
		return http.StatusServiceUnavailable, domain.ErrTransport.Error()
	case errors.Is(err, domain.ErrPauseUnavailable):
		return http.StatusServiceUnavailable, domain.ErrPauseUnavailable.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
