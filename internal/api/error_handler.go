package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Message is
// a string, or a field → messages object for input validation failures.
type errorResponse struct {
	Message any    `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to a status code by kind.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message", "code", "status"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Status)
			return
		}
		_ = c.JSON(resp.Status, resp)
	}
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindNotFound, domain.KindToken:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) errorResponse {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		resp := errorResponse{Message: de.Message, Code: de.Code, Status: statusFor(de.Kind)}
		if len(de.Fields) > 0 {
			resp.Message = de.Fields
		}
		return resp
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return errorResponse{Message: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code), Status: he.Code}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("handler", c.Path()).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return errorResponse{Message: "Internal server error", Code: "internal_server_error", Status: http.StatusInternalServerError}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "parse_error"
	case http.StatusUnauthorized:
		return "not_authenticated"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusRequestEntityTooLarge:
		return "request_entity_too_large"
	default:
		return "error"
	}
}
