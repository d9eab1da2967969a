package web

// errors.go turns errors into responses. Every error is logged with the
// request id and its technical text; the client receives the mapped
// core.UserMessage as JSON on /api routes and as an HTML fragment elsewhere.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
	"github.com/JonMunkholm/csvcast/internal/logging"
	"github.com/JonMunkholm/csvcast/internal/store"
	"github.com/JonMunkholm/csvcast/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

var noDatabaseMessage = core.UserMessage{
	Message: "Loading into Postgres is not enabled",
	Action:  "Set DATABASE_URL on the server",
	Code:    "DB000",
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var fe *core.FieldError
	var re *locate.RecordError
	var ve *validationError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNoDatabase):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fe), errors.As(err, &re):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptySchema),
		errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrNoRows),
		errors.Is(err, store.ErrInvalidTable),
		errors.Is(err, field.ErrUnknownKind),
		errors.Is(err, field.ErrDelimiterCollision),
		errors.Is(err, field.ErrMissingDelimiter),
		errors.Is(err, field.ErrMissingDecimal),
		errors.Is(err, field.ErrInvalidPolicy):
		return http.StatusBadRequest
	case core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage maps err for the client.
func userMessage(err error) core.UserMessage {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return core.UserMessage{
			Message: "Invalid request parameters",
			Action:  ve.Error(),
			Code:    "REQ001",
		}
	case errors.Is(err, store.ErrNoDatabase):
		return noDatabaseMessage
	case errors.Is(err, store.ErrInvalidTable):
		return core.UserMessage{
			Message: "Invalid table name",
			Action:  "Use table or schema.table",
			Code:    "DB005",
		}
	}
	return core.MapError(err)
}

// respondError logs err and writes the mapped message with the status
// statusFor chooses.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(err)

	logger := logging.FromContext(r.Context())
	logArgs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request error", logArgs...)
	} else {
		logger.Warn("request error", logArgs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
			Detail:  msg.Detail,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logger.Error("render error page", "error", err)
	}
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
