package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX or JSON)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), or respondErrorStatus to force a status
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in appropriate format for the client

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
	"github.com/JonMunkholm/eleitores/internal/web/views"
)

var (
	errFileTooLarge = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
	errBadJSON      = errors.New("invalid request body")
)

var rateLimitMessage = core.MapError(errors.New("rate limit exceeded"))

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
	Missing []string `json:"missing,omitempty"`

	// Set when a multi-batch commit failed after earlier batches were
	// written. Count is the total persisted for the session so far.
	Count   *int `json:"count,omitempty"`
	Sent    *int `json:"sent,omitempty"`
	Batches *int `json:"batches,omitempty"`
}

// partialCommitError keeps the progress of a commit that stopped on a
// failing batch, so the response can report what was already persisted.
type partialCommitError struct {
	err    error
	result *core.CommitResult
}

func (e *partialCommitError) Error() string { return e.err.Error() }
func (e *partialCommitError) Unwrap() error { return e.err }

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var mappingErr *core.MappingError
	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnparseable),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.As(err, &mappingErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownHeader), errors.Is(err, core.ErrUnknownField):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrWrongPhase), errors.Is(err, core.ErrNotDuplicate):
		return http.StatusConflict
	case errors.Is(err, core.ErrBatchTooLarge), core.IsCommitValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status derived from its type.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

// respondErrorStatus handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX or JSON).
func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logAttrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", logAttrs...)
	} else {
		logger.Warn("request rejected", logAttrs...)
	}

	if isHTMX(r) {
		s.renderErrorPartial(w, r, userMsg, statusCode)
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Client errors carry our own messages, never driver output.
	if statusCode < http.StatusInternalServerError {
		resp.Error = err.Error()
	}

	var ve *core.CommitValidationError
	if errors.As(err, &ve) {
		resp.Errors = ve.Problems
	}
	var me *core.MappingError
	if errors.As(err, &me) {
		resp.Missing = me.Missing
	}
	var pc *partialCommitError
	if errors.As(err, &pc) {
		resp.Count = &pc.result.Inserted
		resp.Sent = &pc.result.Sent
		resp.Batches = &pc.result.Batches
	}

	writeJSON(w, statusCode, resp)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
