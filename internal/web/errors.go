package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request id; the client receives
// the core.MapError message and code. The status code follows the error
// kind, see statusFor.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/logging"
	"github.com/JonMunkholm/linkbase/internal/store"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if status >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidImport),
		errors.Is(err, core.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoActiveTable):
		return http.StatusConflict
	case errors.Is(err, core.ErrNodeNotFound),
		errors.Is(err, core.ErrFieldNotFound),
		store.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyIngests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch store.CodeOf(err) {
	case store.CodeInvalidOperation:
		return http.StatusUnprocessableEntity
	case store.CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
