package web

// errors.go renders every handler error the same way:
//  1. core.MapError turns the technical error into a coded UserMessage
//  2. the technical error is logged with request and session ids
//  3. the client gets an alert patch (datastar actions), JSON or an HTML page

import (
	"errors"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/JonMunkholm/orcaflow/internal/core"
	"github.com/JonMunkholm/orcaflow/internal/logging"
	"github.com/JonMunkholm/orcaflow/internal/web/templates"
)

var (
	errRateLimited    = errors.New("rate limit exceeded")
	errInvalidRequest = errors.New("invalid request")
)

// ErrorResponse is the JSON body of an error. Error is the one-line form
// of the other fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	// Unmapped errors are bugs until they get a code.
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	if isDatastar(r) {
		// Datastar only applies patches from a 200 event stream.
		sse := datastar.NewSSE(w, r)
		if err := sse.PatchElementTempl(templates.ErrorAlert(msg.Message, msg.Action, msg.Code)); err != nil {
			log.Debug("patch error alert", "error", err)
		}
		return
	}

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   core.FormatUserError(err),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		log.Error("render error page", "error", err)
	}
}

// isDatastar reports whether the request is a datastar action.
func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// wantsJSON reports whether the client prefers a JSON response.
// app.js sends Accept: application/json; plain form posts get HTML.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
