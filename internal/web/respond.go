// internal/web/respond.go
//
// JSON response and error helpers.
//
// Context
// -------
// Every handler funnels through these helpers so the error taxonomy
// stays consistent: validation 400, unauthorized 401, forbidden 403,
// unknown 404, conflict 409, infrastructure 500.  Infrastructure
// failures are logged with the request path and surfaced as an opaque
// 500; the core never retries.  Guard denials on page-like endpoints
// answer 404 instead of 403 so tenant existence is not confirmed to
// non-members.
package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/stolyo/internal/access"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFieldErrors reports a validation failure with per-field detail.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fields})
}

// writeInternal logs the failure and hides the cause from the client.
func writeInternal(w http.ResponseWriter, req *http.Request, err error) {
	zap.S().Errorw("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeGuardDenial maps a guard result onto the API status codes.
func writeGuardDenial(w http.ResponseWriter, res access.Result) {
	switch res.Reason {
	case access.ReasonUnauthorized:
		writeError(w, http.StatusUnauthorized, "authentication required")
	case access.ReasonNoTenant:
		writeError(w, http.StatusNotFound, "no store on this host")
	default:
		writeError(w, http.StatusForbidden, "not a member of this store")
	}
}

func decodeBody(w http.ResponseWriter, req *http.Request, dst any) bool {
	defer req.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}
