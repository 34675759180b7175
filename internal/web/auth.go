// internal/web/auth.go
//
// Signed-cookie session boundary: login and logout.
package web

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/stolyo/internal/directory"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// login handles POST /api/auth/login.  A valid credential pair yields
// the signed session cookie; anything else is an undifferentiated 401.
func (h *handlers) login(w http.ResponseWriter, req *http.Request) {
	var payload loginPayload
	if !decodeBody(w, req, &payload) {
		return
	}
	if !validatePayload(w, payload) {
		return
	}

	user, err := h.d.Store.UserByEmail(req.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeInternal(w, req, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(payload.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.d.Sessions.Issue(w, req, user.ID.String())
	writeJSON(w, http.StatusOK, user)
}

// logout handles POST /api/auth/logout.
func (h *handlers) logout(w http.ResponseWriter, req *http.Request) {
	h.d.Sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
