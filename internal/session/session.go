// internal/session/session.go
//
// Signed-cookie session helpers.
//
// Context
//   Authentication requires persisting a "logged-in" identity between
//   requests.  The cookie value is `userID.expiry.signature`, where the
//   signature is HMAC-SHA256 over the first two fields with the
//   configured session secret.  Token issuance beyond this cookie (JWT,
//   OAuth) is out of scope; all callers rely only on this tiny API, so
//   swapping the implementation is painless.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	cookieName = "stolyo_session"
	ttl        = 14 * 24 * time.Hour
)

// Manager signs and verifies session cookies.  Construct once at startup
// with the config secret.
type Manager struct {
	secret []byte
}

// NewManager builds a Manager around the shared HMAC secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue sets a signed session cookie for userID.
//
// Callers typically invoke this after credential verification succeeds.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, userID string) {
	exp := time.Now().Add(ttl).Unix()
	payload := userID + "." + strconv.FormatInt(exp, 10)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    payload + "." + m.sign(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(exp, 0),
	})
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// UserID returns the authenticated user id stored in the session, if any.
//
// ok == false when the cookie is missing, malformed, expired, or when the
// signature does not verify.
func (m *Manager) UserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	payload, sig, found := cutLast(c.Value)
	if !found {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(m.sign(payload)), []byte(sig)) != 1 {
		return "", false
	}

	uid, expStr, ok := cutLast(payload)
	if !ok {
		return "", false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return "", false
	}
	return uid, true
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// cutLast splits s on its final dot.
func cutLast(s string) (before, after string, found bool) {
	i := strings.LastIndexByte(s, '.')
	if i == -1 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
