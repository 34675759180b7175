// internal/session/session_test.go
//
// Unit-tests for signed session cookies.
//
// Run: go test ./internal/session -v

package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func issueAndRead(t *testing.T, issuer, reader *Manager) (string, bool) {
	t.Helper()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "http://acme.stolyo.com/login", nil)
	issuer.Issue(rr, req, "user-123")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	next := httptest.NewRequest("GET", "http://acme.stolyo.com/", nil)
	next.AddCookie(cookies[0])
	return reader.UserID(next)
}

func TestRoundTrip(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef")
	uid, ok := issueAndRead(t, m, m)
	if !ok || uid != "user-123" {
		t.Fatalf("UserID = (%q, %v), want (user-123, true)", uid, ok)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewManager("0123456789abcdef0123456789abcdef")
	reader := NewManager("ffffffffffffffffffffffffffffffff")
	if _, ok := issueAndRead(t, issuer, reader); ok {
		t.Fatal("cookie signed with a different secret was accepted")
	}
}

func TestTamperedValueRejected(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "http://acme.stolyo.com/login", nil)
	m.Issue(rr, req, "user-123")
	cookie := rr.Result().Cookies()[0]

	// Swap the user id but keep the original signature.
	parts := strings.SplitN(cookie.Value, ".", 3)
	if len(parts) != 3 {
		t.Fatalf("unexpected cookie format: %q", cookie.Value)
	}
	next := httptest.NewRequest("GET", "http://acme.stolyo.com/", nil)
	next.AddCookie(&http.Cookie{
		Name:  cookie.Name,
		Value: "user-666." + parts[1] + "." + parts[2],
	})
	if _, ok := m.UserID(next); ok {
		t.Fatal("tampered cookie was accepted")
	}
}

func TestMissingCookie(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef")
	req := httptest.NewRequest("GET", "http://acme.stolyo.com/", nil)
	if _, ok := m.UserID(req); ok {
		t.Fatal("missing cookie was accepted")
	}
}
