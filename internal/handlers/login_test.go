// internal/handlers/login_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heavegame/heave/internal/auth"
)

// TestLogin checks that /login issues a JWT cookie for the supplied username.
func TestLogin(t *testing.T) {
	auth.Init() // ephemeral keys

	body := `{"username":"ada"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	LoginHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["username"] != "ada" {
		t.Fatalf("expected username ada, got %q", resp["username"])
	}

	var token string
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatalf("no %s cookie set", auth.CookieName)
	}
	username, err := auth.AuthenticateJWT(token)
	if err != nil {
		t.Fatalf("cookie token failed verification: %v", err)
	}
	if username != "ada" {
		t.Fatalf("token subject mismatch, expected ada got %q", username)
	}
}

func TestLoginRejectsBlankUsername(t *testing.T) {
	auth.Init()

	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(`{"username":"   "}`))
	w := httptest.NewRecorder()
	LoginHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLoginRejectsNonPost(t *testing.T) {
	auth.Init()

	req := httptest.NewRequest("GET", "/login", nil)
	w := httptest.NewRecorder()
	LoginHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
