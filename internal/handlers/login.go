// internal/handlers/login.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/heavegame/heave/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
}

// LoginHandler accepts a display name and sets the auth_token cookie carrying
// a signed JWT for it. This is identification, not authentication: there is
// no password and usernames are not unique.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	token, err := auth.CreateJWT(username)
	if err != nil {
		http.Error(w, "failed to create session token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"username": username})
}
