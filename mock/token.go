package mock

import (
	"encoding/json"
	"net/http"
	"time"
)

// defaultTokenHandler handles /oauth/token password grant requests
func (m *Service) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	if grantType := r.FormValue("grant_type"); grantType != "password" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "only the password grant is supported",
		})
		return
	}

	login := r.FormValue("username")
	password, known := m.Users[login]
	if !known || password != r.FormValue("password") {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "bad credentials",
		})
		return
	}

	accessToken, err := m.createJWT(login, time.Duration(m.ExpiresIn)*time.Second)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	refreshToken, err := m.createJWT(login, 24*time.Hour)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    m.ExpiresIn,
		"refresh_token": refreshToken,
		"scope":         r.FormValue("scope"),
	})
}
