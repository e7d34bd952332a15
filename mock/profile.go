package mock

import (
	"encoding/json"
	"net/http"
)

// defaultProfileHandler handles /api/v1/user/profile requests
func (m *Service) defaultProfileHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := m.authorizedSubject(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				"username": m.username(),
			},
		},
	})
}

// defaultWalletHandler handles /api/v1/wallets/mine requests
func (m *Service) defaultWalletHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := m.authorizedSubject(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"wallet": map[string]interface{}{
				"balance": m.balance(),
			},
		},
	})
}
