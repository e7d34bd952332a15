package mock

import (
	"encoding/json"
	"io"
	"net/http"
)

// defaultPublicKeyHandler handles PUT /api/v1/user/public_key uploads
func (m *Service) defaultPublicKeyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	subject, err := m.authorizedSubject(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	part, _, err := r.FormFile("public_key")
	if err != nil {
		http.Error(w, "Missing public_key part", http.StatusBadRequest)
		return
	}
	defer part.Close()
	key, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, "Failed to read public_key part", http.StatusBadRequest)
		return
	}
	m.storePublicKey(subject, key)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
	})
}
