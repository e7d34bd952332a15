package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the appropriate mock API endpoints.
type Handler struct {
	// Server is the mock metaverse API with endpoint handlers.
	Server *Service
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/oauth/token":
		if h.Server.TokenHandler != nil {
			h.Server.TokenHandler(w, r)
		} else {
			h.Server.defaultTokenHandler(w, r)
		}
	case "/api/v1/user/profile":
		if h.Server.ProfileHandler != nil {
			h.Server.ProfileHandler(w, r)
		} else {
			h.Server.defaultProfileHandler(w, r)
		}
	case "/api/v1/wallets/mine":
		if h.Server.WalletHandler != nil {
			h.Server.WalletHandler(w, r)
		} else {
			h.Server.defaultWalletHandler(w, r)
		}
	case "/api/v1/user/public_key":
		if h.Server.PublicKeyHandler != nil {
			h.Server.PublicKeyHandler(w, r)
		} else {
			h.Server.defaultPublicKeyHandler(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}
