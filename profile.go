package account

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/metaversekit/account/transport"
)

const (
	profilePath = "/api/v1/user/profile"
	walletPath  = "/api/v1/wallets/mine"
)

type profileResponse struct {
	Status string `json:"status"`
	Data   struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"data"`
}

type walletResponse struct {
	Status string `json:"status"`
	Data   struct {
		Wallet struct {
			Balance int64 `json:"balance"`
		} `json:"wallet"`
	} `json:"data"`
}

// RequestProfile fetches the account profile for the active token and merges
// it into the current account record. Failures are logged only; there is no
// retry.
func (m *Manager) RequestProfile(ctx context.Context) {
	m.Dispatch(ctx, &Request{
		Path:   profilePath,
		Auth:   AuthRequired,
		Method: http.MethodGet,
		Callbacks: Callbacks{
			OnSuccess: func(response *transport.Response) {
				m.setProfile(ctx, response)
			},
			OnError: func(response *transport.Response) {
				m.logger.Debug("error in response for profile", "status", response.StatusCode, "error", response.Err)
			},
		},
	})
}

func (m *Manager) setProfile(ctx context.Context, response *transport.Response) {
	var profile profileResponse
	if err := json.Unmarshal(response.Body, &profile); err != nil || profile.Status != "success" {
		m.logger.Debug("error in response for profile", "error", err)
		return
	}

	m.mu.Lock()
	m.current.Username = profile.Data.User.Username
	m.current.HasProfile = true
	username := m.current.Username
	m.mu.Unlock()

	m.emitProfileChanged(ctx)
	// the username has changed to whatever came back
	m.emitUsernameChanged(username)
	// store the whole profile alongside the token
	m.Persist(ctx)
}

// UpdateBalance refreshes the wallet balance of the active account. The call
// is a no-op without a valid access token.
func (m *Manager) UpdateBalance(ctx context.Context) {
	if !m.HasValidAccessToken() {
		return
	}
	m.Dispatch(ctx, &Request{
		Path:   walletPath,
		Auth:   AuthRequired,
		Method: http.MethodGet,
		Callbacks: Callbacks{
			OnSuccess: func(response *transport.Response) {
				m.setBalance(response)
			},
			OnError: func(response *transport.Response) {
				m.logger.Debug("error in response for wallet balance", "status", response.StatusCode, "error", response.Err)
			},
		},
	})
}

func (m *Manager) setBalance(response *transport.Response) {
	var wallet walletResponse
	if err := json.Unmarshal(response.Body, &wallet); err != nil || wallet.Status != "success" {
		m.logger.Debug("error in response for wallet balance", "error", err)
		return
	}

	m.mu.Lock()
	m.current.Balance = wallet.Data.Wallet.Balance
	balance := m.current.Balance
	m.mu.Unlock()

	m.emitBalanceChanged(balance)
}
