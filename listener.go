package account

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// Listener receives account lifecycle notifications. All funcs are optional;
// they are invoked from manager goroutines and must not block.
type Listener struct {
	OnAuthorityChanged func(authority *url.URL)
	OnLoginSucceeded   func(root *url.URL)
	OnLoginFailed      func(reason string)
	OnProfileChanged   func()
	OnUsernameChanged  func(username string)
	OnBalanceChanged   func(balance int64)
	OnLogoutComplete   func()
	// OnAuthRequired is raised when an operation needs a token that is
	// missing or expired, inviting re-authentication.
	OnAuthRequired func()
}

func (m *Manager) emitAuthorityChanged(authority *url.URL) {
	if m.listener.OnAuthorityChanged != nil {
		m.listener.OnAuthorityChanged(authority)
	}
}

func (m *Manager) emitLoginSucceeded(root *url.URL) {
	if m.listener.OnLoginSucceeded != nil {
		m.listener.OnLoginSucceeded(root)
	}
}

func (m *Manager) emitLoginFailed(reason string) {
	if m.listener.OnLoginFailed != nil {
		m.listener.OnLoginFailed(reason)
	}
}

// emitProfileChanged notifies listeners and, for agent sessions, regenerates
// the user keypair so the uploaded key always matches the active profile. The
// regeneration inherits the context of the operation that changed the profile.
func (m *Manager) emitProfileChanged(ctx context.Context) {
	if m.listener.OnProfileChanged != nil {
		m.listener.OnProfileChanged()
	}
	if m.isAgent() {
		m.generateKeypair(ctx, true, uuid.Nil)
	}
}

func (m *Manager) emitUsernameChanged(username string) {
	if m.listener.OnUsernameChanged != nil {
		m.listener.OnUsernameChanged(username)
	}
}

func (m *Manager) emitBalanceChanged(balance int64) {
	if m.listener.OnBalanceChanged != nil {
		m.listener.OnBalanceChanged(balance)
	}
}

func (m *Manager) emitLogoutComplete() {
	if m.listener.OnLogoutComplete != nil {
		m.listener.OnLogoutComplete()
	}
}

func (m *Manager) emitAuthRequired() {
	if m.listener.OnAuthRequired != nil {
		m.listener.OnAuthRequired()
	}
}
