package store

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Account bundles the credential and profile state for one authority URL.
type Account struct {
	Token      *oauth2.Token `json:"token,omitempty"`
	Username   string        `json:"username,omitempty"`
	Balance    int64         `json:"balance,omitempty"`
	PrivateKey []byte        `json:"privateKey,omitempty"`
	HasProfile bool          `json:"hasProfile,omitempty"`
}

// HasAccessToken reports whether the account carries a non-empty access token,
// expired or not.
func (a *Account) HasAccessToken() bool {
	return a != nil && a.Token != nil && a.Token.AccessToken != ""
}

// HasValidAccessToken reports whether the account carries a non-empty,
// unexpired access token. A zero expiry means the token does not expire.
func (a *Account) HasValidAccessToken() bool {
	if !a.HasAccessToken() {
		return false
	}
	return a.Token.Expiry.IsZero() || time.Now().Before(a.Token.Expiry)
}

// Clone returns a deep copy of the record, so a persisted snapshot never
// shares memory with the live account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Token != nil {
		token := *a.Token
		clone.Token = &token
	}
	if len(a.PrivateKey) > 0 {
		clone.PrivateKey = append([]byte(nil), a.PrivateKey...)
	}
	return &clone
}

// AuthorizationHeader returns the value for the Authorization request header,
// e.g. "Bearer <token>".
func (a *Account) AuthorizationHeader() string {
	if !a.HasAccessToken() {
		return ""
	}
	return a.Token.Type() + " " + a.Token.AccessToken
}

// Store is the durable snapshot of accounts keyed by authority URL.
type Store interface {
	// Load returns the persisted account map; found reports whether a
	// snapshot exists. A missing snapshot yields an empty map and no error.
	Load(ctx context.Context) (accounts map[string]*Account, found bool, err error)
	// Save writes the whole account map, replacing any previous snapshot.
	Save(ctx context.Context, accounts map[string]*Account) error
}
