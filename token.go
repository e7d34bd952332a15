package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/metaversekit/account/store"
	"github.com/metaversekit/account/transport"
)

const (
	oauthTokenPath = "/oauth/token"
	// requestedScope is the fixed scope asked for on every password grant.
	requestedScope = "owner"
)

type grantResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
}

// RequestAccessToken exchanges login credentials for an access token using
// the OAuth password grant. The exchange runs asynchronously and bypasses the
// dispatch queue; its outcome is reported through the login-succeeded or
// login-failed notifications.
func (m *Manager) RequestAccessToken(ctx context.Context, login, password string) {
	authority := m.AuthorityURL()
	if authority == nil {
		m.logger.Warn("no authority set, cannot request access token")
		return
	}
	grantURL := *authority
	grantURL.Path = oauthTokenPath

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", login)
	form.Set("password", password)
	form.Set("scope", requestedScope)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	request := &transport.Request{
		Method: http.MethodPost,
		URL:    grantURL.String(),
		Header: header,
		Body:   []byte(form.Encode()),
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.finishAccessTokenRequest(ctx, m.client.Do(ctx, request))
	}()
}

func (m *Manager) finishAccessTokenRequest(ctx context.Context, response *transport.Response) {
	if response.Err != nil {
		m.logger.Warn("access token request failed", "error", response.Err)
		return
	}

	var grant grantResponse
	if err := json.Unmarshal(response.Body, &grant); err != nil {
		m.logger.Warn("could not decode password grant response", "error", err)
		return
	}

	if grant.Error != "" {
		m.logger.Debug("error in response for password grant", "error", grant.Error, "description", grant.ErrorDescription)
		m.emitLoginFailed(grant.ErrorDescription)
		return
	}

	if grant.AccessToken == "" || grant.ExpiresIn == 0 || grant.TokenType == "" {
		// an incomplete grant response is deliberately neither success nor
		// failure; the condition is logged and the exchange ends here
		m.logger.Debug("received a response for password grant that is missing one or more expected values")
		return
	}

	// clear the path from the response URL so the right root URL is kept for
	// this access token
	root, err := rootURL(response.URL)
	if err != nil {
		m.logger.Warn("could not resolve root url from password grant response", "url", response.URL, "error", err)
		return
	}

	token := &oauth2.Token{
		AccessToken:  grant.AccessToken,
		TokenType:    grant.TokenType,
		RefreshToken: grant.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}
	m.setCurrent(&store.Account{Token: token})

	m.logger.Debug("storing an account with access token", "root", root)
	m.emitLoginSucceeded(root)
	m.Persist(ctx)
	m.RequestProfile(ctx)
}

func rootURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	parsed.Path = ""
	parsed.RawQuery = ""
	return parsed, nil
}
