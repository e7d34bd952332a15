package account

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/metaversekit/account/store"
	"github.com/metaversekit/account/transport"
)

var memStoreSeq int
var memStoreMu sync.Mutex

func newMemStore() *store.FileStore {
	memStoreMu.Lock()
	defer memStoreMu.Unlock()
	memStoreSeq++
	return store.NewFileStore(fmt.Sprintf("mem://localhost/accounts/%03d/accounts.json", memStoreSeq))
}

// spyTransport records every request and answers with a canned response.
type spyTransport struct {
	mu       sync.Mutex
	requests []*transport.Request
	respond  func(request *transport.Request) *transport.Response
}

func (s *spyTransport) Do(ctx context.Context, request *transport.Request) *transport.Response {
	s.mu.Lock()
	s.requests = append(s.requests, request)
	s.mu.Unlock()
	if s.respond != nil {
		return s.respond(request)
	}
	return &transport.Response{URL: request.URL, StatusCode: http.StatusOK, Body: []byte(`{}`)}
}

func (s *spyTransport) recorded() []*transport.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*transport.Request{}, s.requests...)
}

// recorder funnels lifecycle notifications into one channel so tests can
// assert on ordering.
type recorder struct {
	events chan string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 16)}
}

func (r *recorder) listener() Listener {
	return Listener{
		OnAuthorityChanged: func(authority *url.URL) {
			r.events <- "authority:" + authority.String()
		},
		OnLoginSucceeded: func(root *url.URL) {
			r.events <- "login:" + root.String()
		},
		OnLoginFailed: func(reason string) {
			r.events <- "loginFailed:" + reason
		},
		OnProfileChanged: func() {
			r.events <- "profile"
		},
		OnUsernameChanged: func(username string) {
			r.events <- "username:" + username
		},
		OnBalanceChanged: func(balance int64) {
			r.events <- fmt.Sprintf("balance:%d", balance)
		},
		OnLogoutComplete: func() {
			r.events <- "logout"
		},
		OnAuthRequired: func() {
			r.events <- "authRequired"
		},
	}
}

func (r *recorder) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case event := <-r.events:
		assert.EqualValues(t, want, event)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

// drain returns every event raised so far; call after Close so no more can
// arrive.
func (r *recorder) drain() []string {
	var events []string
	for {
		select {
		case event := <-r.events:
			events = append(events, event)
		default:
			return events
		}
	}
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.Nil(t, err)
	return parsed
}

func validToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

func TestSetAuthorityAdoptsSnapshot(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	accounts := newMemStore()
	err := accounts.Save(ctx, map[string]*store.Account{
		authority.String(): {Token: validToken("snapshot-token"), Username: "alice", HasProfile: true},
	})
	require.Nil(t, err)

	events := newRecorder()
	manager := New(
		WithStore(accounts),
		WithTransport(&spyTransport{}),
		WithListener(events.listener()),
	)
	defer manager.Close()

	manager.SetAuthority(ctx, authority)

	// the persisted profile is announced without refetching it
	events.expect(t, "profile")
	events.expect(t, "authority:"+authority.String())
	assert.EqualValues(t, "alice", manager.Username())
	assert.True(t, manager.HasValidAccessToken())
}

func TestSetAuthorityWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	events := newRecorder()
	spy := &spyTransport{}
	manager := New(
		WithStore(newMemStore()),
		WithTransport(spy),
		WithListener(events.listener()),
	)

	manager.SetAuthority(ctx, authority)
	events.expect(t, "authority:"+authority.String())
	manager.Close()

	assert.False(t, manager.HasValidAccessToken())
	assert.EqualValues(t, 0, len(spy.recorded()))
}

func TestSetAuthoritySameURLIsNoOp(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	events := newRecorder()
	manager := New(
		WithStore(newMemStore()),
		WithTransport(&spyTransport{}),
		WithListener(events.listener()),
	)

	manager.SetAuthority(ctx, authority)
	events.expect(t, "authority:"+authority.String())
	manager.SetAuthority(ctx, mustParseURL(t, "https://metaverse.example.com"))
	manager.Close()

	assert.EqualValues(t, 0, len(events.drain()))
}

type staticLegacySource struct {
	entries map[string]*store.Account
	err     error
}

func (s *staticLegacySource) Entries(ctx context.Context) (map[string]*store.Account, error) {
	return s.entries, s.err
}

func TestSetAuthorityMigratesLegacy(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	accounts := newMemStore()
	legacy := &staticLegacySource{entries: map[string]*store.Account{
		store.EncodeLegacyKey(authority.String()): {Token: validToken("legacy-token")},
	}}

	events := newRecorder()
	manager := New(
		WithStore(accounts),
		WithLegacySource(legacy),
		WithTransport(&spyTransport{}),
		WithListener(events.listener()),
	)
	defer manager.Close()

	manager.SetAuthority(ctx, authority)
	assert.True(t, manager.HasValidAccessToken())

	// migration persists the adopted record in the snapshot format right away
	migrated, found, err := accounts.Load(ctx)
	require.Nil(t, err)
	assert.True(t, found)
	require.NotNil(t, migrated[authority.String()])
	assert.EqualValues(t, "legacy-token", migrated[authority.String()].Token.AccessToken)
}

func TestSetAccessToken(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	accounts := newMemStore()
	manager := New(WithStore(accounts), WithTransport(&spyTransport{}))
	defer manager.Close()

	manager.SetAuthority(ctx, authority)
	manager.SetAccessToken(ctx, "manual-token")

	assert.True(t, manager.HasValidAccessToken())
	persisted, _, err := accounts.Load(ctx)
	require.Nil(t, err)
	require.NotNil(t, persisted[authority.String()])
	assert.EqualValues(t, "manual-token", persisted[authority.String()].Token.AccessToken)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	accounts := newMemStore()
	err := accounts.Save(ctx, map[string]*store.Account{
		authority.String(): {Token: validToken("snapshot-token"), Username: "alice", HasProfile: true},
	})
	require.Nil(t, err)

	events := newRecorder()
	manager := New(
		WithStore(accounts),
		WithTransport(&spyTransport{}),
		WithListener(events.listener()),
	)
	defer manager.Close()

	manager.SetAuthority(ctx, authority)
	events.expect(t, "profile")
	events.expect(t, "authority:"+authority.String())

	manager.Logout(ctx)
	events.expect(t, "balance:0")
	events.expect(t, "logout")
	events.expect(t, "username:")

	assert.False(t, manager.HasValidAccessToken())
	remaining, _, err := accounts.Load(ctx)
	require.Nil(t, err)
	assert.Nil(t, remaining[authority.String()])
}

func TestCheckAndSignalAccessToken(t *testing.T) {
	ctx := context.Background()
	events := newRecorder()
	manager := New(
		WithStore(newMemStore()),
		WithTransport(&spyTransport{}),
		WithListener(events.listener()),
	)
	defer manager.Close()

	manager.SetAuthority(ctx, mustParseURL(t, "https://metaverse.example.com"))
	events.expect(t, "authority:https://metaverse.example.com")

	assert.False(t, manager.CheckAndSignalAccessToken())
	events.expect(t, "authRequired")

	manager.SetAccessToken(ctx, "manual-token")
	assert.True(t, manager.CheckAndSignalAccessToken())
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	ctx := context.Background()
	authority := mustParseURL(t, "https://metaverse.example.com")

	accounts := newMemStore()
	err := accounts.Save(ctx, map[string]*store.Account{
		authority.String(): {Token: &oauth2.Token{
			AccessToken: "stale-token",
			Expiry:      time.Now().Add(-time.Hour),
		}},
	})
	require.Nil(t, err)

	manager := New(WithStore(accounts), WithTransport(&spyTransport{}))
	defer manager.Close()

	manager.SetAuthority(ctx, authority)
	assert.False(t, manager.HasValidAccessToken())
}
