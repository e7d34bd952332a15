package account

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/metaversekit/account/internal/collection"
	"github.com/metaversekit/account/keygen"
	"github.com/metaversekit/account/store"
	"github.com/metaversekit/account/transport"
)

// Manager owns the credential lifecycle for one authority URL at a time and
// dispatches authenticated requests against it.
type Manager struct {
	mu        sync.RWMutex
	authority *url.URL
	current   *store.Account
	agent     bool

	storeMu  sync.Mutex
	accounts store.Store
	legacy   store.LegacySource
	client   transport.Service
	listener Listener
	logger   *slog.Logger
	verbose  bool
	generate func() (publicKey, privateKey []byte, err error)

	pending   *collection.SyncMap[transport.Handle, Callbacks]
	handles   atomic.Uint64
	queue     chan *pendingRequest
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates an account manager. The manager owns a single dispatch
// goroutine; callers must Close it when done.
func New(options ...Option) *Manager {
	m := &Manager{
		current:  &store.Account{},
		client:   transport.New(),
		logger:   slog.Default(),
		generate: keygen.Generate,
		pending:  collection.NewSyncMap[transport.Handle, Callbacks](),
		queue:    make(chan *pendingRequest, 64),
		closed:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.accounts == nil {
		m.accounts = store.NewFileStore(store.DefaultURL())
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Close stops the dispatch queue and waits for in-flight requests and workers.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.closed)
	})
	m.wg.Wait()
}

// AuthorityURL returns the authority the manager currently authenticates
// against, or nil when none is set.
func (m *Manager) AuthorityURL() *url.URL {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authority
}

// Username returns the profile username of the active account.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Username
}

// Balance returns the last known wallet balance of the active account.
func (m *Manager) Balance() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Balance
}

// HasValidAccessToken reports whether the active account carries a non-empty,
// unexpired access token.
func (m *Manager) HasValidAccessToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.HasValidAccessToken()
}

// CheckAndSignalAccessToken reports token validity, raising the auth-required
// notification when no valid token is present.
func (m *Manager) CheckAndSignalAccessToken() bool {
	if m.HasValidAccessToken() {
		return true
	}
	m.emitAuthRequired()
	return false
}

// SetAgent toggles agent mode at runtime; see WithAgent.
func (m *Manager) SetAgent(agent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agent = agent
}

func (m *Manager) isAgent() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agent
}

func (m *Manager) hasAccessToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.HasAccessToken()
}

func (m *Manager) hasProfile() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.HasProfile
}

func (m *Manager) authorizationHeaderValue() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AuthorizationHeader()
}

func (m *Manager) setCurrent(account *store.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = account
}

// SetAuthority switches the manager to a new authority URL, loading any
// persisted account for it. When no snapshot exists, a one-time migration
// from the legacy settings source is attempted and, if it yields a token,
// persisted immediately in the snapshot format.
func (m *Manager) SetAuthority(ctx context.Context, authority *url.URL) {
	m.mu.Lock()
	if urlEqual(m.authority, authority) {
		m.mu.Unlock()
		return
	}
	m.authority = authority
	m.mu.Unlock()

	m.logger.Debug("authority for authenticated requests changed", "authority", authority)

	accounts, found, err := m.accounts.Load(ctx)
	if err == nil && found {
		account := accounts[authority.String()]
		if account == nil {
			account = &store.Account{}
		} else {
			m.logger.Debug("found account information for authority", "authority", authority)
		}
		m.setCurrent(account)
	} else {
		if err != nil {
			m.logger.Warn("unable to load account snapshot", "error", err)
		}
		m.migrateLegacy(ctx, authority)
	}

	if m.hasAccessToken() {
		// profile info is not guaranteed to be persisted alongside the token
		if m.hasProfile() {
			m.emitProfileChanged(ctx)
		} else {
			m.RequestProfile(ctx)
		}
	}

	m.emitAuthorityChanged(authority)
}

// migrateLegacy adopts the legacy record for authority, if any, and persists
// it in the snapshot format.
func (m *Manager) migrateLegacy(ctx context.Context, authority *url.URL) {
	m.setCurrent(&store.Account{})
	if m.legacy != nil {
		entries, err := m.legacy.Entries(ctx)
		if err != nil {
			m.logger.Warn("unable to read legacy settings", "error", err)
		}
		if account, ok := store.Migrate(entries, authority); ok {
			m.setCurrent(account)
			m.logger.Debug("migrated an access token from legacy settings", "authority", authority)
		}
	}
	if m.hasAccessToken() {
		m.Persist(ctx)
	} else {
		m.logger.Warn("unable to load account file, no existing account settings will be loaded", "authority", authority)
	}
}

// SetAccessToken replaces the active account with a fresh record carrying
// only the given token, then persists it.
func (m *Manager) SetAccessToken(ctx context.Context, accessToken string) {
	m.mu.Lock()
	m.current = &store.Account{Token: &oauth2.Token{AccessToken: accessToken}}
	m.mu.Unlock()

	m.logger.Debug("setting new access token", "token", abbreviate(accessToken))
	m.Persist(ctx)
}

// Logout drops the active account in memory and in the snapshot.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.current = &store.Account{}
	m.mu.Unlock()

	m.emitBalanceChanged(0)
	m.removeFromStore(ctx)
	m.emitLogoutComplete()
	// the username has changed to blank
	m.emitUsernameChanged("")
}

// Persist writes the active account into the snapshot under the current
// authority. Failure is logged and reported to the caller, never retried.
// Load-modify-write cycles are serialized within the process; concurrent
// external writers remain unsupported.
func (m *Manager) Persist(ctx context.Context) bool {
	authority := m.AuthorityURL()
	if authority == nil {
		m.logger.Warn("no authority set, unable to persist account information")
		return false
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	accounts, _, err := m.accounts.Load(ctx)
	if err != nil {
		m.logger.Warn("could not load account snapshot, unable to persist account information", "error", err)
		return false
	}

	// snapshot the record under the state lock; Save marshals the copy, so
	// concurrent profile or balance merges never race the serialization
	m.mu.RLock()
	current := m.current.Clone()
	m.mu.RUnlock()
	accounts[authority.String()] = current

	if err = m.accounts.Save(ctx, accounts); err != nil {
		m.logger.Warn("could not write account snapshot", "error", err)
		return false
	}
	return true
}

// removeFromStore deletes the current authority's entry from the snapshot.
func (m *Manager) removeFromStore(ctx context.Context) bool {
	authority := m.AuthorityURL()
	if authority == nil {
		return false
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	accounts, _, err := m.accounts.Load(ctx)
	if err != nil {
		m.logger.Warn("could not load account snapshot, unable to remove account information", "authority", authority, "error", err)
		return false
	}
	delete(accounts, authority.String())

	if err = m.accounts.Save(ctx, accounts); err != nil {
		m.logger.Warn("could not write account snapshot", "authority", authority, "error", err)
		return false
	}
	m.logger.Debug("removed account information from snapshot", "authority", authority)
	return true
}

func urlEqual(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// abbreviate keeps just enough of a token to correlate log lines.
func abbreviate(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:2] + "…" + token[len(token)-2:]
}
