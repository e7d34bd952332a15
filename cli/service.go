package cli

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/metaversekit/account"
	"github.com/metaversekit/account/store"
)

// responseTimeout bounds how long a command waits for the remote API.
const responseTimeout = 30 * time.Second

// Service runs a single account command against a metaverse authority.
type Service struct {
	options *Options
	manager *account.Manager
	events  chan string
}

// New builds the account manager for the configured authority.
func New(ctx context.Context, options *Options) (*Service, error) {
	authority, err := url.Parse(options.Authority)
	if err != nil {
		return nil, fmt.Errorf("invalid authority url %q: %w", options.Authority, err)
	}

	events := make(chan string, 8)
	opts := []account.Option{
		account.WithVerbose(options.Verbose),
		account.WithListener(account.Listener{
			OnLoginSucceeded: func(root *url.URL) {
				notify(events, "logged in at "+root.String())
			},
			OnLoginFailed: func(reason string) {
				notify(events, "login failed: "+reason)
			},
			OnUsernameChanged: func(username string) {
				notify(events, "username: "+username)
			},
			OnBalanceChanged: func(balance int64) {
				notify(events, fmt.Sprintf("balance: %d", balance))
			},
			OnLogoutComplete: func() {
				notify(events, "logged out")
			},
			OnAuthRequired: func() {
				notify(events, "authentication required, run login first")
			},
		}),
	}
	if options.StoreURL != "" {
		opts = append(opts, account.WithStore(store.NewFileStore(options.StoreURL)))
	}
	if options.Legacy != "" {
		opts = append(opts, account.WithLegacySource(store.NewBoltSource(options.Legacy)))
	}

	manager := account.New(opts...)
	manager.SetAuthority(ctx, authority)
	return &Service{options: options, manager: manager, events: events}, nil
}

// Execute runs the requested command and waits for its outcome.
func (s *Service) Execute(ctx context.Context) error {
	switch s.options.Command.Name {
	case "login":
		if s.options.Username == "" || s.options.Password == "" {
			return fmt.Errorf("login requires --username and --password")
		}
		s.manager.RequestAccessToken(ctx, s.options.Username, s.options.Password)
	case "logout":
		s.manager.Logout(ctx)
	case "profile":
		if s.manager.CheckAndSignalAccessToken() {
			s.manager.RequestProfile(ctx)
		}
	case "balance":
		if s.manager.CheckAndSignalAccessToken() {
			s.manager.UpdateBalance(ctx)
		}
	case "keygen":
		return s.keygen(ctx)
	default:
		return fmt.Errorf("unsupported command: %v", s.options.Command.Name)
	}
	return s.wait()
}

// keygen starts keypair generation and returns once the worker has been
// launched; the public key upload completes in the background before Close.
func (s *Service) keygen(ctx context.Context) error {
	if s.options.DomainID != "" {
		domainID, err := uuid.Parse(s.options.DomainID)
		if err != nil {
			return fmt.Errorf("invalid domain id %q: %w", s.options.DomainID, err)
		}
		s.manager.GenerateDomainKeypair(ctx, domainID)
	} else {
		if !s.manager.CheckAndSignalAccessToken() {
			return s.wait()
		}
		s.manager.GenerateUserKeypair(ctx)
	}
	fmt.Println("keypair generation started")
	return nil
}

// notify never blocks a manager goroutine; wait reads a single message, so
// notifications beyond the channel capacity are dropped.
func notify(events chan string, message string) {
	select {
	case events <- message:
	default:
	}
}

func (s *Service) wait() error {
	select {
	case message := <-s.events:
		fmt.Println(message)
		return nil
	case <-time.After(responseTimeout):
		return fmt.Errorf("timed out waiting for a response")
	}
}

// Close shuts the manager down, waiting for in-flight work.
func (s *Service) Close() {
	s.manager.Close()
}
