package account

import (
	"log/slog"

	"github.com/metaversekit/account/store"
	"github.com/metaversekit/account/transport"
)

// Option represents option
type Option func(m *Manager)

// WithStore sets the durable account snapshot store
func WithStore(accounts store.Store) Option {
	return func(m *Manager) {
		m.accounts = accounts
	}
}

// WithLegacySource sets the legacy settings source consulted for one-time migration
func WithLegacySource(legacy store.LegacySource) Option {
	return func(m *Manager) {
		m.legacy = legacy
	}
}

// WithTransport sets the HTTP transport service
func WithTransport(client transport.Service) Option {
	return func(m *Manager) {
		m.client = client
	}
}

// WithListener registers lifecycle notifications
func WithListener(listener Listener) Option {
	return func(m *Manager) {
		m.listener = listener
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithVerbose enables verbose HTTP request diagnostics
func WithVerbose(verbose bool) Option {
	return func(m *Manager) {
		m.verbose = verbose
	}
}

// WithAgent marks the manager as driving an agent session; every profile
// change then regenerates the user keypair
func WithAgent(agent bool) Option {
	return func(m *Manager) {
		m.agent = agent
	}
}

// WithKeygen overrides the keypair generation function
func WithKeygen(generate func() (publicKey, privateKey []byte, err error)) Option {
	return func(m *Manager) {
		m.generate = generate
	}
}
