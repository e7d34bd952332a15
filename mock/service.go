package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
)

// Service simulates the metaverse account API.
type Service struct {
	PrivateKey *rsa.PrivateKey
	Issuer     string
	// Users maps login to password for the password grant.
	Users     map[string]string
	Username  string
	Balance   int64
	ExpiresIn int

	mu         sync.Mutex
	publicKeys map[string][]byte

	TokenHandler     func(w http.ResponseWriter, r *http.Request)
	ProfileHandler   func(w http.ResponseWriter, r *http.Request)
	WalletHandler    func(w http.ResponseWriter, r *http.Request)
	PublicKeyHandler func(w http.ResponseWriter, r *http.Request)
}

// Option represents option
type Option func(*Service)

// WithUser registers a login/password pair accepted by the token endpoint
func WithUser(login, password string) Option {
	return func(s *Service) {
		s.Users[login] = password
	}
}

// WithUsername sets the profile username returned by the profile endpoint
func WithUsername(username string) Option {
	return func(s *Service) {
		s.Username = username
	}
}

// WithBalance sets the wallet balance returned by the wallet endpoint
func WithBalance(balance int64) Option {
	return func(s *Service) {
		s.Balance = balance
	}
}

// NewService creates a mock metaverse API service with a fresh signing key.
func NewService(options ...Option) (*Service, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &Service{
		PrivateKey: privateKey,
		Issuer:     "mock-metaverse",
		Users:      map[string]string{},
		Username:   "tester",
		ExpiresIn:  3600,
		publicKeys: map[string][]byte{},
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// PublicKey returns the last key uploaded for login, or nil.
func (m *Service) PublicKey(login string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicKeys[login]
}

// SetBalance updates the wallet balance returned by the wallet endpoint.
func (m *Service) SetBalance(balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Balance = balance
}

// SetUsername updates the profile username returned by the profile endpoint.
func (m *Service) SetUsername(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Username = username
}

func (m *Service) username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Username
}

func (m *Service) balance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Balance
}

func (m *Service) storePublicKey(login string, key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publicKeys[login] = key
}
