package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaversekit/account/mock"
	"github.com/metaversekit/account/store"
	"github.com/metaversekit/account/transport"
)

// observingStore wraps a snapshot store and remembers whether a private key
// has been written yet.
type observingStore struct {
	inner store.Store

	mu              sync.Mutex
	privateKeySaved bool
}

func (s *observingStore) Load(ctx context.Context) (map[string]*store.Account, bool, error) {
	return s.inner.Load(ctx)
}

func (s *observingStore) Save(ctx context.Context, accounts map[string]*store.Account) error {
	s.mu.Lock()
	for _, account := range accounts {
		if len(account.PrivateKey) > 0 {
			s.privateKeySaved = true
		}
	}
	s.mu.Unlock()
	return s.inner.Save(ctx, accounts)
}

func (s *observingStore) saw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privateKeySaved
}

func stubKeygen(publicKey, privateKey []byte) func() ([]byte, []byte, error) {
	return func() ([]byte, []byte, error) {
		return publicKey, privateKey, nil
	}
}

// readPublicKeyPart extracts the uploaded public_key form part and answers
// with a success response.
func readPublicKeyPart(t *testing.T, w http.ResponseWriter, r *http.Request) []byte {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		t.Error(err)
		return nil
	}
	part, _, err := r.FormFile("public_key")
	if err != nil {
		t.Error(err)
		return nil
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		t.Error(err)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "success"})
	return data
}

func TestGenerateUserKeypair(t *testing.T) {
	ctx := context.Background()
	service, server := newMockServer(t, mock.WithUser("alice", "s3cret"), mock.WithUsername("alice"))

	accounts := &observingStore{inner: newMemStore()}
	var keyPersistedBeforeUpload atomic.Bool
	uploaded := make(chan []byte, 1)
	service.PublicKeyHandler = func(w http.ResponseWriter, r *http.Request) {
		keyPersistedBeforeUpload.Store(accounts.saw())
		uploaded <- readPublicKeyPart(t, w, r)
	}

	events := newRecorder()
	manager := New(
		WithStore(accounts),
		WithListener(events.listener()),
		WithKeygen(stubKeygen([]byte("public-der"), []byte("private-der"))),
	)
	defer manager.Close()

	login(t, ctx, manager, events, server.URL, "alice")

	manager.GenerateUserKeypair(ctx)
	var publicKey []byte
	select {
	case publicKey = <-uploaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the public key upload")
	}

	// the private key reached durable storage before the upload went out
	assert.True(t, keyPersistedBeforeUpload.Load())
	assert.EqualValues(t, []byte("public-der"), publicKey)

	persisted, _, err := accounts.Load(ctx)
	require.Nil(t, err)
	require.NotNil(t, persisted[server.URL])
	assert.EqualValues(t, []byte("private-der"), persisted[server.URL].PrivateKey)
}

func TestGenerateDomainKeypairRequiresID(t *testing.T) {
	ctx := context.Background()
	var generated atomic.Bool
	spy := &spyTransport{}
	manager := New(
		WithStore(newMemStore()),
		WithTransport(spy),
		WithKeygen(func() ([]byte, []byte, error) {
			generated.Store(true)
			return []byte("pub"), []byte("priv"), nil
		}),
	)
	manager.SetAuthority(ctx, mustParseURL(t, "https://metaverse.example.com"))

	manager.GenerateDomainKeypair(ctx, uuid.Nil)
	manager.Close()

	assert.False(t, generated.Load())
	assert.EqualValues(t, 0, len(spy.recorded()))
}

func TestGenerateKeypairError(t *testing.T) {
	ctx := context.Background()
	spy := &spyTransport{}
	accounts := &observingStore{inner: newMemStore()}
	manager := New(
		WithStore(accounts),
		WithTransport(spy),
		WithKeygen(func() ([]byte, []byte, error) {
			return nil, nil, errors.New("entropy exhausted")
		}),
	)
	manager.SetAuthority(ctx, mustParseURL(t, "https://metaverse.example.com"))
	manager.SetAccessToken(ctx, "manual-token")

	manager.GenerateUserKeypair(ctx)
	manager.Close()

	assert.False(t, accounts.saw())
	assert.EqualValues(t, 0, len(spy.recorded()))
}

type transportFunc func(ctx context.Context, request *transport.Request) *transport.Response

func (f transportFunc) Do(ctx context.Context, request *transport.Request) *transport.Response {
	return f(ctx, request)
}

type requestOriginKey struct{}

func TestAgentKeypairUploadInheritsRequestContext(t *testing.T) {
	uploadOrigin := make(chan any, 1)
	client := transportFunc(func(ctx context.Context, request *transport.Request) *transport.Response {
		if request.Method == http.MethodPut {
			uploadOrigin <- ctx.Value(requestOriginKey{})
			return &transport.Response{URL: request.URL, StatusCode: http.StatusOK, Body: []byte(`{"status":"success"}`)}
		}
		return &transport.Response{
			URL:        request.URL,
			StatusCode: http.StatusOK,
			Body:       []byte(`{"status":"success","data":{"user":{"username":"alice"}}}`),
		}
	})

	manager := New(
		WithStore(newMemStore()),
		WithTransport(client),
		WithAgent(true),
		WithKeygen(stubKeygen([]byte("pub"), []byte("priv"))),
	)
	defer manager.Close()

	base := context.Background()
	manager.SetAuthority(base, mustParseURL(t, "https://metaverse.example.com"))
	manager.SetAccessToken(base, "agent-token")

	// the profile fetch triggers regeneration; its upload carries the same
	// context the fetch was started with
	manager.RequestProfile(context.WithValue(base, requestOriginKey{}, "profile-fetch"))

	select {
	case origin := <-uploadOrigin:
		assert.EqualValues(t, "profile-fetch", origin)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the public key upload")
	}
}

func TestAgentRegeneratesKeypairOnProfileChange(t *testing.T) {
	ctx := context.Background()
	service, server := newMockServer(t, mock.WithUser("alice", "s3cret"), mock.WithUsername("alice"))

	uploaded := make(chan []byte, 1)
	service.PublicKeyHandler = func(w http.ResponseWriter, r *http.Request) {
		uploaded <- readPublicKeyPart(t, w, r)
	}

	events := newRecorder()
	manager := New(
		WithStore(newMemStore()),
		WithListener(events.listener()),
		WithAgent(true),
		WithKeygen(stubKeygen([]byte("agent-public"), []byte("agent-private"))),
	)
	defer manager.Close()

	// logging in fetches the profile, which regenerates the agent keypair
	login(t, ctx, manager, events, server.URL, "alice")

	var publicKey []byte
	select {
	case publicKey = <-uploaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the public key upload")
	}
	assert.EqualValues(t, []byte("agent-public"), publicKey)
}
