package account

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/metaversekit/account/transport"
)

// publicKeyUpdatePath deliberately omits the leading slash; the dispatcher
// normalizes it.
const publicKeyUpdatePath = "api/v1/user/public_key"

// GenerateUserKeypair starts asynchronous generation of a new user keypair.
// The caller is never blocked; once generated, the private key is persisted
// locally before the public key upload is dispatched.
func (m *Manager) GenerateUserKeypair(ctx context.Context) {
	m.generateKeypair(ctx, true, uuid.Nil)
}

// GenerateDomainKeypair starts asynchronous generation of a keypair for the
// given domain. A zero domain ID aborts before any work is started.
func (m *Manager) GenerateDomainKeypair(ctx context.Context, domainID uuid.UUID) {
	m.generateKeypair(ctx, false, domainID)
}

func (m *Manager) generateKeypair(ctx context.Context, isUserKeypair bool, domainID uuid.UUID) {
	if !isUserKeypair && domainID == uuid.Nil {
		m.logger.Warn("domain keypair requested with no domain id, will not generate keypair")
		return
	}

	m.logger.Debug("starting worker to generate rsa keypair")
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		publicKey, privateKey, err := m.generate()
		if err != nil {
			m.logger.Warn("error generating keypair", "error", err)
			return
		}
		m.finishKeypair(ctx, publicKey, privateKey)
	}()
}

// finishKeypair persists the private key and then uploads the public key so
// the API has an up-to-date copy. Local persistence happens before the upload
// is dispatched.
func (m *Manager) finishKeypair(ctx context.Context, publicKey, privateKey []byte) {
	m.logger.Debug("generated rsa keypair, storing private key and uploading public key")

	m.mu.Lock()
	m.current.PrivateKey = privateKey
	m.mu.Unlock()
	m.Persist(ctx)

	m.Dispatch(ctx, &Request{
		Path:   publicKeyUpdatePath,
		Auth:   AuthRequired,
		Method: http.MethodPut,
		Parts: []transport.Part{{
			Name:        "public_key",
			FileName:    "public_key",
			ContentType: "application/octet-stream",
			Data:        publicKey,
		}},
	})
}
