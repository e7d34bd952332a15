// Package keygen produces the RSA keypairs whose public half is uploaded to
// the metaverse API.
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// KeySize is the modulus size of generated keypairs in bits.
const KeySize = 2048

// Generate creates a fresh RSA keypair, returning the PKIX-encoded public key
// and the PKCS#1-encoded private key.
func Generate() (publicKey, privateKey []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, KeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}
	publicKey, err = x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	return publicKey, x509.MarshalPKCS1PrivateKey(key), nil
}
