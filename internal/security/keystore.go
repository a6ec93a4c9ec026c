// Package security provides the device's key material: generation,
// on-disk persistence, PEM public-key encoding, and PKCS#1 v1.5 SHA-256
// signing. Spec §1 names this an external collaborator to the control
// plane proper, but a concrete implementation ships since bootstrap and
// daemon both need one to run.
package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

const (
	keyBits       = 3072
	publicExponent = 65537
	keyFileMode   = 0600
)

// Signer is the capability the auth client needs: a PEM-encoded public
// key and the ability to sign a byte slice.
type Signer interface {
	PublicKeyPEM() ([]byte, error)
	Sign(data []byte) ([]byte, error)
}

// KeyStore persists an RSA private key at a fixed path with PKCS#1 v1.5
// SHA-256 signing, per spec §6.
type KeyStore struct {
	path string
	key  *rsa.PrivateKey
}

// Generate creates a fresh RSA-3072 keypair (public exponent 65537, the
// package default) and writes it to path with mode 0600, overwriting
// anything already there.
func Generate(path string) (*KeyStore, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if key.PublicKey.E != publicExponent {
		// crypto/rsa.GenerateKey always uses 65537; this guards the invariant
		// if that ever changes upstream.
		return nil, fmt.Errorf("generated key has unexpected public exponent %d", key.PublicKey.E)
	}

	ks := &KeyStore{path: path, key: key}
	if err := ks.save(); err != nil {
		return nil, err
	}
	return ks, nil
}

// Load reads an existing PEM-encoded PKCS#1 private key from path.
func Load(path string) (*KeyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyStore{path: path, key: key}, nil
}

// LoadOrGenerate loads the key at path, generating a new one if absent.
func LoadOrGenerate(path string) (*KeyStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Generate(path)
	}
	return Load(path)
}

func (k *KeyStore) save() error {
	der := x509.MarshalPKCS1PrivateKey(k.key)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	data := pem.EncodeToMemory(block)
	return os.WriteFile(k.path, data, keyFileMode)
}

// PublicKeyPEM returns the device public key as a PEM-encoded
// SubjectPublicKeyInfo block.
func (k *KeyStore) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&k.key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// Sign produces a PKCS#1 v1.5 SHA-256 signature over data.
func (k *KeyStore) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return rsa.SignPKCS1v15(rand.Reader, k.key, crypto.SHA256, digest[:])
}
