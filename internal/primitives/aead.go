// Package primitives is the auditable wrapper around the standard
// cryptographic building blocks used by the rest of the core: AES-256-GCM,
// Argon2id, HKDF-SHA-256, Ed25519, and X25519. Every function here is total
// and takes all of its inputs explicitly — no package-level state, no
// implicit key material. Nonce freshness is the caller's responsibility;
// reusing a nonce with a given key is a bug, not a handled error case.
package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// KeySize is the length in bytes of an AES-256-GCM key.
	KeySize = 32
	// NonceSize is the length in bytes of an AES-GCM nonce.
	NonceSize = 12
)

// NewNonce draws a fresh random 12-byte AEAD nonce from the process CSPRNG.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", ErrCryptoFailure, err)
	}
	return nonce, nil
}

// Seal encrypts plaintext under key with nonce, binding aad (which may be
// nil) into the authentication tag. The caller supplies a fresh nonce for
// every invocation; Seal does not check for reuse.
func Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrCryptoFailure, gcm.NonceSize())
	}
	return gcm.Seal(nil, nonce, plaintext, aad), nil
}

// Open decrypts ciphertext (which includes the trailing authentication tag)
// under key and nonce, verifying aad. It returns ErrAuthFailure on any tag
// mismatch — this must be treated as a hostile or corrupted input and
// discarded before it reaches higher layers.
func Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrCryptoFailure, gcm.NonceSize())
	}
	if len(ciphertext) < gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than AEAD tag", ErrAuthFailure)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrCryptoFailure, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return gcm, nil
}
