package primitives

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// GenerateSigningKey creates a fresh Ed25519 key pair for long-term identity
// signing.
func GenerateSigningKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: generating signing key: %v", ErrCryptoFailure, err)
	}
	return pub, priv, nil
}

// Sign produces a detached Ed25519 signature over msg.
func Sign(sk ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(sk, msg)
}

// Verify checks sig against msg under pk using strict verification
// (rejects non-canonical / malleable signature encodings). Returns
// ErrAuthFailure on any mismatch.
func Verify(pk ed25519.PublicKey, msg, sig []byte) error {
	if len(pk) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: invalid public key length", ErrAuthFailure)
	}
	if !ed25519.Verify(pk, msg, sig) {
		return fmt.Errorf("%w: signature mismatch", ErrAuthFailure)
	}
	return nil
}
