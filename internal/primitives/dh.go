package primitives

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// GenerateDHKeyPair creates a fresh X25519 key pair.
func GenerateDHKeyPair() (priv, pub [32]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, priv[:]); err != nil {
		return priv, pub, fmt.Errorf("%w: generating private key: %v", ErrCryptoFailure, err)
	}
	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, fmt.Errorf("%w: deriving public key: %v", ErrCryptoFailure, err)
	}
	copy(pub[:], pubBytes)
	return priv, pub, nil
}

// DH computes the X25519 shared secret between a local private key and a
// remote public key.
func DH(priv, pub [32]byte) ([32]byte, error) {
	var out [32]byte
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return out, fmt.Errorf("%w: X25519: %v", ErrCryptoFailure, err)
	}
	copy(out[:], secret)
	return out, nil
}
