package keyvault

import "securechat/internal/primitives"

// LocalSealer is the default Sealer: AES-256-GCM under a key already held
// in process memory (the master key, or a per-entry subkey derived from
// it by DeriveEntrySubkey). It
// generates a fresh nonce on every Seal call.
type LocalSealer struct {
	key [32]byte
}

// NewLocalSealer wraps a 32-byte key for local AEAD sealing.
func NewLocalSealer(key [32]byte) *LocalSealer {
	return &LocalSealer{key: key}
}

func (s *LocalSealer) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce, err = primitives.NewNonce()
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = primitives.Seal(s.key[:], nonce, plaintext, nil)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, nonce, nil
}

func (s *LocalSealer) Unseal(ciphertext, nonce []byte) ([]byte, error) {
	return primitives.Open(s.key[:], nonce, ciphertext, nil)
}
