package keyvault

import (
	"fmt"

	"securechat/internal/primitives"
)

// MasterKeyEnvelope holds an AEAD-sealed 32-byte master key together with
// the Argon2id salt and AEAD nonce needed to unseal it. It is created once
// at account creation and mutated only on password change (unseal, then
// reseal under the new password-derived key).
type MasterKeyEnvelope struct {
	Sealed [48]byte // AES-256-GCM ciphertext of a 32-byte key: 32 + 16-byte tag
	Salt   [32]byte
	Nonce  [12]byte
}

// CreateMasterKey generates a fresh random master key, seals it under a key
// derived from password via Argon2id, and returns both the envelope to
// persist and the cleartext master key to keep in memory.
func CreateMasterKey(password []byte) (*MasterKeyEnvelope, [32]byte, error) {
	var masterKey [32]byte
	salt, err := primitives.NewSalt()
	if err != nil {
		return nil, masterKey, err
	}
	nonce, err := primitives.NewNonce()
	if err != nil {
		return nil, masterKey, err
	}
	if _, err := randRead(masterKey[:]); err != nil {
		return nil, masterKey, fmt.Errorf("%w: generating master key: %v", primitives.ErrCryptoFailure, err)
	}

	derivedKey := primitives.DeriveFromPassword(password, salt)
	sealed, err := primitives.Seal(derivedKey, nonce, masterKey[:], nil)
	if err != nil {
		return nil, masterKey, err
	}

	env := &MasterKeyEnvelope{}
	copy(env.Sealed[:], sealed)
	copy(env.Salt[:], salt)
	copy(env.Nonce[:], nonce)
	return env, masterKey, nil
}

// Unlock re-derives the password key with the envelope's stored salt and
// opens the sealed master key. An AEAD authentication failure is reported
// as ErrWrongPassword — this is the only way to distinguish a bad
// password from a corrupted envelope, and the two are deliberately
// conflated here.
func (env *MasterKeyEnvelope) Unlock(password []byte) ([32]byte, error) {
	var masterKey [32]byte
	derivedKey := primitives.DeriveFromPassword(password, env.Salt[:])
	plaintext, err := primitives.Open(derivedKey, env.Nonce[:], env.Sealed[:], nil)
	if err != nil {
		return masterKey, fmt.Errorf("%w", ErrWrongPassword)
	}
	copy(masterKey[:], plaintext)
	return masterKey, nil
}

// ResealMasterKey produces a new envelope for the same master key under a new
// password. Used for password-change flows: unseal with the old password,
// then reseal with the new one.
func ResealMasterKey(masterKey [32]byte, newPassword []byte) (*MasterKeyEnvelope, error) {
	salt, err := primitives.NewSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := primitives.NewNonce()
	if err != nil {
		return nil, err
	}
	derivedKey := primitives.DeriveFromPassword(newPassword, salt)
	sealed, err := primitives.Seal(derivedKey, nonce, masterKey[:], nil)
	if err != nil {
		return nil, err
	}
	env := &MasterKeyEnvelope{}
	copy(env.Sealed[:], sealed)
	copy(env.Salt[:], salt)
	copy(env.Nonce[:], nonce)
	return env, nil
}

// Zero overwrites the envelope's in-memory sealed copy. It does not erase
// the master key itself — callers own that lifetime (see Account.Close).
func (env *MasterKeyEnvelope) Zero() {
	for i := range env.Sealed {
		env.Sealed[i] = 0
	}
}
