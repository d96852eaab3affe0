package keyvault

import (
	"crypto/ed25519"
	"fmt"

	"securechat/internal/primitives"
)

// IdentityKeyPair is the long-term Ed25519 signing identity. The secret
// half only ever lives in memory; IdentityEnvelope is the persisted,
// sealed form.
type IdentityKeyPair struct {
	Public ed25519.PublicKey
	secret ed25519.PrivateKey
}

// IdentityEnvelope is the at-rest form of an identity key pair: the public
// key in clear, plus the sealed secret key and the entry salt used to
// derive its sealing subkey (see DeriveEntrySubkey).
type IdentityEnvelope struct {
	Public    ed25519.PublicKey
	Sealed    []byte
	Nonce     [12]byte
	EntrySalt [16]byte
}

// entrySubkeyInfo is the HKDF domain separator for per-entry subkeys
// derived from a sealing key and a random 16-byte entry salt. This is what
// makes the reserved 16-byte prefix on sealed store entries meaningful
// rather than decorative: every sealed identity gets its own derived
// subkey instead of reusing the master key directly.
const entrySubkeyInfo = "securechat-entry-subkey"

// DeriveEntrySubkey derives a 32-byte per-entry key from a root key and a
// 16-byte entry salt via HKDF-SHA-256.
func DeriveEntrySubkey(rootKey [32]byte, entrySalt [16]byte) ([32]byte, error) {
	var out [32]byte
	expanded, err := primitives.HKDFExpand(rootKey[:], entrySalt[:], []byte(entrySubkeyInfo), 32)
	if err != nil {
		return out, err
	}
	copy(out[:], expanded)
	return out, nil
}

// GenerateIdentity creates a fresh Ed25519 identity key pair.
func GenerateIdentity() (*IdentityKeyPair, error) {
	pub, priv, err := primitives.GenerateSigningKey()
	if err != nil {
		return nil, err
	}
	return &IdentityKeyPair{Public: pub, secret: priv}, nil
}

// Sign produces a detached signature over msg using the identity secret.
func (id *IdentityKeyPair) Sign(msg []byte) []byte {
	return primitives.Sign(id.secret, msg)
}

// Seal encrypts the identity's secret key under masterKey, deriving a
// fresh per-entry subkey from a random 16-byte salt.
func (id *IdentityKeyPair) Seal(masterKey [32]byte) (*IdentityEnvelope, error) {
	var entrySalt [16]byte
	if _, err := randRead(entrySalt[:]); err != nil {
		return nil, fmt.Errorf("%w: generating entry salt: %v", primitives.ErrCryptoFailure, err)
	}
	subkey, err := DeriveEntrySubkey(masterKey, entrySalt)
	if err != nil {
		return nil, err
	}

	sealer := NewLocalSealer(subkey)
	sealed, nonce, err := sealer.Seal(id.secret)
	if err != nil {
		return nil, err
	}

	env := &IdentityEnvelope{
		Public:    append(ed25519.PublicKey(nil), id.Public...),
		Sealed:    sealed,
		EntrySalt: entrySalt,
	}
	copy(env.Nonce[:], nonce)
	return env, nil
}

// Unseal decrypts an IdentityEnvelope under masterKey, re-deriving the same
// per-entry subkey from the stored entry salt. The resulting public key is
// guaranteed to equal env.Public since it is recovered from the decrypted
// secret, not merely copied.
func UnsealIdentity(env *IdentityEnvelope, masterKey [32]byte) (*IdentityKeyPair, error) {
	subkey, err := DeriveEntrySubkey(masterKey, env.EntrySalt)
	if err != nil {
		return nil, err
	}
	sealer := NewLocalSealer(subkey)
	secret, err := sealer.Unseal(env.Sealed, env.Nonce[:])
	if err != nil {
		return nil, err
	}

	priv := ed25519.PrivateKey(secret)
	pub := priv.Public().(ed25519.PublicKey)
	if string(pub) != string(env.Public) {
		return nil, fmt.Errorf("%w: recovered public key does not match stored public key", primitives.ErrAuthFailure)
	}
	return &IdentityKeyPair{Public: pub, secret: priv}, nil
}
