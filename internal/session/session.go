// Package session implements X3DH-style session establishment: deriving a
// per-envelope AEAD key from a local X25519 session key, a remote session
// public key, and a fresh ephemeral key pair.
package session

import "securechat/internal/primitives"

// protocolVersion is the HKDF info string that doubles as the wire
// protocol version marker. Changing it is a breaking wire change — it must
// never be derived from configuration.
const protocolVersion = "SecureChat-v1"

// Key is an X25519 key pair used for session establishment. Package
// session does not persist it; internal/chat seals and stores the Keys it
// uses as its identity-DH key, signed prekey and one-time prekeys.
type Key struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateKey creates a fresh X25519 session key pair.
func GenerateKey() (Key, error) {
	priv, pub, err := primitives.GenerateDHKeyPair()
	if err != nil {
		return Key{}, err
	}
	return Key{Private: priv, Public: pub}, nil
}

// Envelope is the result of a successful Seal: the encrypted payload plus
// everything the receiver needs to recompute the shared secret.
type Envelope struct {
	Ciphertext      []byte
	Nonce           [12]byte
	SenderPublic    [32]byte
	EphemeralPublic [32]byte
}

// Seal establishes a sending session from local to a remote session
// public key and encrypts plaintext under the derived shared secret. A
// fresh ephemeral key pair is generated for this call only, giving every
// envelope its own forward-secret contribution.
//
// The DH order feeding HKDF is fixed: DH(local, remote) then
// DH(ephemeral, remote), concatenated in that order into 64 bytes of IKM.
// Reversing this order yields a different secret and breaks
// interoperability.
func Seal(local Key, remotePublic [32]byte, plaintext, aad []byte) (*Envelope, error) {
	ephemeralPriv, ephemeralPub, err := primitives.GenerateDHKeyPair()
	if err != nil {
		return nil, err
	}

	dh1, err := primitives.DH(local.Private, remotePublic)
	if err != nil {
		return nil, err
	}
	dh2, err := primitives.DH(ephemeralPriv, remotePublic)
	if err != nil {
		return nil, err
	}
	sharedSecret, err := deriveSharedSecret(dh1, dh2)
	if err != nil {
		return nil, err
	}

	nonceBytes, err := primitives.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := primitives.Seal(sharedSecret[:], nonceBytes, plaintext, aad)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Ciphertext:      ciphertext,
		SenderPublic:    local.Public,
		EphemeralPublic: ephemeralPub,
	}
	copy(env.Nonce[:], nonceBytes)
	return env, nil
}

// Open is the dual of Seal: the receiver recomputes the same shared
// secret — DH(local, sender-public) then DH(local, ephemeral-public), in
// that order — and opens the AEAD ciphertext. X25519's commutativity
// (DH(a, B) == DH(b, A)) is what makes this equal the sender's secret
// without the receiver ever learning the sender's or ephemeral's private
// scalar. An AuthFailure means the envelope was tampered with or
// addressed to the wrong session key.
func Open(local Key, env *Envelope, aad []byte) ([]byte, error) {
	dh1, err := primitives.DH(local.Private, env.SenderPublic)
	if err != nil {
		return nil, err
	}
	dh2, err := primitives.DH(local.Private, env.EphemeralPublic)
	if err != nil {
		return nil, err
	}
	sharedSecret, err := deriveSharedSecret(dh1, dh2)
	if err != nil {
		return nil, err
	}
	return primitives.Open(sharedSecret[:], env.Nonce[:], env.Ciphertext, aad)
}

func deriveSharedSecret(dh1, dh2 [32]byte) ([32]byte, error) {
	var out [32]byte
	ikm := make([]byte, 0, 64)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)
	expanded, err := primitives.HKDFExpand(ikm, nil, []byte(protocolVersion), 32)
	if err != nil {
		return out, err
	}
	copy(out[:], expanded)
	return out, nil
}
