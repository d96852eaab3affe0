package session

import (
	"crypto/ed25519"
	"fmt"

	"securechat/internal/primitives"
)

// bundleVersion is the HKDF info string for the KeyBundle-based initial
// handshake. It is distinct from protocolVersion: the two flows derive
// different secrets for different purposes and must not share a domain
// separator.
const bundleVersion = "SecureChat-X3DH-v1"

// KeyBundle is the wire-visible published prekey bundle: an identity
// signing key, a medium-term signed prekey with its signature, and zero or
// more single-use prekeys.
type KeyBundle struct {
	IdentityKey           ed25519.PublicKey
	SignedPrekey          [32]byte
	SignedPrekeySignature []byte
	OneTimePrekeys        [][32]byte
}

// EstablishInitial performs the classical X3DH handshake against a
// recipient's published KeyBundle: it verifies the signed prekey's
// signature, then combines DH(initiatorIdentityDH, signedPrekey),
// DH(ephemeral, signedPrekey), and — when the bundle still has one
// available — DH(ephemeral, oneTimePrekey) into the HKDF input. The result
// seeds a fresh ratchet.State (via ratchet.Initialize), not an immediate
// AEAD encryption: this is session *establishment*, distinct from the
// lightweight per-envelope Seal/Open in session.go.
//
// initiatorIdentityDH is the initiator's own X25519 session key used in
// place of a DH-capable identity key: IdentityKeyPair is Ed25519-only
// (signing, never DH), so unlike textbook X3DH this omits
// DH(initiator_identity, responder_identity) and instead uses the
// initiator's session key for that leg. This is a deliberate, documented
// deviation (see DESIGN.md) driven by keeping identity (signing) and
// session (DH) key material strictly separate.
func EstablishInitial(initiatorIdentityDH Key, ephemeral Key, bundle KeyBundle) (sharedSecret [32]byte, usedOneTime bool, err error) {
	if len(bundle.SignedPrekeySignature) == 0 {
		return sharedSecret, false, fmt.Errorf("%w: bundle missing signed prekey signature", primitives.ErrAuthFailure)
	}
	if err := primitives.Verify(bundle.IdentityKey, bundle.SignedPrekey[:], bundle.SignedPrekeySignature); err != nil {
		return sharedSecret, false, fmt.Errorf("%w: signed prekey signature invalid", primitives.ErrAuthFailure)
	}

	dh1, err := primitives.DH(initiatorIdentityDH.Private, bundle.SignedPrekey)
	if err != nil {
		return sharedSecret, false, err
	}
	dh2, err := primitives.DH(ephemeral.Private, bundle.SignedPrekey)
	if err != nil {
		return sharedSecret, false, err
	}

	ikm := make([]byte, 0, 128)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)

	if len(bundle.OneTimePrekeys) > 0 {
		dh3, err := primitives.DH(ephemeral.Private, bundle.OneTimePrekeys[0])
		if err != nil {
			return sharedSecret, false, err
		}
		ikm = append(ikm, dh3[:]...)
		usedOneTime = true
	}

	expanded, err := primitives.HKDFExpand(ikm, nil, []byte(bundleVersion), 32)
	if err != nil {
		return sharedSecret, false, err
	}
	copy(sharedSecret[:], expanded)
	return sharedSecret, usedOneTime, nil
}

// RespondInitial is the bundle owner's dual of EstablishInitial: it
// recomputes the same shared secret from its own signed-prekey private key
// (and one-time prekey private key, if the initiator consumed one) against
// the initiator's identity-DH and ephemeral public keys.
func RespondInitial(signedPrekey Key, oneTimePrekey *Key, initiatorIdentityPublic, initiatorEphemeralPublic [32]byte) ([32]byte, error) {
	var sharedSecret [32]byte

	dh1, err := primitives.DH(signedPrekey.Private, initiatorIdentityPublic)
	if err != nil {
		return sharedSecret, err
	}
	dh2, err := primitives.DH(signedPrekey.Private, initiatorEphemeralPublic)
	if err != nil {
		return sharedSecret, err
	}

	ikm := make([]byte, 0, 128)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)

	if oneTimePrekey != nil {
		dh3, err := primitives.DH(oneTimePrekey.Private, initiatorEphemeralPublic)
		if err != nil {
			return sharedSecret, err
		}
		ikm = append(ikm, dh3[:]...)
	}

	expanded, err := primitives.HKDFExpand(ikm, nil, []byte(bundleVersion), 32)
	if err != nil {
		return sharedSecret, err
	}
	copy(sharedSecret[:], expanded)
	return sharedSecret, nil
}
