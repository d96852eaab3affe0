package chat

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"securechat/internal/ratchet"
	"securechat/internal/session"
	"securechat/internal/store"
)

// signedPrekeyRecord is the sealed, persisted form of the account's
// medium-term signed prekey and its signature under the identity key.
type signedPrekeyRecord struct {
	Key       session.Key `json:"key"`
	Signature []byte      `json:"signature"`
}

func oneTimePrekeyKey(pub [32]byte) string {
	return store.PrefixIdentity + "otp:" + hex.EncodeToString(pub[:])
}

// GenerateOneTimePrekeys creates and persists n fresh one-time prekeys,
// topping up the pool that PublicKeyBundle hands out to initiators.
func (a *Account) GenerateOneTimePrekeys(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		key, err := session.GenerateKey()
		if err != nil {
			return fmt.Errorf("chat: generate one-time prekey: %w", err)
		}
		if err := a.sealAndPut(ctx, oneTimePrekeyKey(key.Public), key); err != nil {
			return fmt.Errorf("chat: store one-time prekey: %w", err)
		}
	}
	return nil
}

// PublicKeyBundle returns this account's publishable prekey bundle: the
// identity signing key, the signed prekey with its signature, and one
// available one-time prekey if the pool isn't empty. The one-time prekey
// is not removed from the pool here — it is only consumed once an
// initiator's first message actually arrives referencing it (see
// AcceptConversation), so repeated calls before then return the same
// one-time prekey.
func (a *Account) PublicKeyBundle(ctx context.Context) (session.KeyBundle, error) {
	bundle := session.KeyBundle{
		IdentityKey:           a.identity.Public,
		SignedPrekey:          a.signedPrekey.Public,
		SignedPrekeySignature: a.signedPrekeySignature,
	}

	raws, err := a.db.Scan(ctx, store.PrefixIdentity+"otp:")
	if err != nil {
		return bundle, fmt.Errorf("chat: scan one-time prekeys: %w", err)
	}
	if len(raws) > 0 {
		var key session.Key
		if err := unsealBlob(raws[0], a.masterKey, &key); err != nil {
			return bundle, err
		}
		bundle.OneTimePrekeys = [][32]byte{key.Public}
	}
	return bundle, nil
}

func (a *Account) consumeOneTimePrekey(ctx context.Context, pub [32]byte) (*session.Key, error) {
	raw, err := a.db.Get(ctx, oneTimePrekeyKey(pub))
	if err != nil {
		return nil, fmt.Errorf("chat: one-time prekey not found: %w", err)
	}
	var key session.Key
	if err := unsealBlob(raw, a.masterKey, &key); err != nil {
		return nil, err
	}
	if err := a.db.Delete(ctx, oneTimePrekeyKey(pub)); err != nil {
		return nil, fmt.Errorf("chat: delete consumed one-time prekey: %w", err)
	}
	return &key, nil
}

// IdentityDHPublicKey returns this account's long-term X25519 session key,
// the value an initiator's identity-DH leg of X3DH combines with a
// responder's signed prekey. It travels alongside the ephemeral public key
// EstablishConversation produces in whatever first handshake message a
// caller sends to the responder (e.g. a KindKeyBundle ProtocolMessage).
func (a *Account) IdentityDHPublicKey() [32]byte {
	return a.identityDH.Public
}

// EstablishConversation runs the initiator's side of session establishment
// against contactID's published bundle: it verifies and combines keys via
// session.EstablishInitial, seeds a fresh ratchet.State from the result,
// and registers it with the conversation RatchetManager tracks. The
// returned ephemeral public key must reach the responder (alongside
// IdentityDHPublicKey) for AcceptConversation to recompute the same
// shared secret.
func (a *Account) EstablishConversation(ctx context.Context, contactID uuid.UUID, bundle session.KeyBundle) (*Conversation, [32]byte, error) {
	ephemeral, err := session.GenerateKey()
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("chat: generate ephemeral key: %w", err)
	}

	sharedSecret, _, err := session.EstablishInitial(a.identityDH, ephemeral, bundle)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("chat: establish session: %w", err)
	}

	conv, err := a.GetOrCreateConversation(ctx, contactID)
	if err != nil {
		return nil, [32]byte{}, err
	}

	state, err := ratchet.Initialize(sharedSecret, bundle.SignedPrekey)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("chat: initialize ratchet: %w", err)
	}
	if err := a.ratchets.Put(ctx, conv.ID, state); err != nil {
		return nil, [32]byte{}, err
	}
	return conv, ephemeral.Public, nil
}

// AcceptConversation runs the bundle owner's side of session establishment
// against an initiator's identity-DH and ephemeral public keys, reusing
// this account's own signed prekey pair as the ratchet's starting local
// key (the same pair the initiator's EstablishConversation targeted).
// usedOneTimePublic, when non-nil, is the one-time prekey public key the
// initiator's message referenced — it is consumed (removed from the
// pool) before the shared secret is recomputed.
func (a *Account) AcceptConversation(ctx context.Context, contactID uuid.UUID, initiatorIdentityPublic, initiatorEphemeralPublic [32]byte, usedOneTimePublic *[32]byte) (*Conversation, error) {
	var oneTime *session.Key
	if usedOneTimePublic != nil {
		key, err := a.consumeOneTimePrekey(ctx, *usedOneTimePublic)
		if err != nil {
			return nil, err
		}
		oneTime = key
	}

	sharedSecret, err := session.RespondInitial(a.signedPrekey, oneTime, initiatorIdentityPublic, initiatorEphemeralPublic)
	if err != nil {
		return nil, fmt.Errorf("chat: respond to session: %w", err)
	}

	conv, err := a.GetOrCreateConversation(ctx, contactID)
	if err != nil {
		return nil, err
	}

	state := ratchet.NewResponderState(sharedSecret, a.signedPrekey.Private, a.signedPrekey.Public)
	if err := a.ratchets.Put(ctx, conv.ID, state); err != nil {
		return nil, err
	}
	return conv, nil
}
