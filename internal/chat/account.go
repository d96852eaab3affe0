// Package chat is the account-level facade over primitives, keyvault,
// session, ratchet, envelope, store and transport: create or unlock an
// account, manage contacts and conversations, and send or receive
// messages through the Double Ratchet.
package chat

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"securechat/internal/keyvault"
	"securechat/internal/session"
	"securechat/internal/store"
)

// Account is the unlocked, in-memory state for one local device: a master
// key, an identity key pair, and a handle on the blob store everything is
// persisted through.
type Account struct {
	db        store.BlobStore
	masterKey [32]byte
	identity  *keyvault.IdentityKeyPair
	sealer    *keyvault.LocalSealer
	deviceID  uuid.UUID

	// identityDH and signedPrekey are the long-term and medium-term X25519
	// session keys this account publishes for others to run
	// session.EstablishInitial/RespondInitial against (see handshake.go).
	// identityDH stands in for a DH-capable identity key, since
	// IdentityKeyPair is Ed25519-only (see DESIGN.md).
	identityDH            session.Key
	signedPrekey          session.Key
	signedPrekeySignature []byte

	ratchets *RatchetManager
}

const (
	identityDHKey   = store.PrefixIdentity + "dh"
	signedPrekeyKey = store.PrefixIdentity + "prekey"
)

// CreateAccount initializes a brand-new account against an empty store:
// generates a master key sealed under password, a fresh identity key
// pair, and an initial profile.
func CreateAccount(ctx context.Context, db store.BlobStore, password []byte, displayName string) (*Account, error) {
	masterEnvelope, masterKey, err := keyvault.CreateMasterKey(password)
	if err != nil {
		return nil, fmt.Errorf("chat: create master key: %w", err)
	}
	if err := putJSON(ctx, db, store.PrefixMasterKey+"self", masterEnvelope); err != nil {
		return nil, err
	}

	identity, err := keyvault.GenerateIdentity()
	if err != nil {
		return nil, fmt.Errorf("chat: generate identity: %w", err)
	}

	identityDH, err := session.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("chat: generate identity-DH key: %w", err)
	}
	signedPrekey, err := session.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("chat: generate signed prekey: %w", err)
	}

	acct := &Account{
		db:                    db,
		masterKey:             masterKey,
		identity:              identity,
		sealer:                keyvault.NewLocalSealer(masterKey),
		deviceID:              uuid.New(),
		identityDH:            identityDH,
		signedPrekey:          signedPrekey,
		signedPrekeySignature: identity.Sign(signedPrekey.Public[:]),
	}
	acct.ratchets = newRatchetManager(db, acct.masterKey)

	identityEnvelope, err := identity.Seal(masterKey)
	if err != nil {
		return nil, fmt.Errorf("chat: seal identity: %w", err)
	}
	if err := putJSON(ctx, db, store.PrefixIdentity+"self", identityEnvelope); err != nil {
		return nil, fmt.Errorf("chat: store identity: %w", err)
	}
	if err := acct.sealAndPut(ctx, identityDHKey, acct.identityDH); err != nil {
		return nil, fmt.Errorf("chat: store identity-DH key: %w", err)
	}
	if err := acct.sealAndPut(ctx, signedPrekeyKey, signedPrekeyRecord{
		Key:       acct.signedPrekey,
		Signature: acct.signedPrekeySignature,
	}); err != nil {
		return nil, fmt.Errorf("chat: store signed prekey: %w", err)
	}

	profile := Profile{DisplayName: displayName, CreatedAt: time.Now().UTC()}
	if err := acct.sealAndPut(ctx, store.PrefixProfile+"self", profile); err != nil {
		return nil, fmt.Errorf("chat: store profile: %w", err)
	}

	device := Device{
		ID:         acct.deviceID,
		Name:       displayName + "'s device",
		Platform:   PlatformUnknown,
		LinkedAt:   time.Now().UTC(),
		LastSeenAt: time.Now().UTC(),
	}
	if err := acct.sealAndPut(ctx, store.PrefixDevice+device.ID.String(), device); err != nil {
		return nil, fmt.Errorf("chat: store device: %w", err)
	}

	return acct, nil
}

// UnlockAccount opens an existing account: unseals the master key under
// password, then the identity key pair beneath it. It returns
// keyvault.ErrWrongPassword unwrapped when the master key does not
// unseal, so callers can match it with errors.Is; as in keyvault, that
// error covers both an incorrect password and a corrupted envelope.
func UnlockAccount(ctx context.Context, db store.BlobStore, password []byte) (*Account, error) {
	var env keyvault.MasterKeyEnvelope
	if err := getJSON(ctx, db, store.PrefixMasterKey+"self", &env); err != nil {
		return nil, fmt.Errorf("chat: load master key envelope: %w", err)
	}
	masterKey, err := env.Unlock(password)
	if err != nil {
		return nil, err
	}

	var identityEnvelope keyvault.IdentityEnvelope
	if err := getJSON(ctx, db, store.PrefixIdentity+"self", &identityEnvelope); err != nil {
		return nil, fmt.Errorf("chat: load identity envelope: %w", err)
	}
	identity, err := keyvault.UnsealIdentity(&identityEnvelope, masterKey)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		db:        db,
		masterKey: masterKey,
		identity:  identity,
		sealer:    keyvault.NewLocalSealer(masterKey),
	}
	acct.ratchets = newRatchetManager(db, acct.masterKey)

	if err := acct.sealAndGet(ctx, identityDHKey, &acct.identityDH); err != nil {
		return nil, fmt.Errorf("chat: load identity-DH key: %w", err)
	}
	var prekeyRec signedPrekeyRecord
	if err := acct.sealAndGet(ctx, signedPrekeyKey, &prekeyRec); err != nil {
		return nil, fmt.Errorf("chat: load signed prekey: %w", err)
	}
	acct.signedPrekey = prekeyRec.Key
	acct.signedPrekeySignature = prekeyRec.Signature

	devices, err := acct.listDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) > 0 {
		acct.deviceID = devices[0].ID
	} else {
		acct.deviceID = uuid.New()
	}

	return acct, nil
}

// IdentityPublicKey returns the account's long-term signing public key,
// the value shared with contacts via a ContactURI.
func (a *Account) IdentityPublicKey() ed25519.PublicKey {
	return a.identity.Public
}

// DeviceID returns this device's identifier.
func (a *Account) DeviceID() uuid.UUID {
	return a.deviceID
}

// Close releases the blob store handle. It does not zero the master key
// or the identity secret: both stay in process memory until the Account
// is garbage collected.
func (a *Account) Close() error {
	return a.db.Close()
}

func (a *Account) listDevices(ctx context.Context) ([]Device, error) {
	raws, err := a.db.Scan(ctx, store.PrefixDevice)
	if err != nil {
		return nil, fmt.Errorf("chat: scan devices: %w", err)
	}
	devices := make([]Device, 0, len(raws))
	for _, raw := range raws {
		var d Device
		if err := unsealBlob(raw, a.masterKey, &d); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// sealAndPut seals v as JSON under a fresh entry subkey and stores it at
// key, using the sealed-blob layout every BlobStore record of this kind
// shares (entry salt ‖ nonce ‖ ciphertext).
func (a *Account) sealAndPut(ctx context.Context, key string, v interface{}) error {
	blob, err := sealBlob(v, a.masterKey)
	if err != nil {
		return err
	}
	return a.db.Put(ctx, key, blob)
}

func (a *Account) sealAndGet(ctx context.Context, key string, v interface{}) error {
	raw, err := a.db.Get(ctx, key)
	if err != nil {
		return err
	}
	return unsealBlob(raw, a.masterKey, v)
}

func putJSON(ctx context.Context, db store.BlobStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("chat: marshal %s: %w", key, err)
	}
	return db.Put(ctx, key, data)
}

func getJSON(ctx context.Context, db store.BlobStore, key string, v interface{}) error {
	data, err := db.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
