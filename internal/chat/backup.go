package chat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"securechat/internal/keyvault"
	"securechat/internal/primitives"
)

// backupPayload collects everything an export needs to reconstruct a
// usable account on another device (the identity key pair and master key
// itself stay behind — a backup restores data, not the unlock secret it
// was sealed under on the source device).
type backupPayload struct {
	Version       int            `json:"version"`
	Profile       Profile        `json:"profile"`
	Contacts      []Contact      `json:"contacts"`
	Conversations []Conversation `json:"conversations"`
}

const backupVersion = 1

// ExportBackup collects this account's profile, contacts, and
// conversations and reseals them under a key derived from backupPassword,
// independent of the account's own unlock password. The container format
// is length-prefixed: [4-byte salt length][salt][12-byte nonce][ciphertext].
func (a *Account) ExportBackup(ctx context.Context, backupPassword []byte) ([]byte, error) {
	profile, err := a.Profile(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := a.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	conversations, err := a.Conversations(ctx)
	if err != nil {
		return nil, err
	}

	payload := backupPayload{
		Version:       backupVersion,
		Profile:       *profile,
		Contacts:      contacts,
		Conversations: conversations,
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chat: marshal backup: %w", err)
	}

	salt, err := primitives.NewSalt()
	if err != nil {
		return nil, err
	}
	key := primitives.DeriveFromPassword(backupPassword, salt)
	nonce, err := primitives.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := primitives.Seal(key, nonce, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: seal backup: %w", err)
	}

	var saltLen [4]byte
	binary.BigEndian.PutUint32(saltLen[:], uint32(len(salt)))
	out := make([]byte, 0, 4+len(salt)+12+len(ciphertext))
	out = append(out, saltLen[:]...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// ImportBackup parses and decrypts a container produced by ExportBackup,
// returning its contents for the caller to merge into an unlocked
// Account (typically during account creation on a new device).
func ImportBackup(blob []byte, backupPassword []byte) (*Profile, []Contact, []Conversation, error) {
	if len(blob) < 4 {
		return nil, nil, nil, fmt.Errorf("chat: backup too short")
	}
	saltLen := binary.BigEndian.Uint32(blob[:4])
	blob = blob[4:]
	if uint32(len(blob)) < saltLen+primitives.NonceSize {
		return nil, nil, nil, fmt.Errorf("chat: backup too short")
	}
	salt := blob[:saltLen]
	blob = blob[saltLen:]
	nonce := blob[:primitives.NonceSize]
	ciphertext := blob[primitives.NonceSize:]

	key := primitives.DeriveFromPassword(backupPassword, salt)
	plaintext, err := primitives.Open(key, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: wrong backup password or corrupted file", keyvault.ErrWrongPassword)
	}

	var payload backupPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, nil, nil, fmt.Errorf("chat: unmarshal backup: %w", err)
	}
	return &payload.Profile, payload.Contacts, payload.Conversations, nil
}
