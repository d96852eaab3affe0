package chat

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/google/uuid"

	"securechat/internal/store"
)

func contactKey(id uuid.UUID) string {
	return store.PrefixContact + id.String()
}

// AddContact records a new contact by their long-term identity public key.
func (a *Account) AddContact(ctx context.Context, identityKey ed25519.PublicKey, displayName string) (*Contact, error) {
	if len(identityKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("chat: identity key must be %d bytes", ed25519.PublicKeySize)
	}
	contact := &Contact{
		ID:          uuid.New(),
		DisplayName: displayName,
		IdentityKey: append(ed25519.PublicKey(nil), identityKey...),
		AddedAt:     time.Now().UTC(),
	}
	if err := a.sealAndPut(ctx, contactKey(contact.ID), contact); err != nil {
		return nil, fmt.Errorf("chat: store contact: %w", err)
	}
	return contact, nil
}

// GetContact loads a single contact by ID.
func (a *Account) GetContact(ctx context.Context, id uuid.UUID) (*Contact, error) {
	var c Contact
	if err := a.sealAndGet(ctx, contactKey(id), &c); err != nil {
		return nil, fmt.Errorf("chat: load contact: %w", err)
	}
	return &c, nil
}

// Contacts lists every known contact.
func (a *Account) Contacts(ctx context.Context) ([]Contact, error) {
	raws, err := a.db.Scan(ctx, store.PrefixContact)
	if err != nil {
		return nil, fmt.Errorf("chat: scan contacts: %w", err)
	}
	contacts := make([]Contact, 0, len(raws))
	for _, raw := range raws {
		var c Contact
		if err := unsealBlob(raw, a.masterKey, &c); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// SetContactVerified marks a contact as having had their fingerprint
// manually confirmed out-of-band.
func (a *Account) SetContactVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	c, err := a.GetContact(ctx, id)
	if err != nil {
		return err
	}
	c.Verified = verified
	return a.sealAndPut(ctx, contactKey(c.ID), c)
}

// SetContactBlocked marks a contact as blocked; callers are expected to
// stop delivering inbound messages from a blocked contact's conversation
// before they reach message history.
func (a *Account) SetContactBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	c, err := a.GetContact(ctx, id)
	if err != nil {
		return err
	}
	c.Blocked = blocked
	return a.sealAndPut(ctx, contactKey(c.ID), c)
}
