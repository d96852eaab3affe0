package chat

import (
	"crypto/ed25519"

	"securechat/internal/envelope"
	"securechat/internal/keyvault"
)

// Fingerprint returns this account's own identity fingerprint, a short
// human-comparable string for reading aloud or printing next to a QR code
// during an out-of-band safety-number verification.
func (a *Account) Fingerprint() string {
	return keyvault.Fingerprint(a.identity.Public)
}

// ContactFingerprint returns a contact's fingerprint, to compare against
// what the contact reads aloud from their own device.
func ContactFingerprint(c Contact) string {
	return keyvault.Fingerprint(ed25519.PublicKey(c.IdentityKey))
}

// ShareURI builds the securechat://contact sharing link for this
// account's own identity, carrying displayName as a hint for the
// recipient's add-contact flow.
func (a *Account) ShareURI(displayName string) string {
	uri := envelope.ContactURI{IdentityKey: a.identity.Public, Name: displayName}
	return uri.Encode()
}

// ParseShareURI decodes a securechat://contact URI into the identity key
// and display-name hint AddContact needs.
func ParseShareURI(raw string) (*envelope.ContactURI, error) {
	return envelope.ParseContactURI(raw)
}
