package envelope

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/url"
)

const contactURIScheme = "securechat"

// ContactURI is the decoded form of a securechat://contact?key=...&name=...
// sharing link: an identity public key plus an optional display name hint.
type ContactURI struct {
	IdentityKey ed25519.PublicKey
	Name        string
}

// Encode produces a securechat://contact URI for sharing out-of-band (QR
// code, paste into a chat, etc). The identity key is base64url-encoded
// without padding to keep the URI copy-paste friendly.
func (c ContactURI) Encode() string {
	u := url.URL{
		Scheme: contactURIScheme,
		Host:   "contact",
	}
	q := url.Values{}
	q.Set("key", base64.RawURLEncoding.EncodeToString(c.IdentityKey))
	if c.Name != "" {
		q.Set("name", c.Name)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseContactURI parses and strictly validates a contact sharing URI:
// the scheme and host must match exactly, and key must decode to a valid
// Ed25519 public key length.
func ParseContactURI(raw string) (*ContactURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContactURI, err)
	}
	if u.Scheme != contactURIScheme || u.Host != "contact" {
		return nil, ErrInvalidContactURI
	}

	keyParam := u.Query().Get("key")
	if keyParam == "" {
		return nil, ErrInvalidContactURI
	}
	keyBytes, err := base64.RawURLEncoding.DecodeString(keyParam)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContactURI, err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, ErrInvalidContactURI
	}

	return &ContactURI{
		IdentityKey: ed25519.PublicKey(keyBytes),
		Name:        u.Query().Get("name"),
	}, nil
}
