package chat

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"securechat/internal/store"
)

// linkingTokenTTL is how long a device-linking token stays valid; a new
// device must complete linking within this window or request a fresh one.
const linkingTokenTTL = 10 * time.Minute

// DeviceLinkClaims identifies which account and device a linking token
// was issued for, signed with a secret only cmd/syncrelay and the
// primary device share — never the ratchet or identity keys themselves.
type DeviceLinkClaims struct {
	AccountIdentityKey string    `json:"account_identity_key"`
	NewDeviceID        uuid.UUID `json:"new_device_id"`
	jwt.RegisteredClaims
}

// IssueLinkingToken creates a signed, time-limited token a new device
// presents to cmd/syncrelay to request this account's synced state.
// linkingSecret is a shared secret configured out-of-band between this
// account's devices, distinct from any per-message signing key.
func (a *Account) IssueLinkingToken(newDeviceID uuid.UUID, linkingSecret []byte) (string, error) {
	encodedKey := base64.RawURLEncoding.EncodeToString(a.identity.Public)
	claims := DeviceLinkClaims{
		AccountIdentityKey: encodedKey,
		NewDeviceID:        newDeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(linkingTokenTTL)),
			Subject:   encodedKey,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(linkingSecret)
}

// VerifyLinkingToken parses and validates a linking token, returning the
// identity key it was issued for and the new device's claimed ID.
func VerifyLinkingToken(tokenString string, linkingSecret []byte) (identityKey ed25519.PublicKey, newDeviceID uuid.UUID, err error) {
	claims := &DeviceLinkClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("chat: unexpected signing method %v", t.Header["alg"])
		}
		return linkingSecret, nil
	})
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("chat: parse linking token: %w", err)
	}

	identityKey, err = base64.RawURLEncoding.DecodeString(claims.AccountIdentityKey)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("chat: decode linking token identity key: %w", err)
	}
	return identityKey, claims.NewDeviceID, nil
}

// RegisterLinkedDevice records a newly linked device once its linking
// token has been verified.
func (a *Account) RegisterLinkedDevice(ctx context.Context, deviceID uuid.UUID, name string, platform Platform) error {
	device := Device{
		ID:         deviceID,
		Name:       name,
		Platform:   platform,
		LinkedAt:   time.Now().UTC(),
		LastSeenAt: time.Now().UTC(),
	}
	return a.sealAndPut(ctx, store.PrefixDevice+deviceID.String(), &device)
}

// Devices lists every device linked to this account.
func (a *Account) Devices(ctx context.Context) ([]Device, error) {
	return a.listDevices(ctx)
}
