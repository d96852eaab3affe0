package keyvault

import (
	"encoding/base64"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"securechat/internal/primitives"
)

// VaultSealer seals and unseals secret material through HashiCorp Vault's
// transit engine instead of a local password-derived key. It satisfies the
// same Sealer interface as LocalSealer. Nothing in this repository
// constructs one: IdentityKeyPair.Seal, UnsealIdentity and internal/chat
// all use LocalSealer directly.
//
// Vault's transit engine already manages nonces internally and returns a
// self-describing ciphertext blob, so VaultSealer's "nonce" return value is
// unused (kept empty) — it exists only to satisfy the Sealer interface
// shared with LocalSealer.
type VaultSealer struct {
	client  *vaultapi.Client
	keyName string
}

// NewVaultSealer builds a VaultSealer against a running Vault instance,
// using keyName as the transit engine's named encryption key.
func NewVaultSealer(addr, token, keyName string) (*VaultSealer, error) {
	cfg := vaultapi.DefaultConfig()
	cfg.Address = addr
	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating vault client: %v", primitives.ErrCryptoFailure, err)
	}
	client.SetToken(token)
	return &VaultSealer{client: client, keyName: keyName}, nil
}

func (s *VaultSealer) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	encoded := base64.StdEncoding.EncodeToString(plaintext)
	secret, err := s.client.Logical().Write(fmt.Sprintf("transit/encrypt/%s", s.keyName), map[string]interface{}{
		"plaintext": encoded,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: vault transit encrypt: %v", primitives.ErrCryptoFailure, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil, fmt.Errorf("%w: vault transit encrypt returned no data", primitives.ErrCryptoFailure)
	}
	blob, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return nil, nil, fmt.Errorf("%w: vault transit encrypt returned no ciphertext", primitives.ErrCryptoFailure)
	}
	return []byte(blob), nil, nil
}

func (s *VaultSealer) Unseal(ciphertext, _ []byte) ([]byte, error) {
	secret, err := s.client.Logical().Write(fmt.Sprintf("transit/decrypt/%s", s.keyName), map[string]interface{}{
		"ciphertext": string(ciphertext),
	})
	if err != nil {
		return nil, fmt.Errorf("%w", ErrWrongPassword)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w", ErrWrongPassword)
	}
	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("%w", ErrWrongPassword)
	}
	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding vault plaintext: %v", primitives.ErrCryptoFailure, err)
	}
	return plaintext, nil
}
