package chat

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"securechat/internal/keyvault"
	"securechat/internal/primitives"
	"securechat/internal/store"
)

// sealBlob JSON-marshals v and seals it under a fresh entry subkey derived
// from masterKey, returning the sealed-blob layout store.BlobStore
// records share.
func sealBlob(v interface{}, masterKey [32]byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("chat: marshal record: %w", err)
	}

	var entrySalt [16]byte
	if _, err := io.ReadFull(rand.Reader, entrySalt[:]); err != nil {
		return nil, fmt.Errorf("%w: generating entry salt: %v", primitives.ErrCryptoFailure, err)
	}
	subkey, err := keyvault.DeriveEntrySubkey(masterKey, entrySalt)
	if err != nil {
		return nil, err
	}
	nonce, err := primitives.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := primitives.Seal(subkey[:], nonce, plaintext, nil)
	if err != nil {
		return nil, err
	}

	var nonceArr [12]byte
	copy(nonceArr[:], nonce)
	return store.EncodeSealedBlob(entrySalt, nonceArr, ciphertext), nil
}

// unsealBlob reverses sealBlob, decoding into v.
func unsealBlob(raw []byte, masterKey [32]byte, v interface{}) error {
	entrySalt, nonce, ciphertext, err := store.DecodeSealedBlob(raw)
	if err != nil {
		return err
	}
	subkey, err := keyvault.DeriveEntrySubkey(masterKey, entrySalt)
	if err != nil {
		return err
	}
	plaintext, err := primitives.Open(subkey[:], nonce[:], ciphertext, nil)
	if err != nil {
		return fmt.Errorf("chat: unseal record: %w", err)
	}
	return json.Unmarshal(plaintext, v)
}
