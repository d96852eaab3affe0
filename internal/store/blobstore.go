// Package store defines the local at-rest record store: a generic
// key/value blob interface plus the key-prefix and sealed-blob
// conventions its callers (chat, and the sqlitestore backend) agree on.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists for a key.
var ErrNotFound = errors.New("store: not found")

// ErrSealedBlobTooShort is returned when decoding a blob that is shorter
// than the fixed salt+nonce prefix.
var ErrSealedBlobTooShort = errors.New("store: sealed blob too short")

// Key prefixes partition a single flat key space by record type.
const (
	PrefixMasterKey    = "mk:"
	PrefixIdentity     = "id:"
	PrefixContact      = "ct:"
	PrefixConversation = "cv:"
	PrefixMessage      = "msg:"
	PrefixProfile      = "pf:"
	PrefixDevice       = "dv:"
	PrefixRatchetState = "st:"
)

// MessageKey builds the key for one message within a conversation's
// ordered message log.
func MessageKey(conversationID string, messageID string) string {
	return PrefixMessage + conversationID + "/" + messageID
}

// BlobStore is the storage collaborator every package that needs
// persistence depends on, rather than on a concrete database. put/get
// deal in opaque bytes; callers are responsible for serializing and, for
// secret material, sealing before Put and unsealing after Get.
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Scan returns every value whose key starts with prefix, in
	// lexicographic key order.
	Scan(ctx context.Context, prefix string) ([][]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	entrySaltSize = 16
	nonceSize     = 12
)

// EncodeSealedBlob lays out a sealed record as entrySalt‖nonce‖ciphertext,
// the at-rest format every sealed BlobStore entry shares.
func EncodeSealedBlob(entrySalt [16]byte, nonce [12]byte, ciphertext []byte) []byte {
	out := make([]byte, 0, entrySaltSize+nonceSize+len(ciphertext))
	out = append(out, entrySalt[:]...)
	out = append(out, nonce[:]...)
	out = append(out, ciphertext...)
	return out
}

// DecodeSealedBlob splits a sealed record back into its entry salt, nonce
// and ciphertext.
func DecodeSealedBlob(blob []byte) (entrySalt [16]byte, nonce [12]byte, ciphertext []byte, err error) {
	if len(blob) < entrySaltSize+nonceSize {
		return entrySalt, nonce, nil, ErrSealedBlobTooShort
	}
	copy(entrySalt[:], blob[:entrySaltSize])
	copy(nonce[:], blob[entrySaltSize:entrySaltSize+nonceSize])
	ciphertext = append([]byte(nil), blob[entrySaltSize+nonceSize:]...)
	return entrySalt, nonce, ciphertext, nil
}
