package keyvault

import (
	"crypto/ed25519"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint derives a human-comparable, out-of-band verification string
// for an identity public key: the hex of BLAKE3(pk) truncated to 32
// characters. Fingerprints are never the identity of record — only a
// convenience for manual safety-number-style comparison.
func Fingerprint(pub ed25519.PublicKey) string {
	sum := blake3.Sum256(pub)
	return hex.EncodeToString(sum[:])[:32]
}
