package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// SaltSize is the length in bytes of an Argon2id salt.
const SaltSize = 32

// argon2 parameters. These follow the library-default interactive profile:
// one pass, 64 MiB, four lanes, 32-byte output — the same profile the
// teacher's DefaultArgon2Params uses for login-path hashing.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// NewSalt draws a fresh random 32-byte Argon2id salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", ErrCryptoFailure, err)
	}
	return salt, nil
}

// DeriveFromPassword runs Argon2id over password and salt, producing a
// 32-byte key. Library-default parameters; no caller-tunable cost beyond
// the salt.
func DeriveFromPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HKDFExpand extracts-then-expands ikm into outLen bytes of keying
// material, domain-separated by info. salt may be nil: session
// establishment intentionally omits an explicit HKDF salt, since the DH
// output itself is already high-entropy secret material.
func HKDFExpand(ikm, salt, info []byte, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("%w: hkdf expand: %v", ErrCryptoFailure, err)
	}
	return out, nil
}
