package primitives_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/primitives"
)

func TestAEADRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, primitives.KeySize)
	nonce, err := primitives.NewNonce()
	require.NoError(t, err)

	plaintext := []byte("Hello, secure world!")
	ciphertext, err := primitives.Seal(key, nonce, plaintext, []byte("aad"))
	require.NoError(t, err)

	recovered, err := primitives.Open(key, nonce, ciphertext, []byte("aad"))
	require.NoError(t, err)
	require.Equal(t, plaintext, recovered)
}

func TestAEADOpenRejectsTampering(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, primitives.KeySize)
	nonce, err := primitives.NewNonce()
	require.NoError(t, err)

	ciphertext, err := primitives.Seal(key, nonce, []byte("payload"), nil)
	require.NoError(t, err)

	ciphertext[0] ^= 0xFF
	_, err = primitives.Open(key, nonce, ciphertext, nil)
	require.ErrorIs(t, err, primitives.ErrAuthFailure)
}

func TestAEADOpenRejectsShortCiphertext(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, primitives.KeySize)
	nonce, err := primitives.NewNonce()
	require.NoError(t, err)

	_, err = primitives.Open(key, nonce, []byte{1, 2, 3}, nil)
	require.ErrorIs(t, err, primitives.ErrAuthFailure)
}

func TestNonceIsFreshEveryCall(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		nonce, err := primitives.NewNonce()
		require.NoError(t, err)
		key := string(nonce)
		require.False(t, seen[key], "nonce collision at iteration %d", i)
		seen[key] = true
	}
}

func TestDeriveFromPasswordIsDeterministic(t *testing.T) {
	salt, err := primitives.NewSalt()
	require.NoError(t, err)

	k1 := primitives.DeriveFromPassword([]byte("test_password_123"), salt)
	k2 := primitives.DeriveFromPassword([]byte("test_password_123"), salt)
	require.Equal(t, k1, k2)

	k3 := primitives.DeriveFromPassword([]byte("test_password_124"), salt)
	require.NotEqual(t, k1, k3)
}

func TestHKDFExpandIsDomainSeparated(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x9}, 64)

	rootOut, err := primitives.HKDFExpand(ikm, nil, []byte("ratchet-root"), 32)
	require.NoError(t, err)
	sendOut, err := primitives.HKDFExpand(ikm, nil, []byte("ratchet-send"), 32)
	require.NoError(t, err)
	recvOut, err := primitives.HKDFExpand(ikm, nil, []byte("ratchet-recv"), 32)
	require.NoError(t, err)

	require.NotEqual(t, rootOut, sendOut)
	require.NotEqual(t, rootOut, recvOut)
	require.NotEqual(t, sendOut, recvOut)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := primitives.GenerateSigningKey()
	require.NoError(t, err)

	msg := []byte("Test message to sign")
	sig := primitives.Sign(priv, msg)
	require.NoError(t, primitives.Verify(pub, msg, sig))
}

func TestVerifyRejectsMutatedMessage(t *testing.T) {
	pub, priv, err := primitives.GenerateSigningKey()
	require.NoError(t, err)

	msg := []byte("Test message to sign")
	sig := primitives.Sign(priv, msg)

	mutated := append([]byte(nil), msg...)
	mutated[0] ^= 0x01
	require.ErrorIs(t, primitives.Verify(pub, mutated, sig), primitives.ErrAuthFailure)
}

func TestDHSharedSecretAgreement(t *testing.T) {
	alicePriv, alicePub, err := primitives.GenerateDHKeyPair()
	require.NoError(t, err)
	bobPriv, bobPub, err := primitives.GenerateDHKeyPair()
	require.NoError(t, err)

	aliceSecret, err := primitives.DH(alicePriv, bobPub)
	require.NoError(t, err)
	bobSecret, err := primitives.DH(bobPriv, alicePub)
	require.NoError(t, err)

	require.Equal(t, aliceSecret, bobSecret)
}
