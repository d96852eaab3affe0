package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/keyvault"
	"securechat/internal/session"
)

func TestSealOpenRoundTrip(t *testing.T) {
	alice, err := session.GenerateKey()
	require.NoError(t, err)
	bob, err := session.GenerateKey()
	require.NoError(t, err)

	message := []byte("Hello, secure world!")
	env, err := session.Seal(alice, bob.Public, message, nil)
	require.NoError(t, err)

	plaintext, err := session.Open(bob, env, nil)
	require.NoError(t, err)
	require.Equal(t, message, plaintext)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	alice, err := session.GenerateKey()
	require.NoError(t, err)
	bob, err := session.GenerateKey()
	require.NoError(t, err)

	env, err := session.Seal(alice, bob.Public, []byte("payload"), nil)
	require.NoError(t, err)
	env.Ciphertext[0] ^= 0xFF

	_, err = session.Open(bob, env, nil)
	require.Error(t, err)
}

func TestOpenRejectsWrongRecipient(t *testing.T) {
	alice, err := session.GenerateKey()
	require.NoError(t, err)
	bob, err := session.GenerateKey()
	require.NoError(t, err)
	eve, err := session.GenerateKey()
	require.NoError(t, err)

	env, err := session.Seal(alice, bob.Public, []byte("payload"), nil)
	require.NoError(t, err)

	_, err = session.Open(eve, env, nil)
	require.Error(t, err)
}

func TestEstablishInitialWithOneTimePrekey(t *testing.T) {
	bobIdentity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	signedPrekey, err := session.GenerateKey()
	require.NoError(t, err)
	oneTimePrekey, err := session.GenerateKey()
	require.NoError(t, err)

	sig := bobIdentity.Sign(signedPrekey.Public[:])
	bundle := session.KeyBundle{
		IdentityKey:           bobIdentity.Public,
		SignedPrekey:          signedPrekey.Public,
		SignedPrekeySignature: sig,
		OneTimePrekeys:        [][32]byte{oneTimePrekey.Public},
	}

	aliceIdentityDH, err := session.GenerateKey()
	require.NoError(t, err)
	aliceEphemeral, err := session.GenerateKey()
	require.NoError(t, err)

	aliceSecret, usedOneTime, err := session.EstablishInitial(aliceIdentityDH, aliceEphemeral, bundle)
	require.NoError(t, err)
	require.True(t, usedOneTime)

	bobSecret, err := session.RespondInitial(signedPrekey, &oneTimePrekey, aliceIdentityDH.Public, aliceEphemeral.Public)
	require.NoError(t, err)

	require.Equal(t, aliceSecret, bobSecret)
}

func TestEstablishInitialRejectsBadSignature(t *testing.T) {
	bobIdentity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)
	otherIdentity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	signedPrekey, err := session.GenerateKey()
	require.NoError(t, err)

	badSig := otherIdentity.Sign(signedPrekey.Public[:])
	bundle := session.KeyBundle{
		IdentityKey:           bobIdentity.Public,
		SignedPrekey:          signedPrekey.Public,
		SignedPrekeySignature: badSig,
	}

	aliceIdentityDH, err := session.GenerateKey()
	require.NoError(t, err)
	aliceEphemeral, err := session.GenerateKey()
	require.NoError(t, err)

	_, _, err = session.EstablishInitial(aliceIdentityDH, aliceEphemeral, bundle)
	require.Error(t, err)
}

func TestEstablishInitialWithoutOneTimePrekey(t *testing.T) {
	bobIdentity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	signedPrekey, err := session.GenerateKey()
	require.NoError(t, err)

	sig := bobIdentity.Sign(signedPrekey.Public[:])
	bundle := session.KeyBundle{
		IdentityKey:           bobIdentity.Public,
		SignedPrekey:          signedPrekey.Public,
		SignedPrekeySignature: sig,
	}

	aliceIdentityDH, err := session.GenerateKey()
	require.NoError(t, err)
	aliceEphemeral, err := session.GenerateKey()
	require.NoError(t, err)

	aliceSecret, usedOneTime, err := session.EstablishInitial(aliceIdentityDH, aliceEphemeral, bundle)
	require.NoError(t, err)
	require.False(t, usedOneTime)

	bobSecret, err := session.RespondInitial(signedPrekey, nil, aliceIdentityDH.Public, aliceEphemeral.Public)
	require.NoError(t, err)
	require.Equal(t, aliceSecret, bobSecret)
}
