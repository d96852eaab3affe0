package ratchet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/primitives"
	"securechat/internal/ratchet"
)

// newPairedStates mimics the post-X3DH handoff: both sides already agree
// on sharedSecret, and bob's starting DH key pair is the one whose public
// half alice used to compute it (e.g. his signed prekey).
func newPairedStates(t *testing.T) (alice, bob *ratchet.State) {
	t.Helper()
	var sharedSecret [32]byte

	bobPriv, bobPub, err := primitives.GenerateDHKeyPair()
	require.NoError(t, err)

	alice, err = ratchet.Initialize(sharedSecret, bobPub)
	require.NoError(t, err)

	bob = ratchet.NewResponderState(sharedSecret, bobPriv, bobPub)

	return alice, bob
}

func TestSendReceiveInOrder(t *testing.T) {
	alice, bob := newPairedStates(t)

	msg, err := alice.Send([]byte("hello bob"), nil)
	require.NoError(t, err)

	plaintext, err := bob.Receive(msg, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("hello bob"), plaintext)
}

func TestSendReceiveMultipleInOrder(t *testing.T) {
	alice, bob := newPairedStates(t)

	for i := 0; i < 5; i++ {
		msg, err := alice.Send([]byte("message"), nil)
		require.NoError(t, err)
		plaintext, err := bob.Receive(msg, nil)
		require.NoError(t, err)
		require.Equal(t, []byte("message"), plaintext)
	}
}

func TestReceiveOutOfOrderUsesSkippedBuffer(t *testing.T) {
	alice, bob := newPairedStates(t)

	first, err := alice.Send([]byte("first"), nil)
	require.NoError(t, err)
	second, err := alice.Send([]byte("second"), nil)
	require.NoError(t, err)
	third, err := alice.Send([]byte("third"), nil)
	require.NoError(t, err)

	plaintext, err := bob.Receive(third, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("third"), plaintext)

	plaintext, err = bob.Receive(first, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), plaintext)

	plaintext, err = bob.Receive(second, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), plaintext)
}

func TestReceiveRejectsReplay(t *testing.T) {
	alice, bob := newPairedStates(t)

	msg, err := alice.Send([]byte("once"), nil)
	require.NoError(t, err)

	_, err = bob.Receive(msg, nil)
	require.NoError(t, err)

	_, err = bob.Receive(msg, nil)
	require.ErrorIs(t, err, ratchet.ErrReplayOrStale)
}

func TestDHRatchetStepOnReply(t *testing.T) {
	alice, bob := newPairedStates(t)

	msg, err := alice.Send([]byte("from alice"), nil)
	require.NoError(t, err)
	_, err = bob.Receive(msg, nil)
	require.NoError(t, err)

	reply, err := bob.Send([]byte("from bob"), nil)
	require.NoError(t, err)
	plaintext, err := alice.Receive(reply, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("from bob"), plaintext)

	second, err := alice.Send([]byte("from alice again"), nil)
	require.NoError(t, err)
	plaintext, err = bob.Receive(second, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("from alice again"), plaintext)
}

func TestTamperedCiphertextFailsToOpen(t *testing.T) {
	alice, bob := newPairedStates(t)

	msg, err := alice.Send([]byte("integrity check"), nil)
	require.NoError(t, err)
	msg.Ciphertext[0] ^= 0xFF

	_, err = bob.Receive(msg, nil)
	require.Error(t, err)
}

func TestTamperedCiphertextOnNewChainLeavesStateUnchanged(t *testing.T) {
	alice, bob := newPairedStates(t)

	// Get bob past its first real receive so its next Send carries a DH
	// public key it generated itself during that ratchet step, not the
	// prekey pair newPairedStates seeded it with.
	msg, err := alice.Send([]byte("hello bob"), nil)
	require.NoError(t, err)
	_, err = bob.Receive(msg, nil)
	require.NoError(t, err)

	reply, err := bob.Send([]byte("from bob"), nil)
	require.NoError(t, err)

	// reply.DHPublic is new to alice, so alice.Receive must run the DH
	// ratchet step before attempting to open. Tamper a copy so that step
	// runs but the open still fails.
	tampered := *reply
	tampered.Ciphertext = append([]byte(nil), reply.Ciphertext...)
	tampered.Ciphertext[0] ^= 0xFF

	before := alice.Export()
	_, err = alice.Receive(&tampered, nil)
	require.Error(t, err)
	require.Equal(t, before, alice.Export(), "failed open on a new DH chain must not mutate ratchet state")

	// The genuine reply must still decrypt: the failed attempt above must
	// not have consumed or corrupted the chain it would have ratcheted into.
	plaintext, err := alice.Receive(reply, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("from bob"), plaintext)
}

func TestSkippedBufferEvictsOldestBeyondPerChainCap(t *testing.T) {
	alice, bob := newPairedStates(t)

	var messages []*ratchet.OutgoingMessage
	for i := 0; i < 150; i++ {
		msg, err := alice.Send([]byte("x"), nil)
		require.NoError(t, err)
		messages = append(messages, msg)
	}

	last := messages[len(messages)-1]
	_, err := bob.Receive(last, nil)
	require.NoError(t, err)

	_, err = bob.Receive(messages[0], nil)
	require.Error(t, err)

	_, err = bob.Receive(messages[len(messages)-2], nil)
	require.NoError(t, err)
}
