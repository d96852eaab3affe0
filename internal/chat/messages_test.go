package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/chat"
	"securechat/internal/envelope"
)

func TestSendReceiveMessageRoundTrip(t *testing.T) {
	ctx := context.Background()

	alice, err := chat.CreateAccount(ctx, newMemStore(), []byte("alice-password"), "Alice")
	require.NoError(t, err)
	bob, err := chat.CreateAccount(ctx, newMemStore(), []byte("bob-password"), "Bob")
	require.NoError(t, err)

	aliceContact, err := alice.AddContact(ctx, bob.IdentityPublicKey(), "Bob")
	require.NoError(t, err)
	bobContact, err := bob.AddContact(ctx, alice.IdentityPublicKey(), "Alice")
	require.NoError(t, err)

	require.NoError(t, bob.GenerateOneTimePrekeys(ctx, 1))
	bundle, err := bob.PublicKeyBundle(ctx)
	require.NoError(t, err)
	require.Len(t, bundle.OneTimePrekeys, 1)

	aliceConv, ephemeralPublic, err := alice.EstablishConversation(ctx, aliceContact.ID, bundle)
	require.NoError(t, err)

	usedOneTime := bundle.OneTimePrekeys[0]
	bobConv, err := bob.AcceptConversation(ctx, bobContact.ID, alice.IdentityDHPublicKey(), ephemeralPublic, &usedOneTime)
	require.NoError(t, err)

	content := envelope.MessageContent{Kind: envelope.ContentText, Text: "hello there"}
	wireBytes, sentLocal, err := alice.SendMessage(ctx, aliceConv.ID, content)
	require.NoError(t, err)
	require.True(t, sentLocal.Outgoing)

	received, err := bob.ReceiveMessage(ctx, wireBytes, alice.IdentityPublicKey())
	require.NoError(t, err)
	require.Equal(t, "hello there", received.Content.Text)
	require.False(t, received.Outgoing)
	require.True(t, received.Delivered)

	convAfter, err := bob.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convAfter, 1)
	require.Equal(t, uint32(1), convAfter[0].UnreadCount)
	require.Equal(t, "hello there", convAfter[0].LastMessagePreview)

	require.Equal(t, bobConv.ContactID, bobContact.ID)
}

func TestReceiveMessageRejectsWrongSenderIdentity(t *testing.T) {
	ctx := context.Background()

	alice, err := chat.CreateAccount(ctx, newMemStore(), []byte("alice-password"), "Alice")
	require.NoError(t, err)
	bob, err := chat.CreateAccount(ctx, newMemStore(), []byte("bob-password"), "Bob")
	require.NoError(t, err)

	aliceContact, err := alice.AddContact(ctx, bob.IdentityPublicKey(), "Bob")
	require.NoError(t, err)
	bobContact, err := bob.AddContact(ctx, alice.IdentityPublicKey(), "Alice")
	require.NoError(t, err)

	bundle, err := bob.PublicKeyBundle(ctx)
	require.NoError(t, err)

	aliceConv, ephemeralPublic, err := alice.EstablishConversation(ctx, aliceContact.ID, bundle)
	require.NoError(t, err)
	_, err = bob.AcceptConversation(ctx, bobContact.ID, alice.IdentityDHPublicKey(), ephemeralPublic, nil)
	require.NoError(t, err)

	content := envelope.MessageContent{Kind: envelope.ContentText, Text: "hello there"}
	wireBytes, _, err := alice.SendMessage(ctx, aliceConv.ID, content)
	require.NoError(t, err)

	carolIdentity, err := chat.CreateAccount(ctx, newMemStore(), []byte("carol-password"), "Carol")
	require.NoError(t, err)

	_, err = bob.ReceiveMessage(ctx, wireBytes, carolIdentity.IdentityPublicKey())
	require.Error(t, err)
}
