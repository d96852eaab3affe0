package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/chat"
)

func TestGetOrCreateConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	acct, err := chat.CreateAccount(ctx, newMemStore(), []byte("password1234"), "Alice")
	require.NoError(t, err)
	other, err := chat.CreateAccount(ctx, newMemStore(), []byte("other-password"), "Bob")
	require.NoError(t, err)

	contact, err := acct.AddContact(ctx, other.IdentityPublicKey(), "Bob")
	require.NoError(t, err)

	first, err := acct.GetOrCreateConversation(ctx, contact.ID)
	require.NoError(t, err)
	second, err := acct.GetOrCreateConversation(ctx, contact.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := acct.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMarkConversationRead(t *testing.T) {
	ctx := context.Background()
	acct, err := chat.CreateAccount(ctx, newMemStore(), []byte("password1234"), "Alice")
	require.NoError(t, err)
	other, err := chat.CreateAccount(ctx, newMemStore(), []byte("other-password"), "Bob")
	require.NoError(t, err)

	contact, err := acct.AddContact(ctx, other.IdentityPublicKey(), "Bob")
	require.NoError(t, err)
	conv, err := acct.GetOrCreateConversation(ctx, contact.ID)
	require.NoError(t, err)

	err = acct.MarkConversationRead(ctx, conv.ID)
	require.NoError(t, err)

	all, err := acct.Conversations(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(0), all[0].UnreadCount)
}
