package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/chat"
)

func TestAddContactAndFingerprintRoundTrip(t *testing.T) {
	ctx := context.Background()
	aliceDB := newMemStore()
	alice, err := chat.CreateAccount(ctx, aliceDB, []byte("alice-password"), "Alice")
	require.NoError(t, err)

	bobDB := newMemStore()
	bob, err := chat.CreateAccount(ctx, bobDB, []byte("bob-password"), "Bob")
	require.NoError(t, err)

	uri := bob.ShareURI("Bob")
	parsed, err := chat.ParseShareURI(uri)
	require.NoError(t, err)
	require.Equal(t, "Bob", parsed.Name)

	contact, err := alice.AddContact(ctx, parsed.IdentityKey, parsed.Name)
	require.NoError(t, err)
	require.Equal(t, "Bob", contact.DisplayName)
	require.False(t, contact.Verified)

	require.Equal(t, bob.Fingerprint(), chat.ContactFingerprint(*contact))

	err = alice.SetContactVerified(ctx, contact.ID, true)
	require.NoError(t, err)

	reloaded, err := alice.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	require.True(t, reloaded.Verified)
}

func TestContactsListsAll(t *testing.T) {
	ctx := context.Background()
	db := newMemStore()
	acct, err := chat.CreateAccount(ctx, db, []byte("password1234"), "Alice")
	require.NoError(t, err)

	other, err := chat.CreateAccount(ctx, newMemStore(), []byte("other-password"), "Carol")
	require.NoError(t, err)
	_, err = acct.AddContact(ctx, other.IdentityPublicKey(), "Carol")
	require.NoError(t, err)

	contacts, err := acct.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
}
