package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/chat"
	"securechat/internal/keyvault"
)

func TestCreateAndUnlockAccount(t *testing.T) {
	ctx := context.Background()
	db := newMemStore()

	acct, err := chat.CreateAccount(ctx, db, []byte("correct horse battery staple"), "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, acct.IdentityPublicKey())

	reopened, err := chat.UnlockAccount(ctx, db, []byte("correct horse battery staple"))
	require.NoError(t, err)
	require.Equal(t, acct.IdentityPublicKey(), reopened.IdentityPublicKey())
	require.Equal(t, acct.DeviceID(), reopened.DeviceID())
}

func TestUnlockAccountRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	db := newMemStore()

	_, err := chat.CreateAccount(ctx, db, []byte("correct horse battery staple"), "Alice")
	require.NoError(t, err)

	_, err = chat.UnlockAccount(ctx, db, []byte("wrong password"))
	require.ErrorIs(t, err, keyvault.ErrWrongPassword)
}

func TestProfileUpdate(t *testing.T) {
	ctx := context.Background()
	db := newMemStore()
	acct, err := chat.CreateAccount(ctx, db, []byte("password1234"), "Alice")
	require.NoError(t, err)

	p, err := acct.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", p.DisplayName)

	updated, err := acct.UpdateProfile(ctx, "", "back in five")
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.DisplayName)
	require.Equal(t, "back in five", updated.StatusMessage)
}
