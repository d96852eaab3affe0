package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/store"
	"securechat/internal/store/sqlitestore"
)

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "ct:alice", []byte("contact-blob")))

	value, err := s.Get(ctx, "ct:alice")
	require.NoError(t, err)
	require.Equal(t, []byte("contact-blob"), value)
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), "ct:nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutOverwritesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "pf:me", []byte("v1")))
	require.NoError(t, s.Put(ctx, "pf:me", []byte("v2")))

	value, err := s.Get(ctx, "pf:me")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)
}

func TestScanReturnsValuesByPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, store.MessageKey("conv1", "0001"), []byte("first")))
	require.NoError(t, s.Put(ctx, store.MessageKey("conv1", "0002"), []byte("second")))
	require.NoError(t, s.Put(ctx, store.MessageKey("conv2", "0001"), []byte("other-conversation")))

	values, err := s.Scan(ctx, store.PrefixMessage+"conv1/")
	require.NoError(t, err)
	require.Len(t, values, 2)
	require.Equal(t, []byte("first"), values[0])
	require.Equal(t, []byte("second"), values[1])
}

func TestDeleteRemovesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "dv:phone", []byte("device-blob")))
	require.NoError(t, s.Delete(ctx, "dv:phone"))

	_, err = s.Get(ctx, "dv:phone")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSealedBlobEncodeDecodeRoundTrip(t *testing.T) {
	var salt [16]byte
	var nonce [12]byte
	copy(salt[:], "0123456789abcdef")
	copy(nonce[:], "nonce-bytes!")

	blob := store.EncodeSealedBlob(salt, nonce, []byte("ciphertext"))
	gotSalt, gotNonce, gotCiphertext, err := store.DecodeSealedBlob(blob)
	require.NoError(t, err)
	require.Equal(t, salt, gotSalt)
	require.Equal(t, nonce, gotNonce)
	require.Equal(t, []byte("ciphertext"), gotCiphertext)
}
