package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealAttachmentRoundTrip(t *testing.T) {
	plaintext := []byte("an encrypted attachment's plaintext bytes")

	key, sealed, err := sealAttachment(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := openAttachment(key, sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealAttachmentUsesDistinctKeysAndNonces(t *testing.T) {
	plaintext := []byte("same plaintext twice")

	key1, sealed1, err := sealAttachment(plaintext)
	require.NoError(t, err)
	key2, sealed2, err := sealAttachment(plaintext)
	require.NoError(t, err)

	require.NotEqual(t, key1, key2)
	require.NotEqual(t, sealed1, sealed2)
}

func TestOpenAttachmentRejectsWrongKey(t *testing.T) {
	_, sealed, err := sealAttachment([]byte("secret"))
	require.NoError(t, err)

	var wrongKey [32]byte
	_, err = openAttachment(wrongKey, sealed)
	require.Error(t, err)
}

func TestOpenAttachmentRejectsTruncatedBlob(t *testing.T) {
	var key [32]byte
	_, err := openAttachment(key, []byte("short"))
	require.Error(t, err)
}
