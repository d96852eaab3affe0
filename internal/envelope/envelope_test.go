package envelope_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"securechat/internal/envelope"
	"securechat/internal/keyvault"
	"securechat/internal/ratchet"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	identity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	out := &ratchet.OutgoingMessage{
		Counter:    3,
		Ciphertext: []byte("ciphertext-bytes"),
	}
	msg := envelope.FromOutgoing(out, identity.Sign)

	encoded := msg.Encode()
	decoded, err := envelope.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, msg.Counter, decoded.Counter)
	require.Equal(t, msg.Ciphertext, decoded.Ciphertext)

	require.NoError(t, decoded.Verify(identity.Public))
}

func TestMessageVerifyRejectsTampering(t *testing.T) {
	identity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	out := &ratchet.OutgoingMessage{Counter: 1, Ciphertext: []byte("x")}
	msg := envelope.FromOutgoing(out, identity.Sign)
	msg.Counter = 2

	require.Error(t, msg.Verify(identity.Public))
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := envelope.Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, envelope.ErrShortBuffer)
}

func TestProtocolMessageValidate(t *testing.T) {
	encrypted := envelope.NewEncrypted(uuid.New(), []byte("wire-bytes"))
	require.NoError(t, encrypted.Validate())

	empty := &envelope.ProtocolMessage{Kind: envelope.KindEncrypted}
	require.Error(t, empty.Validate())

	unknown := &envelope.ProtocolMessage{Kind: "not-a-kind"}
	require.ErrorIs(t, unknown.Validate(), envelope.ErrUnknownKind)
}

func TestMessageContentPreview(t *testing.T) {
	text := &envelope.MessageContent{Kind: envelope.ContentText, Text: "hello there"}
	require.Equal(t, "hello there", text.Preview())

	file := &envelope.MessageContent{
		Kind: envelope.ContentFile,
		File: &envelope.AttachmentRef{Filename: "report.pdf"},
	}
	require.Contains(t, file.Preview(), "report.pdf")
}

func TestContactURIRoundTrip(t *testing.T) {
	identity, err := keyvault.GenerateIdentity()
	require.NoError(t, err)

	c := envelope.ContactURI{IdentityKey: identity.Public, Name: "Alice"}
	encoded := c.Encode()

	decoded, err := envelope.ParseContactURI(encoded)
	require.NoError(t, err)
	require.Equal(t, identity.Public, decoded.IdentityKey)
	require.Equal(t, "Alice", decoded.Name)
}

func TestParseContactURIRejectsWrongScheme(t *testing.T) {
	_, err := envelope.ParseContactURI("https://contact?key=abc")
	require.ErrorIs(t, err, envelope.ErrInvalidContactURI)
}

func TestParseContactURIRejectsBadKeyLength(t *testing.T) {
	_, err := envelope.ParseContactURI("securechat://contact?key=YWJj")
	require.ErrorIs(t, err, envelope.ErrInvalidContactURI)
}
