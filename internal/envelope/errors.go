package envelope

import "errors"

var (
	// ErrShortBuffer is returned when decoding runs out of bytes before
	// every field of the wire format has been consumed.
	ErrShortBuffer = errors.New("envelope: buffer too short")
	// ErrUnsupportedVersion is returned when the wire version byte does
	// not match any version this build knows how to decode.
	ErrUnsupportedVersion = errors.New("envelope: unsupported wire version")
	// ErrSignatureInvalid is returned when the detached signature over a
	// decoded envelope does not verify against the claimed sender key.
	ErrSignatureInvalid = errors.New("envelope: signature invalid")
	// ErrUnknownKind is returned by ProtocolMessage.Validate when its Kind
	// string does not match any known variant.
	ErrUnknownKind = errors.New("envelope: unknown message kind")
	// ErrInvalidContactURI is returned by ParseContactURI for anything
	// that is not a well-formed securechat://contact URI.
	ErrInvalidContactURI = errors.New("envelope: invalid contact uri")
)
