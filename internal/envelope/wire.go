// Package envelope defines the wire format messages travel in once a
// ratchet has sealed them, plus the protocol- and content-level tagged
// unions carried inside that wire format.
package envelope

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"securechat/internal/primitives"
	"securechat/internal/ratchet"
)

// wireVersion is the single byte identifying this wire layout. Bumping it
// is a breaking change for every peer on the network.
const wireVersion byte = 1

// Message is the signed, wire-ready form of one ratchet-sealed payload:
// everything a peer needs to verify who sent it and hand it to the
// correct conversation's ratchet before decrypting.
type Message struct {
	SenderDHPublic [32]byte
	Counter        uint32
	Nonce          [12]byte
	Ciphertext     []byte
	Signature      []byte
}

// FromOutgoing builds a Message from a freshly sealed ratchet message and
// signs it with the sender's long-term identity key. The signature covers
// every field except itself, so a recipient that only trusts the sender's
// identity key (not yet the ratchet state) can still authenticate the
// envelope before attempting to decrypt it.
func FromOutgoing(out *ratchet.OutgoingMessage, sign func([]byte) []byte) *Message {
	m := &Message{
		SenderDHPublic: out.DHPublic,
		Counter:        out.Counter,
		Nonce:          out.Nonce,
		Ciphertext:     out.Ciphertext,
	}
	m.Signature = sign(m.signedBytes())
	return m
}

// ToOutgoing strips the wire-level signature, returning the plain ratchet
// message for Receive.
func (m *Message) ToOutgoing() *ratchet.OutgoingMessage {
	return &ratchet.OutgoingMessage{
		DHPublic:   m.SenderDHPublic,
		Counter:    m.Counter,
		Nonce:      m.Nonce,
		Ciphertext: m.Ciphertext,
	}
}

// Verify checks the envelope's detached signature against senderIdentity.
func (m *Message) Verify(senderIdentity ed25519.PublicKey) error {
	if err := primitives.Verify(senderIdentity, m.signedBytes(), m.Signature); err != nil {
		return fmt.Errorf("%w", ErrSignatureInvalid)
	}
	return nil
}

func (m *Message) signedBytes() []byte {
	buf := make([]byte, 0, 1+32+4+12+4+len(m.Ciphertext))
	buf = append(buf, wireVersion)
	buf = append(buf, m.SenderDHPublic[:]...)
	buf = appendUint32(buf, m.Counter)
	buf = append(buf, m.Nonce[:]...)
	buf = appendUint32(buf, uint32(len(m.Ciphertext)))
	buf = append(buf, m.Ciphertext...)
	return buf
}

// Encode serializes m to its wire form: version, signed fields, then the
// detached signature.
func (m *Message) Encode() []byte {
	signed := m.signedBytes()
	out := make([]byte, 0, len(signed)+len(m.Signature))
	out = append(out, signed...)
	out = append(out, m.Signature...)
	return out
}

// Decode parses a wire-encoded Message. It does not verify the signature;
// call Verify separately once the sender's identity key is known.
func Decode(data []byte) (*Message, error) {
	if len(data) < 1 {
		return nil, ErrShortBuffer
	}
	if data[0] != wireVersion {
		return nil, ErrUnsupportedVersion
	}
	data = data[1:]

	if len(data) < 32+4+12+4 {
		return nil, ErrShortBuffer
	}
	m := &Message{}
	copy(m.SenderDHPublic[:], data[:32])
	data = data[32:]

	m.Counter = binary.BigEndian.Uint32(data[:4])
	data = data[4:]

	copy(m.Nonce[:], data[:12])
	data = data[12:]

	ctLen := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < ctLen {
		return nil, ErrShortBuffer
	}
	m.Ciphertext = append([]byte(nil), data[:ctLen]...)
	data = data[ctLen:]

	if len(data) != ed25519.SignatureSize {
		return nil, ErrShortBuffer
	}
	m.Signature = append([]byte(nil), data...)
	return m, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
