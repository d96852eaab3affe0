// Package transport defines the boundary between the chat layer and
// however opaque envelope bytes actually reach another peer. Every
// implementation moves bytes only — none of them parse or decrypt
// envelope.Message, so a relay can never read plaintext.
package transport

import "context"

// Inbound is one opaque payload received from a peer, tagged with an
// implementation-specific PeerID: wsgossip uses the peer ID given to
// Connect or ServeHTTP; redisgossip uses the name of the Redis channel the
// payload arrived on, which does not identify the sender.
type Inbound struct {
	PeerID  string
	Payload []byte
}

// Transport is the collaborator internal/chat depends on to move bytes
// between devices. Connect/Disconnect manage a specific peer's presence
// (meaningful for direct transports like wsgossip; a no-op for topic-based
// transports like redisgossip). Inbound delivers everything this
// transport receives, in arrival order, until Shutdown stops delivery;
// the channel itself is not closed.
type Transport interface {
	Connect(ctx context.Context, peerID, address string) error
	Disconnect(peerID string) error
	SendDirect(ctx context.Context, peerID string, payload []byte) error
	SendBroadcast(ctx context.Context, payload []byte) error
	Inbound() <-chan Inbound
	Shutdown() error
}
