// Package wsgossip is a direct peer-to-peer websocket transport: each
// node runs an HTTP server peers dial into, and dials out to peers whose
// address it already knows. No central server brokers the connection;
// "gossip" here just means every node is both a client and a server.
package wsgossip

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"securechat/internal/transport"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 16 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Direct peer gossip has no browser origin to check against.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// peer is one established connection, identified by the remote node's
// fingerprint.
type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is a transport.Transport backed by direct websocket connections.
type Hub struct {
	log *log.Logger

	mu    sync.Mutex
	peers map[string]*peer

	inbound chan transport.Inbound
	done    chan struct{}
}

// New creates a Hub. Hub is not an http.Handler: an HTTP handler the
// caller registers must call ServeHTTP with the authenticated peer ID to
// accept inbound peer connections; Connect dials out to known peers.
func New(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.Writer(), "[wsgossip] ", log.Ldate|log.Ltime|log.LUTC)
	}
	return &Hub{
		log:     logger,
		peers:   make(map[string]*peer),
		inbound: make(chan transport.Inbound, 256),
		done:    make(chan struct{}),
	}
}

// ServeHTTP upgrades an incoming request to a websocket and registers the
// connecting peer under peerID (taken from the request, e.g. a header or
// query parameter the caller has already authenticated).
func (h *Hub) ServeHTTP(peerID string, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("wsgossip: upgrade: %w", err)
	}
	h.registerPeer(peerID, conn)
	return nil
}

func (h *Hub) Connect(ctx context.Context, peerID, address string) error {
	u := url.URL{Scheme: "ws", Host: address, Path: "/gossip"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("wsgossip: dial %s: %w", peerID, err)
	}
	h.registerPeer(peerID, conn)
	return nil
}

func (h *Hub) registerPeer(peerID string, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)

	p := &peer{id: peerID, conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	if old, ok := h.peers[peerID]; ok {
		old.conn.Close()
	}
	h.peers[peerID] = p
	h.mu.Unlock()

	go h.writePump(p)
	go h.readPump(p)
}

func (h *Hub) readPump(p *peer) {
	defer h.Disconnect(p.id)
	for {
		_, payload, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case h.inbound <- transport.Inbound{PeerID: p.id, Payload: payload}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writePump(p *peer) {
	for {
		select {
		case payload, ok := <-p.send:
			if !ok {
				return
			}
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Disconnect(peerID string) error {
	h.mu.Lock()
	p, ok := h.peers[peerID]
	if ok {
		delete(h.peers, peerID)
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}
	close(p.send)
	return p.conn.Close()
}

func (h *Hub) SendDirect(ctx context.Context, peerID string, payload []byte) error {
	h.mu.Lock()
	p, ok := h.peers[peerID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("wsgossip: no connection to peer %s", peerID)
	}
	select {
	case p.send <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) SendBroadcast(ctx context.Context, payload []byte) error {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		select {
		case p.send <- payload:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.log.Printf("dropping broadcast to slow peer %s", p.id)
		}
	}
	return nil
}

func (h *Hub) Inbound() <-chan transport.Inbound {
	return h.inbound
}

func (h *Hub) Shutdown() error {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, p := range h.peers {
		p.conn.Close()
		delete(h.peers, id)
	}
	return nil
}

var _ transport.Transport = (*Hub)(nil)
