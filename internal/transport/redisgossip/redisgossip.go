// Package redisgossip relays opaque envelope bytes through Redis pub/sub,
// for peers that cannot reach each other directly (NAT, firewalled
// mobile networks). Every peer subscribes to its own channel plus one
// shared broadcast channel.
package redisgossip

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"securechat/internal/transport"
)

const broadcastChannel = "securechat:broadcast"

func peerChannel(peerID string) string {
	return "securechat:peer:" + peerID
}

// Relay is a transport.Transport backed by a Redis pub/sub connection.
type Relay struct {
	log *log.Logger

	client *redis.Client
	selfID string

	sub     *redis.PubSub
	inbound chan transport.Inbound
	cancel  context.CancelFunc
}

// New subscribes selfID's peer channel and the shared broadcast channel,
// and starts forwarding received messages onto Inbound.
func New(addr, selfID string, logger *log.Logger) (*Relay, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[redisgossip] ", log.Ldate|log.Ltime|log.LUTC)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithCancel(context.Background())
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("redisgossip: ping: %w", err)
	}

	sub := client.Subscribe(ctx, peerChannel(selfID), broadcastChannel)

	r := &Relay{
		log:     logger,
		client:  client,
		selfID:  selfID,
		sub:     sub,
		inbound: make(chan transport.Inbound, 256),
		cancel:  cancel,
	}
	go r.pump(ctx)
	return r, nil
}

func (r *Relay) pump(ctx context.Context) {
	ch := r.sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.inbound <- transport.Inbound{
				PeerID:  msg.Channel,
				Payload: []byte(msg.Payload),
			}
		case <-ctx.Done():
			return
		}
	}
}

// Connect is a no-op for a topic-based relay: there is no per-peer
// session to establish, only a channel name to publish to.
func (r *Relay) Connect(ctx context.Context, peerID, address string) error {
	return nil
}

func (r *Relay) Disconnect(peerID string) error {
	return nil
}

func (r *Relay) SendDirect(ctx context.Context, peerID string, payload []byte) error {
	if err := r.client.Publish(ctx, peerChannel(peerID), payload).Err(); err != nil {
		return fmt.Errorf("redisgossip: publish to %s: %w", peerID, err)
	}
	return nil
}

func (r *Relay) SendBroadcast(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, broadcastChannel, payload).Err(); err != nil {
		return fmt.Errorf("redisgossip: broadcast: %w", err)
	}
	return nil
}

func (r *Relay) Inbound() <-chan transport.Inbound {
	return r.inbound
}

func (r *Relay) Shutdown() error {
	r.cancel()
	r.sub.Close()
	return r.client.Close()
}

var _ transport.Transport = (*Relay)(nil)
