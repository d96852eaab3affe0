// Package consuldiscovery finds other securechat peers through Consul's
// service catalog and feeds newly discovered addresses to a
// transport.Transport's Connect method. It never touches message bytes —
// it only tells a transport who else exists.
package consuldiscovery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"

	"securechat/internal/transport"
)

const serviceName = "securechat-peer"

// Discovery polls Consul's catalog for peers and connects a Transport to
// any it has not seen yet.
type Discovery struct {
	log       *log.Logger
	client    *api.Client
	transport transport.Transport

	mu     sync.Mutex
	known  map[string]bool
	selfID string
}

// New builds a Discovery against the Consul agent at addr.
func New(addr string, t transport.Transport, selfID string, logger *log.Logger) (*Discovery, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[consuldiscovery] ", log.Ldate|log.Ltime|log.LUTC)
	}
	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consuldiscovery: new client: %w", err)
	}
	return &Discovery{
		log:       logger,
		client:    client,
		transport: t,
		known:     make(map[string]bool),
		selfID:    selfID,
	}, nil
}

// Register advertises this node as a peer in the Consul catalog under
// selfID, reachable at host:port for wsgossip's server side.
func (d *Discovery) Register(host string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:      d.selfID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Tags:    []string{"securechat"},
		Check: &api.AgentServiceCheck{
			TTL:                            "30s",
			DeregisterCriticalServiceAfter: "5m",
		},
	}
	if err := d.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("consuldiscovery: register: %w", err)
	}
	return d.client.Agent().UpdateTTL("service:"+d.selfID, "", api.HealthPassing)
}

// Deregister removes this node's catalog entry, typically on shutdown.
func (d *Discovery) Deregister() error {
	return d.client.Agent().ServiceDeregister(d.selfID)
}

// Poll queries the catalog once and connects the transport to any peer
// not already known. address:port is the value passed to
// transport.Connect as the dial target.
func (d *Discovery) Poll(ctx context.Context) error {
	services, _, err := d.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return fmt.Errorf("consuldiscovery: query catalog: %w", err)
	}

	for _, entry := range services {
		peerID := entry.Service.ID
		if peerID == d.selfID {
			continue
		}

		d.mu.Lock()
		alreadyKnown := d.known[peerID]
		d.known[peerID] = true
		d.mu.Unlock()
		if alreadyKnown {
			continue
		}

		address := fmt.Sprintf("%s:%d", entry.Service.Address, entry.Service.Port)
		if err := d.transport.Connect(ctx, peerID, address); err != nil {
			d.log.Printf("connect to discovered peer %s at %s: %v", peerID, address, err)
			d.mu.Lock()
			delete(d.known, peerID)
			d.mu.Unlock()
		}
	}
	return nil
}

// Watch polls on interval until ctx is cancelled.
func (d *Discovery) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.Poll(ctx); err != nil {
				d.log.Printf("poll: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
