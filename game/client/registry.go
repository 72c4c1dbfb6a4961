package client

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/id"
)

// Encoder turns an outbound message into a wire frame
type Encoder func(msg any) ([]byte, error)

// Registry maps client IDs to connected clients
type Registry struct {
	mu      sync.RWMutex
	clients map[id.ID]*Client

	ids    *id.Allocator
	encode Encoder
	log    *zap.SugaredLogger
}

// NewRegistry creates a client registry. ids is shared with the game registry.
func NewRegistry(ids *id.Allocator, encode Encoder, log *zap.SugaredLogger) *Registry {
	return &Registry{
		clients: make(map[id.ID]*Client),
		ids:     ids,
		encode:  encode,
		log:     log,
	}
}

// Add registers a new client on conn and assigns it an ID
func (r *Registry) Add(name string, role Role, conn Conn) (*Client, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	c := New(r.ids.Next(), name, role, conn)

	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()

	r.log.Debugw("client registered", "client", c.ID, "role", role, "name", name)
	return c, nil
}

// Remove unregisters a client and returns it, or nil if it was unknown
func (r *Registry) Remove(clientID id.ID) *Client {
	r.mu.Lock()
	c, ok := r.clients[clientID]
	delete(r.clients, clientID)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.log.Debugw("client unregistered", "client", clientID)
	return c
}

// Lookup returns the client with the given ID or nil
func (r *Registry) Lookup(clientID id.ID) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[clientID]
}

// Role returns the role of a connected client
func (r *Registry) Role(clientID id.ID) (Role, bool) {
	c := r.Lookup(clientID)
	if c == nil {
		return "", false
	}
	return c.Role, true
}

// Count returns the number of connected clients
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SendTo delivers msg to one client
func (r *Registry) SendTo(msg any, c *Client) error {
	if c == nil || c.conn == nil {
		return ErrNotConnected
	}

	data, err := r.encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := c.conn.Send(data); err != nil {
		return fmt.Errorf("send to client %d: %w", c.ID, err)
	}
	return nil
}

// SendToMany delivers msg to every client in cs. The message is encoded once.
// Delivery failures are logged and do not stop the remaining sends.
func (r *Registry) SendToMany(msg any, cs []*Client) {
	if len(cs) == 0 {
		return
	}

	data, err := r.encode(msg)
	if err != nil {
		r.log.Errorw("failed to encode broadcast", "err", err)
		return
	}

	for _, c := range cs {
		if c == nil || c.conn == nil {
			continue
		}
		if err := c.conn.Send(data); err != nil {
			r.log.Warnw("broadcast delivery failed", "client", c.ID, "err", err)
		}
	}
}
