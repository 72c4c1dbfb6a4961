// Package client keeps track of the connections that completed the server
// handshake and knows how to deliver messages to them.
package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/battleships-server/game/id"
)

var (
	ErrInvalidRole  = errors.New("invalid client role")
	ErrNotConnected = errors.New("client not connected")
)

// Role is the type a client declared during the handshake
type Role string

const (
	Player    Role = "PLAYER"
	Spectator Role = "SPECTATOR"
	Admin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case Player, Spectator, Admin:
		return true
	}
	return false
}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Conn is the outbound side of a client connection
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Client is a connection that completed the handshake
type Client struct {
	ID   id.ID
	Role Role
	Name string

	conn Conn
}

// New creates a client bound to conn. Most callers use Registry.Add instead.
func New(clientID id.ID, name string, role Role, conn Conn) *Client {
	return &Client{ID: clientID, Role: role, Name: name, conn: conn}
}

func (c *Client) String() string {
	return fmt.Sprintf("%s(%d, %s)", c.Name, c.ID, c.Role)
}
