package engine

import (
	"errors"
	"time"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/id"
)

var (
	ErrLobbyFull        = errors.New("lobby is full")
	ErrJoinClosed       = errors.New("game does not accept this client anymore")
	ErrNameTaken        = errors.New("player name already taken in this game")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotAPlayer       = errors.New("client is not a player of this game")
)

// Instance is one game as seen by the registry. Implementations guard their
// own state; every method is safe for concurrent use.
type Instance interface {
	ID() id.ID
	Name() string
	Tournament() bool
	Configuration() Configuration
	State() State

	// AddClient attaches c with the given role or rejects it
	AddClient(role client.Role, c *client.Client) error
	// RemoveClient detaches a client; unknown IDs are ignored
	RemoveClient(clientID id.ID)
	HasClient(clientID id.ID) bool

	// Apply performs a lifecycle transition and returns the resulting state.
	// Illegal transitions return ErrIllegalTransition and leave the state as is.
	Apply(ev Event) (State, error)

	// Tick advances the game clock. It is a no-op unless the game is running.
	Tick(now time.Time) error

	AllClients() []*client.Client
	Players() []*client.Client
	Points() map[id.ID]int
	RemainingTime(now time.Time) time.Duration
	// FinishedAt is the time the game entered a terminal state, zero otherwise
	FinishedAt() time.Time
	Snapshot() Snapshot
}

var _ Instance = (*Handler)(nil)
