package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/id"
)

// Handler is the default Instance. It owns the lobby, the round clock and the
// score board of one game. Shot resolution plugs in through AwardHit.
type Handler struct {
	mu sync.Mutex

	id         id.ID
	name       string
	tournament bool
	cfg        Configuration
	minPlayers int
	now        func() time.Time

	state      State
	players    map[id.ID]*client.Client
	spectators map[id.ID]*client.Client
	admins     map[id.ID]*client.Client
	points     map[id.ID]int

	round     int
	deadline  time.Time
	remaining time.Duration // round time left while paused

	createdAt  time.Time
	finishedAt time.Time
}

// Option customizes a Handler
type Option func(*Handler)

// WithMinPlayers sets how many players a launch requires
func WithMinPlayers(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.minPlayers = n
		}
	}
}

// WithClock replaces time.Now for lifecycle timestamps
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a game in state Created. cfg must already be validated.
func NewHandler(gameID id.ID, name string, cfg Configuration, tournament bool, opts ...Option) *Handler {
	h := &Handler{
		id:         gameID,
		name:       name,
		tournament: tournament,
		cfg:        cfg,
		minPlayers: DefaultMinPlayers,
		now:        time.Now,
		state:      Created,
		players:    make(map[id.ID]*client.Client),
		spectators: make(map[id.ID]*client.Client),
		admins:     make(map[id.ID]*client.Client),
		points:     make(map[id.ID]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.createdAt = h.now()
	return h
}

func (h *Handler) ID() id.ID                    { return h.id }
func (h *Handler) Name() string                 { return h.name }
func (h *Handler) Tournament() bool             { return h.tournament }
func (h *Handler) Configuration() Configuration { return h.cfg }

// State returns the current lifecycle state
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AddClient attaches c. Players are only accepted before launch and while the
// lobby has room; spectators and admins are accepted until the game ends.
func (h *Handler) AddClient(role client.Role, c *client.Client) error {
	if c == nil {
		return errors.New("nil client")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Terminal() {
		return fmt.Errorf("%w: game %d is %s", ErrJoinClosed, h.id, h.state)
	}

	switch role {
	case client.Player:
		if !h.state.AcceptsPlayers() {
			return fmt.Errorf("%w: game %d is %s", ErrJoinClosed, h.id, h.state)
		}
		if _, ok := h.players[c.ID]; ok {
			return nil
		}
		if len(h.players) >= h.cfg.MaxPlayerCount {
			return fmt.Errorf("%w: %d/%d players", ErrLobbyFull, len(h.players), h.cfg.MaxPlayerCount)
		}
		for _, p := range h.players {
			if p.Name == c.Name {
				return fmt.Errorf("%w: %q", ErrNameTaken, c.Name)
			}
		}
		h.players[c.ID] = c
		if h.state == Created {
			h.state = LobbyOpen
		}
	case client.Spectator:
		h.spectators[c.ID] = c
	case client.Admin:
		h.admins[c.ID] = c
	default:
		return fmt.Errorf("%w: %q", client.ErrInvalidRole, role)
	}
	return nil
}

// RemoveClient detaches a client from every role set. Points of a started
// game are kept so the final score board stays complete.
func (h *Handler) RemoveClient(clientID id.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.players, clientID)
	delete(h.spectators, clientID)
	delete(h.admins, clientID)
	if h.state.AcceptsPlayers() {
		delete(h.points, clientID)
	}
}

// HasClient reports whether clientID is attached in any role
func (h *Handler) HasClient(clientID id.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, p := h.players[clientID]
	_, s := h.spectators[clientID]
	_, a := h.admins[clientID]
	return p || s || a
}

// Apply performs a lifecycle transition
func (h *Handler) Apply(ev Event) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := Transition(h.state, ev.Kind)
	if err != nil {
		return h.state, err
	}

	now := h.now()
	switch ev.Kind {
	case Launch:
		if len(h.players) < h.minPlayers {
			return h.state, fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(h.players), h.minPlayers)
		}
		for pid := range h.players {
			h.points[pid] = 0
		}
		h.round = 1
		h.deadline = now.Add(h.cfg.roundDuration())
	case Pause:
		h.remaining = max(h.deadline.Sub(now), 0)
	case Resume:
		h.deadline = now.Add(h.remaining)
		h.remaining = 0
	case Abort:
		if !ev.KeepPoints {
			for pid := range h.points {
				h.points[pid] = 0
			}
		}
		h.finishedAt = now
	case Finish:
		h.finishedAt = now
	}

	h.state = next
	return next, nil
}

// Tick closes the current round once its deadline passed. The game finishes
// after the configured number of rounds, or when every player left.
func (h *Handler) Tick(now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != InProgress {
		return nil
	}

	if len(h.players) == 0 {
		h.state = Finished
		h.finishedAt = now
		return nil
	}

	if now.Before(h.deadline) {
		return nil
	}

	if h.cfg.Rounds > 0 && h.round >= h.cfg.Rounds {
		h.state = Finished
		h.finishedAt = now
		return nil
	}

	h.round++
	h.deadline = now.Add(h.cfg.visualizationDuration() + h.cfg.roundDuration())
	return nil
}

// AwardHit credits a hit, or a sunk ship, to a player of a running game
func (h *Handler) AwardHit(shooter id.ID, sunk bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != InProgress {
		return fmt.Errorf("%w: game %d is %s", ErrIllegalTransition, h.id, h.state)
	}
	if _, ok := h.players[shooter]; !ok {
		return fmt.Errorf("%w: %d", ErrNotAPlayer, shooter)
	}

	if sunk {
		h.points[shooter] += h.cfg.SunkPoints
	} else {
		h.points[shooter] += h.cfg.HitPoints
	}
	return nil
}

// AllClients returns every attached client regardless of role
func (h *Handler) AllClients() []*client.Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*client.Client, 0, len(h.players)+len(h.spectators)+len(h.admins))
	for _, set := range []map[id.ID]*client.Client{h.players, h.spectators, h.admins} {
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}

// Players returns the attached players
func (h *Handler) Players() []*client.Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*client.Client, 0, len(h.players))
	for _, c := range h.players {
		out = append(out, c)
	}
	return out
}

// Points returns a copy of the score board
func (h *Handler) Points() map[id.ID]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyPoints(h.points)
}

// RemainingTime returns the time left in the current round
func (h *Handler) RemainingTime(now time.Time) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case InProgress:
		return max(h.deadline.Sub(now), 0)
	case Paused:
		return h.remaining
	}
	return 0
}

func (h *Handler) FinishedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finishedAt
}

// Snapshot returns a consistent copy of the game's public state
func (h *Handler) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Snapshot{
		ID:            h.id,
		Name:          h.name,
		Tournament:    h.tournament,
		State:         h.state,
		Configuration: h.cfg,
		Players:       sortedIDs(h.players),
		Spectators:    sortedIDs(h.spectators),
		Admins:        sortedIDs(h.admins),
		Round:         h.round,
		Points:        copyPoints(h.points),
		CreatedAt:     h.createdAt,
	}
	if !h.finishedAt.IsZero() {
		t := h.finishedAt
		s.FinishedAt = &t
	}
	return s
}

func sortedIDs(set map[id.ID]*client.Client) []id.ID {
	ids := make([]id.ID, 0, len(set))
	for cid := range set {
		ids = append(ids, cid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyPoints(points map[id.ID]int) map[id.ID]int {
	out := make(map[id.ID]int, len(points))
	for k, v := range points {
		out[k] = v
	}
	return out
}
