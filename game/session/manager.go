package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/message"
)

var (
	ErrNoSuchGame      = errors.New("no such game")
	ErrNoGameForClient = errors.New("client is not in a game")
	ErrAlreadyInGame   = errors.New("client is already in a game")
	ErrClosed          = errors.New("manager is closed")
)

// DefaultTickInterval is the period of the lifecycle clock
const DefaultTickInterval = time.Millisecond

// Notifier delivers messages to clients. client.Registry implements it.
type Notifier interface {
	SendToMany(msg any, cs []*client.Client)
}

// Factory builds the instance for a freshly allocated game ID
type Factory func(gameID id.ID, name string, cfg engine.Configuration, tournament bool) engine.Instance

// Option customizes a Manager
type Option func(*Manager)

// WithBounds sets the field size limits applied by CreateGame
func WithBounds(b engine.Bounds) Option {
	return func(m *Manager) { m.bounds = b }
}

// WithMinPlayers sets how many players the default factory requires for launch
func WithMinPlayers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minPlayers = n
		}
	}
}

// WithTickInterval sets the period of the lifecycle clock
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithClock replaces time.Now for ticks and eviction
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithFactory replaces the engine.Handler factory
func WithFactory(f Factory) Option {
	return func(m *Manager) {
		if f != nil {
			m.factory = f
		}
	}
}

// entry is one registered game and the signal channel of its supervisor
type entry struct {
	inst engine.Instance
	tick chan struct{}
	stop chan struct{}
}

// Manager is the game registry. It maps games by ID, tracks which game each
// client belongs to and drives every game on a periodic clock.
type Manager struct {
	ids    *id.Allocator
	notify Notifier
	log    *zap.SugaredLogger

	bounds       engine.Bounds
	minPlayers   int
	tickInterval time.Duration
	now          func() time.Time
	factory      Factory

	games   [shardCount]*gameShard
	members [shardCount]*clientShard
	count   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	runMu  sync.RWMutex
	closed bool
}

// NewManager creates a registry and starts its clock. ids is shared with the
// client registry so game and client IDs never collide. Call Close to stop it.
func NewManager(ids *id.Allocator, notify Notifier, log *zap.SugaredLogger, opts ...Option) *Manager {
	m := &Manager{
		ids:          ids,
		notify:       notify,
		log:          log,
		bounds:       engine.DefaultBounds(),
		minPlayers:   engine.DefaultMinPlayers,
		tickInterval: DefaultTickInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		m.factory = func(gameID id.ID, name string, cfg engine.Configuration, tournament bool) engine.Instance {
			return engine.NewHandler(gameID, name, cfg, tournament,
				engine.WithMinPlayers(m.minPlayers), engine.WithClock(m.now))
		}
	}
	m.games, m.members = newShards()
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go m.run()
	return m
}

// Close stops the clock and every game supervisor. Registered games stay
// readable.
func (m *Manager) Close() {
	m.runMu.Lock()
	if m.closed {
		m.runMu.Unlock()
		return
	}
	m.closed = true
	m.runMu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// CreateGame validates cfg and registers a new game in state CREATED.
// Nothing is allocated when validation fails.
func (m *Manager) CreateGame(cfg engine.Configuration, name string, tournament bool) (engine.Instance, error) {
	if err := engine.ValidateConfiguration(cfg, m.bounds); err != nil {
		return nil, err
	}

	// excludes Close, not other creations
	m.runMu.RLock()
	defer m.runMu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	gameID := m.ids.Next()
	e := &entry{
		inst: m.factory(gameID, name, cfg, tournament),
		tick: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}

	gs := m.games[shardOf(gameID)]
	gs.mu.Lock()
	gs.games[gameID] = e
	gs.mu.Unlock()
	m.count.Add(1)

	m.wg.Add(1)
	go m.supervise(e)

	m.log.Infow("game created", "game", gameID, "name", name, "tournament", tournament)
	return e.inst, nil
}

// AddClientToGame attaches c to a game with the given role.
//
// A player that already belongs to a game is refused with ErrAlreadyInGame.
// If that old game has ended or is gone the stale membership is cleared
// first, so the next attempt succeeds. Spectators and admins leave their
// current game and continue with the join.
func (m *Manager) AddClientToGame(gameID id.ID, c *client.Client, role client.Role) error {
	if c == nil {
		return errors.New("nil client")
	}

	cs := m.members[shardOf(c.ID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if current, ok := cs.gameOf[c.ID]; ok {
		prev := m.lookup(current)
		if role == client.Player {
			if prev == nil || prev.inst.State().Terminal() {
				m.detach(cs, c.ID, prev)
				m.log.Debugw("cleared stale membership", "client", c.ID, "game", current)
			}
			return fmt.Errorf("%w: client %d is in game %d", ErrAlreadyInGame, c.ID, current)
		}
		m.detach(cs, c.ID, prev)
	}

	e := m.lookup(gameID)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	if err := e.inst.AddClient(role, c); err != nil {
		return fmt.Errorf("join game %d: %w", gameID, err)
	}
	cs.gameOf[c.ID] = gameID

	m.log.Debugw("client joined", "client", c.ID, "game", gameID, "role", role)
	return nil
}

// RemoveClientFromGame detaches a client from its game
func (m *Manager) RemoveClientFromGame(clientID id.ID) error {
	cs := m.members[shardOf(clientID)]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	gameID, ok := cs.gameOf[clientID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoGameForClient, clientID)
	}
	m.detach(cs, clientID, m.lookup(gameID))

	m.log.Debugw("client left", "client", clientID, "game", gameID)
	return nil
}

// detach removes the index entry and the instance side together.
// cs.mu must be held.
func (m *Manager) detach(cs *clientShard, clientID id.ID, e *entry) {
	delete(cs.gameOf, clientID)
	if e != nil {
		e.inst.RemoveClient(clientID)
	}
}

// LaunchGame starts a game. It reports false when the game does not have
// enough players yet.
func (m *Manager) LaunchGame(gameID id.ID) (bool, error) {
	e := m.lookup(gameID)
	if e == nil {
		return false, fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}

	if _, err := e.inst.Apply(engine.Event{Kind: engine.Launch}); err != nil {
		if errors.Is(err, engine.ErrNotEnoughPlayers) {
			m.log.Debugw("launch refused", "game", gameID, "err", err)
			return false, nil
		}
		return false, fmt.Errorf("launch game %d: %w", gameID, err)
	}

	m.log.Infow("game launched", "game", gameID)
	return true, nil
}

// PauseGame pauses a running game and notifies its clients
func (m *Manager) PauseGame(gameID id.ID) error {
	e := m.lookup(gameID)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	if _, err := e.inst.Apply(engine.Event{Kind: engine.Pause}); err != nil {
		return fmt.Errorf("pause game %d: %w", gameID, err)
	}

	m.notify.SendToMany(message.PauseNotification{}, e.inst.AllClients())
	m.log.Infow("game paused", "game", gameID)
	return nil
}

// ContinueGame resumes a paused game and notifies its clients
func (m *Manager) ContinueGame(gameID id.ID) error {
	e := m.lookup(gameID)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	if _, err := e.inst.Apply(engine.Event{Kind: engine.Resume}); err != nil {
		return fmt.Errorf("continue game %d: %w", gameID, err)
	}

	m.notify.SendToMany(message.ContinueNotification{}, e.inst.AllClients())
	m.log.Infow("game continued", "game", gameID)
	return nil
}

// AbortGame ends a game early. Points are reset unless keepPoints is set.
func (m *Manager) AbortGame(gameID id.ID, keepPoints bool) error {
	e := m.lookup(gameID)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	state, err := e.inst.Apply(engine.Event{Kind: engine.Abort, KeepPoints: keepPoints})
	if err != nil {
		return fmt.Errorf("abort game %d: %w", gameID, err)
	}

	m.notifyFinish(e, state)
	m.log.Infow("game aborted", "game", gameID, "keep_points", keepPoints)
	return nil
}

func (m *Manager) notifyFinish(e *entry, state engine.State) {
	m.notify.SendToMany(message.FinishNotification{
		GameID: e.inst.ID(),
		State:  state,
		Points: e.inst.Points(),
	}, e.inst.AllClients())
}

// GetGameHandler returns the instance registered under gameID
func (m *Manager) GetGameHandler(gameID id.ID) (engine.Instance, error) {
	e := m.lookup(gameID)
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	return e.inst, nil
}

// GetGameHandlerForClientID returns the instance the client belongs to
func (m *Manager) GetGameHandlerForClientID(clientID id.ID) (engine.Instance, error) {
	cs := m.members[shardOf(clientID)]
	cs.mu.Lock()
	gameID, ok := cs.gameOf[clientID]
	cs.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoGameForClient, clientID)
	}

	e := m.lookup(gameID)
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoGameForClient, clientID)
	}
	return e.inst, nil
}

// GetAllGames returns every registered instance ordered by ID
func (m *Manager) GetAllGames() []engine.Instance {
	entries := m.entries()
	out := make([]engine.Instance, len(entries))
	for i, e := range entries {
		out[i] = e.inst
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Count returns the number of registered games
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// EvictFinished unregisters games that ended more than retention ago.
// Memberships pointing at them are cleared first. It returns the number of
// games this call evicted and is safe to call concurrently.
func (m *Manager) EvictFinished(retention time.Duration) int {
	cutoff := m.now().Add(-retention)

	expired := make(map[id.ID]*entry)
	for _, e := range m.entries() {
		if !e.inst.State().Terminal() {
			continue
		}
		if at := e.inst.FinishedAt(); !at.IsZero() && at.Before(cutoff) {
			expired[e.inst.ID()] = e
		}
	}
	if len(expired) == 0 {
		return 0
	}

	for _, cs := range m.members {
		cs.mu.Lock()
		for clientID, gameID := range cs.gameOf {
			if _, ok := expired[gameID]; ok {
				delete(cs.gameOf, clientID)
			}
		}
		cs.mu.Unlock()
	}

	evicted := 0
	for gameID, e := range expired {
		gs := m.games[shardOf(gameID)]
		gs.mu.Lock()
		current, ok := gs.games[gameID]
		ok = ok && current == e
		if ok {
			delete(gs.games, gameID)
		}
		gs.mu.Unlock()
		if !ok {
			// evicted by a concurrent call
			continue
		}
		m.count.Add(-1)
		close(e.stop)
		evicted++
		m.log.Debugw("game evicted", "game", gameID)
	}
	return evicted
}

func (m *Manager) lookup(gameID id.ID) *entry {
	gs := m.games[shardOf(gameID)]
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.games[gameID]
}

// entries snapshots the registered games without touching any instance
func (m *Manager) entries() []*entry {
	out := make([]*entry, 0, m.Count())
	for _, gs := range m.games {
		gs.mu.RLock()
		for _, e := range gs.games {
			out = append(out, e)
		}
		gs.mu.RUnlock()
	}
	return out
}
