package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/id"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestHandler(clock *fakeClock) *Handler {
	return NewHandler(1, "Fleet", createTestConfiguration(), false, WithClock(clock.Now))
}

func testClient(cid id.ID, name string, role client.Role) *client.Client {
	return client.New(cid, name, role, nil)
}

func TestHandler_New(t *testing.T) {
	h := newTestHandler(newFakeClock())

	if h.State() != Created {
		t.Errorf("Expected state CREATED, got %s", h.State())
	}
	if h.ID() != 1 || h.Name() != "Fleet" || h.Tournament() {
		t.Errorf("Unexpected identity: %d %q %v", h.ID(), h.Name(), h.Tournament())
	}
	if len(h.AllClients()) != 0 {
		t.Error("New game should have no clients")
	}
}

func TestHandler_AddClient(t *testing.T) {
	t.Run("first player opens the lobby", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		if err := h.AddClient(client.Player, testClient(10, "alice", client.Player)); err != nil {
			t.Fatalf("AddClient failed: %v", err)
		}
		if h.State() != LobbyOpen {
			t.Errorf("Expected LOBBY_OPEN, got %s", h.State())
		}
		if !h.HasClient(10) {
			t.Error("Player should be attached")
		}
	})

	t.Run("re-adding the same player is a no-op", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		c := testClient(10, "alice", client.Player)
		h.AddClient(client.Player, c)
		if err := h.AddClient(client.Player, c); err != nil {
			t.Errorf("Expected idempotent add, got %v", err)
		}
		if len(h.Players()) != 1 {
			t.Errorf("Expected 1 player, got %d", len(h.Players()))
		}
	})

	t.Run("lobby full", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		for i := 0; i < 4; i++ {
			if err := h.AddClient(client.Player, testClient(id.ID(10+i), string(rune('a'+i)), client.Player)); err != nil {
				t.Fatalf("AddClient %d failed: %v", i, err)
			}
		}
		err := h.AddClient(client.Player, testClient(99, "late", client.Player))
		if !errors.Is(err, ErrLobbyFull) {
			t.Errorf("Expected ErrLobbyFull, got %v", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		h.AddClient(client.Player, testClient(10, "alice", client.Player))
		err := h.AddClient(client.Player, testClient(11, "alice", client.Player))
		if !errors.Is(err, ErrNameTaken) {
			t.Errorf("Expected ErrNameTaken, got %v", err)
		}
	})

	t.Run("player rejected after launch, spectator accepted", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		h.AddClient(client.Player, testClient(10, "alice", client.Player))
		h.AddClient(client.Player, testClient(11, "bob", client.Player))
		if _, err := h.Apply(Event{Kind: Launch}); err != nil {
			t.Fatalf("Launch failed: %v", err)
		}

		if err := h.AddClient(client.Player, testClient(12, "carol", client.Player)); !errors.Is(err, ErrJoinClosed) {
			t.Errorf("Expected ErrJoinClosed for late player, got %v", err)
		}
		if err := h.AddClient(client.Spectator, testClient(13, "dave", client.Spectator)); err != nil {
			t.Errorf("Spectator should join a running game, got %v", err)
		}
		if err := h.AddClient(client.Admin, testClient(14, "root", client.Admin)); err != nil {
			t.Errorf("Admin should join a running game, got %v", err)
		}
	})

	t.Run("nobody joins an aborted game", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		h.Apply(Event{Kind: Abort})
		for _, role := range []client.Role{client.Player, client.Spectator, client.Admin} {
			if err := h.AddClient(role, testClient(20, "x", role)); !errors.Is(err, ErrJoinClosed) {
				t.Errorf("Expected ErrJoinClosed for %s, got %v", role, err)
			}
		}
	})

	t.Run("nobody joins a game finished by the clock", func(t *testing.T) {
		clock := newFakeClock()
		h := launchedHandler(t, clock, 1)
		h.Tick(clock.Advance(time.Second))
		if h.State() != Finished {
			t.Fatalf("Expected FINISHED, got %s", h.State())
		}
		for _, role := range []client.Role{client.Player, client.Spectator, client.Admin} {
			if err := h.AddClient(role, testClient(20, "x", role)); !errors.Is(err, ErrJoinClosed) {
				t.Errorf("Expected ErrJoinClosed for %s, got %v", role, err)
			}
		}
		if h.HasClient(20) {
			t.Error("Rejected client must not be attached")
		}
	})

	t.Run("nobody joins a game finished by event", func(t *testing.T) {
		h := launchedHandler(t, newFakeClock(), 0)
		if _, err := h.Apply(Event{Kind: Finish}); err != nil {
			t.Fatalf("Finish failed: %v", err)
		}
		for _, role := range []client.Role{client.Player, client.Spectator, client.Admin} {
			if err := h.AddClient(role, testClient(20, "x", role)); !errors.Is(err, ErrJoinClosed) {
				t.Errorf("Expected ErrJoinClosed for %s, got %v", role, err)
			}
		}
	})

	t.Run("nil client and unknown role", func(t *testing.T) {
		h := newTestHandler(newFakeClock())
		if err := h.AddClient(client.Player, nil); err == nil {
			t.Error("Expected error for nil client")
		}
		if err := h.AddClient(client.Role("ROOT"), testClient(30, "x", client.Player)); !errors.Is(err, client.ErrInvalidRole) {
			t.Errorf("Expected ErrInvalidRole, got %v", err)
		}
	})
}

func TestHandler_RemoveClient(t *testing.T) {
	h := newTestHandler(newFakeClock())
	h.AddClient(client.Player, testClient(10, "alice", client.Player))
	h.AddClient(client.Spectator, testClient(11, "bob", client.Spectator))

	h.RemoveClient(10)
	h.RemoveClient(11)
	h.RemoveClient(999)

	if h.HasClient(10) || h.HasClient(11) {
		t.Error("Removed clients should be detached")
	}
	if len(h.AllClients()) != 0 {
		t.Errorf("Expected no clients, got %d", len(h.AllClients()))
	}
}

func TestHandler_Launch(t *testing.T) {
	clock := newFakeClock()
	h := newTestHandler(clock)
	h.AddClient(client.Player, testClient(10, "alice", client.Player))

	if _, err := h.Apply(Event{Kind: Launch}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("Expected ErrNotEnoughPlayers, got %v", err)
	}
	if h.State() != LobbyOpen {
		t.Errorf("Failed launch must not change state, got %s", h.State())
	}

	h.AddClient(client.Player, testClient(11, "bob", client.Player))
	state, err := h.Apply(Event{Kind: Launch})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if state != InProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", state)
	}
	if got := h.RemainingTime(clock.Now()); got != time.Second {
		t.Errorf("Expected full round time remaining, got %v", got)
	}
	if pts := h.Points(); len(pts) != 2 || pts[10] != 0 || pts[11] != 0 {
		t.Errorf("Expected zeroed score board for both players, got %v", pts)
	}
}

func TestHandler_MinPlayersOption(t *testing.T) {
	h := NewHandler(1, "solo", createTestConfiguration(), false, WithMinPlayers(1))
	h.AddClient(client.Player, testClient(10, "alice", client.Player))
	if _, err := h.Apply(Event{Kind: Launch}); err != nil {
		t.Errorf("Expected launch with one player to succeed, got %v", err)
	}
}

func launchedHandler(t *testing.T, clock *fakeClock, rounds int) *Handler {
	t.Helper()
	cfg := createTestConfiguration()
	cfg.Rounds = rounds
	h := NewHandler(1, "Fleet", cfg, false, WithClock(clock.Now))
	h.AddClient(client.Player, testClient(10, "alice", client.Player))
	h.AddClient(client.Player, testClient(11, "bob", client.Player))
	if _, err := h.Apply(Event{Kind: Launch}); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	return h
}

func TestHandler_PauseResume(t *testing.T) {
	clock := newFakeClock()
	h := launchedHandler(t, clock, 0)

	clock.Advance(400 * time.Millisecond)
	if _, err := h.Apply(Event{Kind: Pause}); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if h.State() != Paused {
		t.Fatalf("Expected PAUSED, got %s", h.State())
	}

	// Time does not run while paused
	now := clock.Advance(time.Hour)
	if got := h.RemainingTime(now); got != 600*time.Millisecond {
		t.Errorf("Expected 600ms frozen while paused, got %v", got)
	}
	if err := h.Tick(now); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if h.Snapshot().Round != 1 {
		t.Error("Paused game must not advance rounds")
	}

	if _, err := h.Apply(Event{Kind: Resume}); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if got := h.RemainingTime(clock.Now()); got != 600*time.Millisecond {
		t.Errorf("Expected 600ms after resume, got %v", got)
	}

	if _, err := h.Apply(Event{Kind: Resume}); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Resuming a running game should be illegal, got %v", err)
	}
}

func TestHandler_TickRounds(t *testing.T) {
	clock := newFakeClock()
	h := launchedHandler(t, clock, 2)

	if err := h.Tick(clock.Advance(500 * time.Millisecond)); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if h.Snapshot().Round != 1 {
		t.Errorf("Round must not advance before the deadline")
	}

	h.Tick(clock.Advance(500 * time.Millisecond))
	if h.Snapshot().Round != 2 {
		t.Fatalf("Expected round 2, got %d", h.Snapshot().Round)
	}
	if got := h.RemainingTime(clock.Now()); got != 1500*time.Millisecond {
		t.Errorf("Expected round plus visualization time, got %v", got)
	}

	h.Tick(clock.Advance(1500 * time.Millisecond))
	if h.State() != Finished {
		t.Fatalf("Expected FINISHED after the last round, got %s", h.State())
	}
	if h.FinishedAt().IsZero() {
		t.Error("FinishedAt should be set")
	}
	if h.Snapshot().FinishedAt == nil {
		t.Error("Snapshot should carry FinishedAt")
	}
}

func TestHandler_TickFinishesEmptyGame(t *testing.T) {
	clock := newFakeClock()
	h := launchedHandler(t, clock, 0)
	h.RemoveClient(10)
	h.RemoveClient(11)

	h.Tick(clock.Now())
	if h.State() != Finished {
		t.Errorf("Expected FINISHED once every player left, got %s", h.State())
	}
}

func TestHandler_TickIgnoredOutsideRunningGame(t *testing.T) {
	clock := newFakeClock()
	h := newTestHandler(clock)
	if err := h.Tick(clock.Advance(time.Hour)); err != nil {
		t.Errorf("Tick on a created game should be a no-op, got %v", err)
	}
	if h.State() != Created {
		t.Errorf("Expected CREATED, got %s", h.State())
	}
}

func TestHandler_AbortPoints(t *testing.T) {
	for _, keep := range []bool{true, false} {
		t.Run(map[bool]string{true: "keep points", false: "reset points"}[keep], func(t *testing.T) {
			clock := newFakeClock()
			h := launchedHandler(t, clock, 0)
			if err := h.AwardHit(10, false); err != nil {
				t.Fatalf("AwardHit failed: %v", err)
			}
			h.AwardHit(10, true)

			if _, err := h.Apply(Event{Kind: Abort, KeepPoints: keep}); err != nil {
				t.Fatalf("Abort failed: %v", err)
			}
			if h.State() != Aborted {
				t.Errorf("Expected ABORTED, got %s", h.State())
			}

			want := 0
			if keep {
				want = 4
			}
			if got := h.Points()[10]; got != want {
				t.Errorf("Expected %d points, got %d", want, got)
			}
		})
	}
}

func TestHandler_AwardHit(t *testing.T) {
	clock := newFakeClock()
	h := newTestHandler(clock)
	if err := h.AwardHit(10, false); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Expected error before launch, got %v", err)
	}

	h = launchedHandler(t, clock, 0)
	if err := h.AwardHit(99, false); !errors.Is(err, ErrNotAPlayer) {
		t.Errorf("Expected ErrNotAPlayer, got %v", err)
	}
}

func TestHandler_Snapshot(t *testing.T) {
	h := newTestHandler(newFakeClock())
	h.AddClient(client.Player, testClient(12, "carol", client.Player))
	h.AddClient(client.Player, testClient(10, "alice", client.Player))
	h.AddClient(client.Spectator, testClient(11, "bob", client.Spectator))

	s := h.Snapshot()
	if s.State != LobbyOpen {
		t.Errorf("Expected LOBBY_OPEN, got %s", s.State)
	}
	if len(s.Players) != 2 || s.Players[0] != 10 || s.Players[1] != 12 {
		t.Errorf("Expected sorted players [10 12], got %v", s.Players)
	}
	if len(s.Spectators) != 1 || s.Spectators[0] != 11 {
		t.Errorf("Expected spectators [11], got %v", s.Spectators)
	}
	if s.FinishedAt != nil {
		t.Error("Running game should not have FinishedAt")
	}
}
