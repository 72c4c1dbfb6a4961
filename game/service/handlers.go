package service

import (
	"context"
	"fmt"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/message"
)

// payload narrows a decoded request to its concrete type
func payload[T any](req message.Message) (*T, error) {
	switch r := any(req).(type) {
	case *T:
		return r, nil
	case T:
		return &r, nil
	}
	return nil, fmt.Errorf("%w: unexpected payload %T", ErrInvalidArgument, req)
}

func requireRole(c *client.Client, roles ...client.Role) error {
	for _, r := range roles {
		if c.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: %s clients cannot do this", ErrNotAllowed, c.Role)
}

func (d *Dispatcher) handleLobby(_ context.Context, _ *client.Client, _ message.Message) (message.Message, error) {
	games := d.games.GetAllGames()
	resp := message.LobbyResponse{Games: make([]engine.Snapshot, len(games))}
	for i, g := range games {
		resp.Games[i] = g.Snapshot()
	}
	return resp, nil
}

func (d *Dispatcher) handleGameInit(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.GameInitRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Admin); err != nil {
		return nil, err
	}

	cfg, err := d.resolveConfiguration(r.Preset, r.Configuration)
	if err != nil {
		return nil, err
	}
	inst, err := d.games.CreateGame(cfg, r.Name, r.Tournament)
	if err != nil {
		return nil, err
	}
	return message.GameInitResponse{GameID: inst.ID()}, nil
}

func (d *Dispatcher) resolveConfiguration(preset string, cfg *engine.Configuration) (engine.Configuration, error) {
	if cfg != nil {
		return *cfg, nil
	}
	if d.presets == nil {
		return engine.Configuration{}, fmt.Errorf("%w: %q", ErrPresetNotFound, preset)
	}
	return d.presets.LoadPreset(preset)
}

// handleJoinPlayer refuses games that already started before asking the
// registry, and looks the client up again right before the join since it may
// have disconnected meanwhile.
func (d *Dispatcher) handleJoinPlayer(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.GameJoinPlayerRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Player); err != nil {
		return nil, err
	}

	inst, err := d.games.GetGameHandler(r.GameID)
	if err != nil {
		return nil, err
	}
	if state := inst.State(); !state.AcceptsPlayers() {
		return nil, fmt.Errorf("%w: game %d is %s", ErrNotAllowed, r.GameID, state)
	}

	current := d.clients.Lookup(c.ID)
	if current == nil {
		return nil, fmt.Errorf("%w: %d", ErrClientGone, c.ID)
	}
	if err := d.games.AddClientToGame(r.GameID, current, client.Player); err != nil {
		return nil, err
	}
	return message.GameJoinPlayerResponse{GameID: r.GameID}, nil
}

func (d *Dispatcher) handleJoinSpectator(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.GameJoinSpectatorRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Spectator, client.Admin); err != nil {
		return nil, err
	}

	if err := d.games.AddClientToGame(r.GameID, c, c.Role); err != nil {
		return nil, err
	}
	return message.GameJoinSpectatorResponse{GameID: r.GameID}, nil
}

func (d *Dispatcher) handleLeave(_ context.Context, c *client.Client, _ message.Message) (message.Message, error) {
	if err := d.games.RemoveClientFromGame(c.ID); err != nil {
		return nil, err
	}
	return message.GameLeaveResponse{}, nil
}

func (d *Dispatcher) handleStart(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.GameStartRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Admin); err != nil {
		return nil, err
	}

	launched, err := d.games.LaunchGame(r.GameID)
	if err != nil {
		return nil, err
	}
	return message.GameStartResponse{GameID: r.GameID, Launched: launched}, nil
}

func (d *Dispatcher) handlePause(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.PauseRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Admin); err != nil {
		return nil, err
	}
	if err := d.games.PauseGame(r.GameID); err != nil {
		return nil, err
	}
	return message.PauseResponse{GameID: r.GameID}, nil
}

func (d *Dispatcher) handleContinue(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.ContinueRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Admin); err != nil {
		return nil, err
	}
	if err := d.games.ContinueGame(r.GameID); err != nil {
		return nil, err
	}
	return message.ContinueResponse{GameID: r.GameID}, nil
}

func (d *Dispatcher) handleAbort(_ context.Context, c *client.Client, req message.Message) (message.Message, error) {
	r, err := payload[message.AbortRequest](req)
	if err != nil {
		return nil, err
	}
	if err := requireRole(c, client.Admin); err != nil {
		return nil, err
	}
	if err := d.games.AbortGame(r.GameID, r.KeepPoints); err != nil {
		return nil, err
	}
	return message.AbortResponse{GameID: r.GameID}, nil
}

func (d *Dispatcher) handlePoints(_ context.Context, c *client.Client, _ message.Message) (message.Message, error) {
	inst, err := d.games.GetGameHandlerForClientID(c.ID)
	if err != nil {
		return nil, err
	}
	return message.PointsResponse{Points: inst.Points()}, nil
}

func (d *Dispatcher) handleRemainingTime(_ context.Context, c *client.Client, _ message.Message) (message.Message, error) {
	inst, err := d.games.GetGameHandlerForClientID(c.ID)
	if err != nil {
		return nil, err
	}
	return message.RemainingTimeResponse{Time: inst.RemainingTime(d.now()).Milliseconds()}, nil
}
