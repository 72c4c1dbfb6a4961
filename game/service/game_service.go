package service

import (
	"context"
	"time"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
)

// AdminService defines the operator operations exposed over REST and MCP
type AdminService interface {
	ListGames(ctx context.Context) ([]*GameInfo, error)
	GetGame(ctx context.Context, gameID id.ID) (*GameInfo, error)
	CreateGame(ctx context.Context, params CreateGameParams) (*GameInfo, error)

	LaunchGame(ctx context.Context, gameID id.ID) (*GameInfo, error)
	PauseGame(ctx context.Context, gameID id.ID) (*GameInfo, error)
	ContinueGame(ctx context.Context, gameID id.ID) (*GameInfo, error)
	AbortGame(ctx context.Context, gameID id.ID, keepPoints bool) (*GameInfo, error)

	ListPresets(ctx context.Context) ([]*PresetInfo, error)
}

// GameRegistry is the part of session.Manager the service layer uses
type GameRegistry interface {
	CreateGame(cfg engine.Configuration, name string, tournament bool) (engine.Instance, error)
	AddClientToGame(gameID id.ID, c *client.Client, role client.Role) error
	RemoveClientFromGame(clientID id.ID) error
	LaunchGame(gameID id.ID) (bool, error)
	PauseGame(gameID id.ID) error
	ContinueGame(gameID id.ID) error
	AbortGame(gameID id.ID, keepPoints bool) error
	GetGameHandler(gameID id.ID) (engine.Instance, error)
	GetGameHandlerForClientID(clientID id.ID) (engine.Instance, error)
	GetAllGames() []engine.Instance
}

// ClientDirectory is the part of client.Registry the service layer uses
type ClientDirectory interface {
	Add(name string, role client.Role, conn client.Conn) (*client.Client, error)
	Remove(clientID id.ID) *client.Client
	Lookup(clientID id.ID) *client.Client
	SendTo(msg any, c *client.Client) error
}

// PresetStore resolves named game configurations
type PresetStore interface {
	LoadPreset(name string) (engine.Configuration, error)
	ListPresets() ([]*PresetInfo, error)
}

// Clock returns the current time
type Clock func() time.Time
