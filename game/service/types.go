package service

import (
	"time"

	"github.com/wricardo/battleships-server/game/engine"
)

// GameInfo is the operator view of a game
type GameInfo struct {
	engine.Snapshot
	RemainingTime int64 `json:"remainingTime"` // ms left in the current round
}

// CreateGameParams are the inputs of AdminService.CreateGame. Exactly one of
// Preset and Configuration must be set.
type CreateGameParams struct {
	Name          string                `json:"name" validate:"required,max=64"`
	Tournament    bool                  `json:"tournament"`
	Preset        string                `json:"preset,omitempty" validate:"required_without=Configuration,excluded_with=Configuration"`
	Configuration *engine.Configuration `json:"configuration,omitempty" validate:"required_without=Preset"`
}

// PresetInfo describes a stored configuration
type PresetInfo struct {
	Filename       string `json:"filename"`
	PresetID       string `json:"preset_id"` // The identifier to use for game creation
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	MaxPlayerCount int    `json:"max_player_count"`
	Rounds         int    `json:"rounds"`
	Ships          int    `json:"ships"`
}

func newGameInfo(inst engine.Instance, now time.Time) *GameInfo {
	return &GameInfo{
		Snapshot:      inst.Snapshot(),
		RemainingTime: inst.RemainingTime(now).Milliseconds(),
	}
}
