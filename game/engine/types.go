package engine

import (
	"time"

	"github.com/wricardo/battleships-server/game/id"
)

const (
	// Validation constants
	DefaultMinFieldSize = 5
	DefaultMaxFieldSize = 100
	DefaultMinPlayers   = 2
	MinMaxPlayerCount   = 2
)

// Point is a cell on the field. Ship shapes use points relative to the ship origin.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Configuration holds the immutable rules of one game. Times are milliseconds.
type Configuration struct {
	MaxPlayerCount    int             `json:"maxPlayerCount" yaml:"max_player_count" validate:"gte=2"`
	Height            int             `json:"height" yaml:"height" validate:"gte=1"`
	Width             int             `json:"width" yaml:"width" validate:"gte=1"`
	ShotCount         int             `json:"shotCount" yaml:"shot_count" validate:"gte=1"`
	HitPoints         int             `json:"hitPoints" yaml:"hit_points" validate:"gte=0"`
	SunkPoints        int             `json:"sunkPoints" yaml:"sunk_points" validate:"gte=0"`
	RoundTime         int64           `json:"roundTime" yaml:"round_time" validate:"gt=0"`
	VisualizationTime int64           `json:"visualizationTime" yaml:"visualization_time" validate:"gte=0"`
	Rounds            int             `json:"rounds,omitempty" yaml:"rounds" validate:"gte=0"`
	Ships             map[int][]Point `json:"ships" yaml:"ships" validate:"required,min=1,dive,min=1"`
}

func (c Configuration) roundDuration() time.Duration {
	return time.Duration(c.RoundTime) * time.Millisecond
}

func (c Configuration) visualizationDuration() time.Duration {
	return time.Duration(c.VisualizationTime) * time.Millisecond
}

// Snapshot is a point-in-time, read-only view of an instance
type Snapshot struct {
	ID            id.ID         `json:"id"`
	Name          string        `json:"name"`
	Tournament    bool          `json:"tournament"`
	State         State         `json:"state"`
	Configuration Configuration `json:"configuration"`
	Players       []id.ID       `json:"players"`
	Spectators    []id.ID       `json:"spectators"`
	Admins        []id.ID       `json:"admins"`
	Round         int           `json:"round"`
	Points        map[id.ID]int `json:"points"`
	CreatedAt     time.Time     `json:"createdAt"`
	FinishedAt    *time.Time    `json:"finishedAt,omitempty"`
}
