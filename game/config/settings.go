package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/battleships-server/game/engine"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "BATTLESHIPS_"

var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the server configuration
type Settings struct {
	Server    ServerSettings  `yaml:"server" envPrefix:"SERVER_"`
	Game      GameSettings    `yaml:"game" envPrefix:"GAME_"`
	Tracing   TracingSettings `yaml:"tracing" envPrefix:"TRACING_"`
	PresetDir string          `yaml:"preset_dir" env:"PRESET_DIR"`
}

// ServerSettings holds HTTP and tunnel settings
type ServerSettings struct {
	Addr           string   `yaml:"addr" env:"ADDR" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	Ngrok          bool     `yaml:"ngrok" env:"NGROK"`
	NgrokDomain    string   `yaml:"ngrok_domain" env:"NGROK_DOMAIN"`
}

// GameSettings holds the registry and engine limits
type GameSettings struct {
	Bounds            engine.Bounds `yaml:"bounds"`
	MinPlayers        int           `yaml:"min_players" env:"MIN_PLAYERS" validate:"gte=2"`
	TickInterval      time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL" validate:"gt=0"`
	FinishedRetention time.Duration `yaml:"finished_retention" env:"FINISHED_RETENTION" validate:"gte=0"`
	EvictionInterval  time.Duration `yaml:"eviction_interval" env:"EVICTION_INTERVAL" validate:"gt=0"`
}

// TracingSettings selects the span exporter
type TracingSettings struct {
	Exporter    string `yaml:"exporter" env:"EXPORTER" validate:"oneof=stdout none"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
}

// Default returns the settings used when nothing is configured
func Default() *Settings {
	return &Settings{
		Server: ServerSettings{
			Addr: ":8080",
		},
		Game: GameSettings{
			Bounds:            engine.DefaultBounds(),
			MinPlayers:        engine.DefaultMinPlayers,
			TickInterval:      time.Millisecond,
			FinishedRetention: 10 * time.Minute,
			EvictionInterval:  time.Minute,
		},
		Tracing: TracingSettings{
			Exporter: "none",
		},
		PresetDir: "presets",
	}
}

// Load reads settings from a YAML file, then applies BATTLESHIPS_ prefixed
// environment overrides. An empty path skips the file.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parsing settings file: %w", err)
		}
	}

	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for consistency
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	b := s.Game.Bounds
	if b.MinFieldSize < 1 || b.MinFieldSize > b.MaxFieldSize {
		return fmt.Errorf("%w: field size bounds %d..%d", ErrInvalidSettings, b.MinFieldSize, b.MaxFieldSize)
	}
	return nil
}
