package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/tracing"
)

// adminServiceImpl implements the AdminService interface
type adminServiceImpl struct {
	games    GameRegistry
	presets  PresetStore
	validate *validator.Validate
	now      Clock
	log      *zap.SugaredLogger
}

// NewAdminService creates the operator service. presets may be nil.
func NewAdminService(games GameRegistry, presets PresetStore, log *zap.SugaredLogger) AdminService {
	return &adminServiceImpl{
		games:    games,
		presets:  presets,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

// ListGames returns every registered game
func (s *adminServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.ListGames")
	defer span.End()

	now := s.now()
	games := s.games.GetAllGames()
	result := make([]*GameInfo, 0, len(games))
	for _, g := range games {
		result = append(result, newGameInfo(g, now))
	}
	return result, nil
}

// GetGame returns one game
func (s *adminServiceImpl) GetGame(ctx context.Context, gameID id.ID) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.GetGame")
	defer span.End()
	span.SetAttributes(attribute.Int64("game.id", int64(gameID)))

	inst, err := s.games.GetGameHandler(gameID)
	if err != nil {
		return nil, err
	}
	return newGameInfo(inst, s.now()), nil
}

// CreateGame registers a game from a preset or an explicit configuration
func (s *adminServiceImpl) CreateGame(ctx context.Context, params CreateGameParams) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.CreateGame")
	defer span.End()

	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var cfg engine.Configuration
	switch {
	case params.Configuration != nil:
		cfg = *params.Configuration
	case s.presets == nil:
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, params.Preset)
	default:
		var err error
		if cfg, err = s.presets.LoadPreset(params.Preset); err != nil {
			return nil, err
		}
	}

	inst, err := s.games.CreateGame(cfg, params.Name, params.Tournament)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	span.SetAttributes(attribute.Int64("game.id", int64(inst.ID())))
	return newGameInfo(inst, s.now()), nil
}

// LaunchGame starts a game. A game without enough players is reported as
// engine.ErrNotEnoughPlayers.
func (s *adminServiceImpl) LaunchGame(ctx context.Context, gameID id.ID) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.LaunchGame")
	defer span.End()
	span.SetAttributes(attribute.Int64("game.id", int64(gameID)))

	launched, err := s.games.LaunchGame(gameID)
	if err != nil {
		return nil, err
	}
	if !launched {
		return nil, fmt.Errorf("launch game %d: %w", gameID, engine.ErrNotEnoughPlayers)
	}
	return s.GetGame(ctx, gameID)
}

// PauseGame pauses a running game
func (s *adminServiceImpl) PauseGame(ctx context.Context, gameID id.ID) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.PauseGame")
	defer span.End()

	if err := s.games.PauseGame(gameID); err != nil {
		return nil, err
	}
	return s.GetGame(ctx, gameID)
}

// ContinueGame resumes a paused game
func (s *adminServiceImpl) ContinueGame(ctx context.Context, gameID id.ID) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.ContinueGame")
	defer span.End()

	if err := s.games.ContinueGame(gameID); err != nil {
		return nil, err
	}
	return s.GetGame(ctx, gameID)
}

// AbortGame ends a game early
func (s *adminServiceImpl) AbortGame(ctx context.Context, gameID id.ID, keepPoints bool) (*GameInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.AbortGame")
	defer span.End()

	if err := s.games.AbortGame(gameID, keepPoints); err != nil {
		return nil, err
	}
	return s.GetGame(ctx, gameID)
}

// ListPresets returns the stored configurations
func (s *adminServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	_, span := tracing.StartSpan(ctx, "admin.ListPresets")
	defer span.End()

	if s.presets == nil {
		return []*PresetInfo{}, nil
	}
	return s.presets.ListPresets()
}
