package engine

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidGameSize      = errors.New("invalid game size")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

var validate = validator.New()

// Bounds are the server-side limits a configuration's field must respect
type Bounds struct {
	MinFieldSize int `yaml:"min_field_size" env:"MIN_FIELD_SIZE"`
	MaxFieldSize int `yaml:"max_field_size" env:"MAX_FIELD_SIZE"`
}

// DefaultBounds returns the bounds used when none are configured
func DefaultBounds() Bounds {
	return Bounds{MinFieldSize: DefaultMinFieldSize, MaxFieldSize: DefaultMaxFieldSize}
}

// ValidateConfiguration checks cfg for playability. Field size problems are
// reported as ErrInvalidGameSize, everything else as ErrInvalidConfiguration.
func ValidateConfiguration(cfg Configuration, b Bounds) error {
	if cfg.Width < b.MinFieldSize || cfg.Width > b.MaxFieldSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d",
			ErrInvalidGameSize, b.MinFieldSize, b.MaxFieldSize, cfg.Width)
	}
	if cfg.Height < b.MinFieldSize || cfg.Height > b.MaxFieldSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d",
			ErrInvalidGameSize, b.MinFieldSize, b.MaxFieldSize, cfg.Height)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	occupied := 0
	for shipID, shape := range cfg.Ships {
		w, h := extent(shape)
		if w > cfg.Width || h > cfg.Height {
			return fmt.Errorf("%w: ship %d needs %dx%d cells on a %dx%d field",
				ErrInvalidGameSize, shipID, w, h, cfg.Width, cfg.Height)
		}
		occupied += len(shape)
	}

	// Every player places the full fleet on its own field; keep at least
	// half of the field free so placements stay possible.
	if area := cfg.Width * cfg.Height; occupied*2 > area {
		return fmt.Errorf("%w: fleet occupies %d of %d cells, at most %d allowed",
			ErrInvalidGameSize, occupied, area, area/2)
	}

	return nil
}

// extent returns the width and height of a shape's bounding box
func extent(shape []Point) (int, int) {
	if len(shape) == 0 {
		return 0, 0
	}
	minX, maxX := shape[0].X, shape[0].X
	minY, maxY := shape[0].Y, shape[0].Y
	for _, p := range shape[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return maxX - minX + 1, maxY - minY + 1
}
