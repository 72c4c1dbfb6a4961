package engine

import (
	"errors"
	"testing"
)

func createTestConfiguration() Configuration {
	return Configuration{
		MaxPlayerCount:    4,
		Height:            10,
		Width:             10,
		ShotCount:         1,
		HitPoints:         1,
		SunkPoints:        3,
		RoundTime:         1000,
		VisualizationTime: 500,
		Ships: map[int][]Point{
			1: {{X: 0, Y: 0}, {X: 1, Y: 0}},
			2: {{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}},
		},
	}
}

func TestValidateConfiguration(t *testing.T) {
	bounds := DefaultBounds()

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr error
	}{
		{"valid", func(*Configuration) {}, nil},
		{"too narrow", func(c *Configuration) { c.Width = 2 }, ErrInvalidGameSize},
		{"zero width", func(c *Configuration) { c.Width = 0 }, ErrInvalidGameSize},
		{"too tall", func(c *Configuration) { c.Height = 500 }, ErrInvalidGameSize},
		{"ship wider than field", func(c *Configuration) {
			c.Width, c.Height = 5, 5
			c.Ships[3] = []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}}
		}, ErrInvalidGameSize},
		{"fleet too dense", func(c *Configuration) {
			c.Width, c.Height = 5, 5
			for i := 10; i < 20; i++ {
				c.Ships[i] = []Point{{0, 0}, {1, 0}}
			}
		}, ErrInvalidGameSize},
		{"single player", func(c *Configuration) { c.MaxPlayerCount = 1 }, ErrInvalidConfiguration},
		{"no shots", func(c *Configuration) { c.ShotCount = 0 }, ErrInvalidConfiguration},
		{"no round time", func(c *Configuration) { c.RoundTime = 0 }, ErrInvalidConfiguration},
		{"no ships", func(c *Configuration) { c.Ships = nil }, ErrInvalidConfiguration},
		{"empty ship", func(c *Configuration) { c.Ships[9] = []Point{} }, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfiguration()
			tt.mutate(&cfg)

			err := ValidateConfiguration(cfg, bounds)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected valid configuration, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateConfiguration_CustomBounds(t *testing.T) {
	cfg := createTestConfiguration()
	if err := ValidateConfiguration(cfg, Bounds{MinFieldSize: 12, MaxFieldSize: 20}); !errors.Is(err, ErrInvalidGameSize) {
		t.Errorf("Expected ErrInvalidGameSize below custom minimum, got %v", err)
	}
	if err := ValidateConfiguration(cfg, Bounds{MinFieldSize: 10, MaxFieldSize: 10}); err != nil {
		t.Errorf("Expected field at the exact bounds to be valid, got %v", err)
	}
}

func TestExtent(t *testing.T) {
	w, h := extent([]Point{{X: -1, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 4}})
	if w != 3 || h != 3 {
		t.Errorf("Expected 3x3, got %dx%d", w, h)
	}
	if w, h := extent(nil); w != 0 || h != 0 {
		t.Errorf("Expected 0x0 for empty shape, got %dx%d", w, h)
	}
}
